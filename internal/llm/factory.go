package llm

import (
	"fmt"

	"paperledger/internal/config"
	"paperledger/internal/port"
)

// ProviderFactory creates a StructuredExtractor from the LLM config.
type ProviderFactory func(cfg *config.LLMConfig) (port.StructuredExtractor, error)

// registry of provider factories, populated by init() in each provider package.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// New creates a StructuredExtractor for cfg.Provider using the registered factory.
func New(cfg *config.LLMConfig) (port.StructuredExtractor, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

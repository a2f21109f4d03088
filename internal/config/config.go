package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	JWT     JWTConfig
	CORS    CORSConfig
	Log     LogConfig
	Storage StorageConfig
	S3      S3Config
	OCR     OCRConfig
	LLM     LLMConfig
	Queue   QueueConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds the settings used to verify tokens issued by the account service.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StorageConfig selects where document files are read from.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	// UploadsDir is shared with the remote OCR service; S3 downloads are spooled here.
	UploadsDir string `mapstructure:"uploads_dir"`
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// OCRConfig holds text extraction backend settings.
type OCRConfig struct {
	Backend     string `mapstructure:"backend"`
	URL         string `mapstructure:"url"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
	Language    string `mapstructure:"language"`
	PDFDPI      int    `mapstructure:"pdf_dpi"`
}

// Timeout returns the per-call OCR timeout.
func (o *OCRConfig) Timeout() time.Duration {
	return time.Duration(o.TimeoutSecs) * time.Second
}

// LLMConfig holds structured extraction backend settings.
type LLMConfig struct {
	Provider    string  `mapstructure:"provider"`
	Host        string  `mapstructure:"host"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	TimeoutSecs int     `mapstructure:"timeout_secs"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// QueueConfig holds processing queue settings.
type QueueConfig struct {
	DequeueWait time.Duration `mapstructure:"dequeue_wait"`
	RunTimeout  time.Duration `mapstructure:"run_timeout"`
}

// Load reads configuration from an optional .env file and environment
// variables with the PAPERLEDGER_ prefix.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("PAPERLEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Bind environment variables explicitly for nested keys
	for _, key := range v.AllKeys() {
		_ = v.BindEnv(key, "PAPERLEDGER_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
	}

	cfg := &Config{}

	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("PAPERLEDGER_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret: v.GetString("jwt.secret"),
		Issuer: v.GetString("jwt.issuer"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	cfg.Storage = StorageConfig{
		Backend:    v.GetString("storage.backend"),
		UploadsDir: v.GetString("storage.uploads_dir"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}
	cfg.OCR = OCRConfig{
		Backend:     v.GetString("ocr.backend"),
		URL:         strings.TrimRight(v.GetString("ocr.url"), "/"),
		TimeoutSecs: v.GetInt("ocr.timeout_secs"),
		Language:    v.GetString("ocr.language"),
		PDFDPI:      v.GetInt("ocr.pdf_dpi"),
	}
	cfg.LLM = LLMConfig{
		Provider:    v.GetString("llm.provider"),
		Host:        strings.TrimRight(v.GetString("llm.host"), "/"),
		APIKey:      v.GetString("llm.api_key"),
		Model:       v.GetString("llm.model"),
		TimeoutSecs: v.GetInt("llm.timeout_secs"),
		Temperature: v.GetFloat64("llm.temperature"),
		MaxTokens:   v.GetInt("llm.max_tokens"),
	}
	cfg.Queue = QueueConfig{
		DequeueWait: v.GetDuration("queue.dequeue_wait"),
		RunTimeout:  v.GetDuration("queue.run_timeout"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "300s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "paperledger")
	v.SetDefault("db.password", "paperledger_secret")
	v.SetDefault("db.name", "paperledger_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "")

	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// Storage defaults
	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.uploads_dir", "./uploads")
	v.SetDefault("s3.region", "eu-west-1")
	v.SetDefault("s3.bucket", "paperledger-uploads")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")

	// OCR defaults
	v.SetDefault("ocr.backend", "remote")
	v.SetDefault("ocr.url", "http://localhost:5000")
	v.SetDefault("ocr.timeout_secs", 120)
	v.SetDefault("ocr.language", "fra+eng")
	v.SetDefault("ocr.pdf_dpi", 300)

	// LLM defaults
	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.host", "http://localhost:11434")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "mistral")
	v.SetDefault("llm.timeout_secs", 120)
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.max_tokens", 2000)

	// Queue defaults
	v.SetDefault("queue.dequeue_wait", "1s")
	v.SetDefault("queue.run_timeout", "10m")
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case "local", "s3":
	default:
		return fmt.Errorf("unknown storage backend: %s", c.Storage.Backend)
	}
	switch c.OCR.Backend {
	case "remote", "tesseract":
	default:
		return fmt.Errorf("unknown ocr backend: %s", c.OCR.Backend)
	}
	if c.Queue.DequeueWait <= 0 {
		return fmt.Errorf("queue.dequeue_wait must be positive, got %s", c.Queue.DequeueWait)
	}
	return nil
}

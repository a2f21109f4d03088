package domain

import "github.com/shopspring/decimal"

// DefaultCurrency is reported when the model omits a currency.
const DefaultCurrency = "EUR"

// ExtractionResult is the typed view of one structured-extraction reply.
// Every field is optional; nil means the model did not provide a usable value.
type ExtractionResult struct {
	Success bool

	DocKind       *string
	Date          *string
	Time          *string
	Merchant      *string
	Location      *string
	TotalAmount   *decimal.Decimal
	Currency      *string
	IsIncome      *bool
	Items         []ExtractedItem
	SuggestedTags []string

	// Warnings lists shape problems that were tolerated while reading fields.
	Warnings []string

	Error       string
	RawResponse string
}

// ExtractedItem is one line item as read from the model reply.
type ExtractedItem struct {
	Name       string
	Quantity   decimal.Decimal
	UnitPrice  *decimal.Decimal
	TotalPrice *decimal.Decimal
}

// CurrencyOrDefault returns the extracted currency or DefaultCurrency.
func (r *ExtractionResult) CurrencyOrDefault() string {
	if r.Currency != nil {
		return *r.Currency
	}
	return DefaultCurrency
}

// IsIncomeOrDefault returns the extracted income flag or false.
func (r *ExtractionResult) IsIncomeOrDefault() bool {
	return r.IsIncome != nil && *r.IsIncome
}

// HasUsableFields reports whether at least one field carried a usable value.
func (r *ExtractionResult) HasUsableFields() bool {
	return r.DocKind != nil || r.Date != nil || r.Time != nil ||
		r.Merchant != nil || r.Location != nil || r.TotalAmount != nil ||
		r.Currency != nil || r.IsIncome != nil ||
		len(r.Items) > 0 || len(r.SuggestedTags) > 0
}

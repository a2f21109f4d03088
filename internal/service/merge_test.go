package service

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperledger/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-01-31", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), true},
		{"2024-1-5", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), true},
		{"31/01/2024", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), true},
		{"01/02/2024", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), true},
		{"31-01-2024", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), true},
		{"31.01.2024", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), true},
		{"2024/01/31", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), true},
		{" 2024-01-31 ", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), true},
		{"2024-13-01", time.Time{}, false},
		{"31/02/2024", time.Time{}, false},
		{"January 5th", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %s", got)
			}
		})
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"14:30", "14:30:00", true},
		{"9:05", "09:05:00", true},
		{"14:30:15", "14:30:15", true},
		{"14h30", "14:30:00", true},
		{"25:00", "", false},
		{"2pm", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseTime(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 5))
	assert.Equal(t, "ab", truncateRunes("abc", 2))
	assert.Equal(t, "été", truncateRunes("étés", 3))
}

func TestMergeExtraction_AbsentValuesKeepExistingFields(t *testing.T) {
	date := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	kind := domain.DocumentKindInvoice
	doc := &domain.Document{
		DocKind:     &kind,
		Date:        &date,
		Merchant:    strPtr("Old Shop"),
		Currency:    "USD",
		TotalAmount: decimal.NewNullDecimal(decimal.NewFromInt(10)),
	}

	mergeExtraction(doc, &domain.ExtractionResult{Success: true, Location: strPtr("Lyon")})

	assert.Equal(t, domain.DocumentKindInvoice, *doc.DocKind)
	assert.True(t, date.Equal(*doc.Date))
	assert.Equal(t, "Old Shop", *doc.Merchant)
	assert.Equal(t, "USD", doc.Currency)
	assert.True(t, doc.TotalAmount.Decimal.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "Lyon", *doc.Location)
}

func TestMergeExtraction_InvalidValuesAreDropped(t *testing.T) {
	kind := domain.DocumentKindReceipt
	doc := &domain.Document{DocKind: &kind}

	mergeExtraction(doc, &domain.ExtractionResult{
		Success: true,
		DocKind: strPtr("bank statement"),
		Date:    strPtr("yesterday"),
		Time:    strPtr("noon"),
	})

	assert.Equal(t, domain.DocumentKindReceipt, *doc.DocKind)
	assert.Nil(t, doc.Date)
	assert.Nil(t, doc.Time)
}

func TestMergeExtraction_NormalizesValues(t *testing.T) {
	doc := &domain.Document{Currency: "EUR"}
	amount := decimal.RequireFromString("42.50")
	income := true

	mergeExtraction(doc, &domain.ExtractionResult{
		Success:     true,
		DocKind:     strPtr("Payslip"),
		Date:        strPtr("28/02/2024"),
		Time:        strPtr("08h15"),
		Merchant:    strPtr(strings.Repeat("m", 300)),
		TotalAmount: &amount,
		Currency:    strPtr("usd dollars"),
		IsIncome:    &income,
	})

	require.NotNil(t, doc.DocKind)
	assert.Equal(t, domain.DocumentKindPayslip, *doc.DocKind)
	assert.True(t, time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC).Equal(*doc.Date))
	assert.Equal(t, "08:15:00", *doc.Time)
	assert.Len(t, *doc.Merchant, domain.MerchantWidth)
	assert.Equal(t, "USD", doc.Currency)
	assert.True(t, doc.TotalAmount.Valid)
	assert.True(t, doc.TotalAmount.Decimal.Equal(amount))
	assert.True(t, doc.IsIncome)
}

func TestBuildItems(t *testing.T) {
	unit := decimal.RequireFromString("0.60")
	total := decimal.RequireFromString("1.20")
	res := &domain.ExtractionResult{Items: []domain.ExtractedItem{
		{Name: "Pain", Quantity: decimal.NewFromInt(2), UnitPrice: &unit, TotalPrice: &total},
		{Name: strings.Repeat("x", 400), Quantity: decimal.NewFromInt(1)},
	}}

	items := buildItems(res)

	require.Len(t, items, 2)
	assert.Equal(t, "Pain", items[0].Name)
	assert.True(t, items[0].Quantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, items[0].UnitPrice.Decimal.Equal(unit))
	assert.True(t, items[0].TotalPrice.Decimal.Equal(total))
	assert.Len(t, items[1].Name, domain.ItemNameWidth)
	assert.False(t, items[1].UnitPrice.Valid)
	assert.False(t, items[1].TotalPrice.Valid)
}

func TestMatchTags(t *testing.T) {
	userTags := []domain.Tag{
		{ID: 1, Name: "Groceries"},
		{ID: 2, Name: "Transport"},
		{ID: 3, Name: "Health"},
	}

	ids := matchTags([]string{"transport", "GROCERIES", "Unknown", "groceries", " health "}, userTags)

	assert.Equal(t, []int64{2, 1, 3}, ids)
	assert.Empty(t, matchTags(nil, userTags))
	assert.Empty(t, matchTags([]string{"Groceries"}, nil))
}

func TestCreationDate(t *testing.T) {
	doc := &domain.Document{CreatedAt: time.Date(2024, 3, 5, 17, 42, 0, 0, time.UTC)}
	assert.True(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC).Equal(creationDate(doc)))
}

package service

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"paperledger/internal/domain"
)

// Accepted layouts, in priority order. Single-digit day, month and hour
// values are accepted as well.
var (
	dateLayouts = []string{"2006-1-2", "2/1/2006", "2-1-2006", "2.1.2006", "2006/1/2"}
	timeLayouts = []string{"15:04", "15:04:05", "15h04"}
)

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseTime returns the time of day formatted as HH:MM:SS.
func parseTime(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05"), true
		}
	}
	return "", false
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// mergeExtraction copies every present, valid extracted value onto doc.
// Absent or unparseable values leave the existing field untouched.
func mergeExtraction(doc *domain.Document, res *domain.ExtractionResult) {
	if res.DocKind != nil {
		if kind, ok := domain.ParseDocumentKind(*res.DocKind); ok {
			doc.DocKind = &kind
		}
	}
	if res.Date != nil {
		if d, ok := parseDate(*res.Date); ok {
			doc.Date = &d
		}
	}
	if res.Time != nil {
		if t, ok := parseTime(*res.Time); ok {
			doc.Time = &t
		}
	}
	if res.Merchant != nil {
		m := truncateRunes(*res.Merchant, domain.MerchantWidth)
		doc.Merchant = &m
	}
	if res.Location != nil {
		l := truncateRunes(*res.Location, domain.LocationWidth)
		doc.Location = &l
	}
	if res.TotalAmount != nil {
		doc.TotalAmount = decimal.NewNullDecimal(*res.TotalAmount)
	}
	if res.Currency != nil {
		doc.Currency = truncateRunes(strings.ToUpper(*res.Currency), domain.CurrencyWidth)
	}
	if res.IsIncome != nil {
		doc.IsIncome = *res.IsIncome
	}
}

// creationDate is the calendar date of doc.CreatedAt.
func creationDate(doc *domain.Document) time.Time {
	y, m, d := doc.CreatedAt.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func buildItems(res *domain.ExtractionResult) []domain.Item {
	items := make([]domain.Item, 0, len(res.Items))
	for _, e := range res.Items {
		item := domain.Item{
			Name:     truncateRunes(e.Name, domain.ItemNameWidth),
			Quantity: e.Quantity,
		}
		if e.UnitPrice != nil {
			item.UnitPrice = decimal.NewNullDecimal(*e.UnitPrice)
		}
		if e.TotalPrice != nil {
			item.TotalPrice = decimal.NewNullDecimal(*e.TotalPrice)
		}
		items = append(items, item)
	}
	return items
}

// matchTags returns the ids of the user's tags whose names case-insensitively
// equal a suggested name, in suggestion order and without duplicates.
func matchTags(suggested []string, userTags []domain.Tag) []int64 {
	byName := make(map[string]int64, len(userTags))
	for _, t := range userTags {
		byName[strings.ToLower(t.Name)] = t.ID
	}

	var ids []int64
	seen := make(map[int64]bool)
	for _, name := range suggested {
		id, ok := byName[strings.ToLower(strings.TrimSpace(name))]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func tagNames(tags []domain.Tag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return names
}

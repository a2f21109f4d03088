// Package parser turns a generative model's free-text reply into a typed
// extraction result. Nothing in this package returns an error or panics on
// malformed input: unusable values degrade to "absent".
package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"paperledger/internal/domain"
)

// UnknownItemName replaces a missing or blank item name.
const UnknownItemName = "Unknown item"

// Parse recovers and reads the extraction JSON contained in raw.
func Parse(raw string) *domain.ExtractionResult {
	res := &domain.ExtractionResult{RawResponse: raw}

	body, err := RecoverJSON(raw)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		res.Error = fmt.Sprintf("invalid JSON in model response: %v", err)
		return res
	}

	res.Warnings = shapeWarnings(obj)

	res.DocKind = stringField(obj, "doc_type")
	res.Date = stringField(obj, "date")
	res.Time = stringField(obj, "time")
	res.Merchant = stringField(obj, "merchant")
	res.Location = stringField(obj, "location")
	res.TotalAmount = numberField(obj, "total_amount")
	res.Currency = stringField(obj, "currency")
	res.IsIncome = boolField(obj, "is_income")
	res.Items = readItems(obj["items"])
	res.SuggestedTags = readTags(obj["suggested_tags"])

	if !res.HasUsableFields() {
		res.Error = "model response contains no usable fields"
		return res
	}
	res.Success = true
	return res
}

func stringField(obj map[string]any, key string) *string {
	s, ok := obj[key].(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func numberField(obj map[string]any, key string) *decimal.Decimal {
	n, ok := obj[key].(json.Number)
	if !ok {
		return nil
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return nil
	}
	return &d
}

func boolField(obj map[string]any, key string) *bool {
	b, ok := obj[key].(bool)
	if !ok {
		return nil
	}
	return &b
}

func readItems(v any) []domain.ExtractedItem {
	list, ok := v.([]any)
	if !ok {
		return nil
	}

	items := make([]domain.ExtractedItem, 0, len(list))
	for _, entry := range list {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		item := domain.ExtractedItem{
			Name:       UnknownItemName,
			Quantity:   decimal.NewFromInt(1),
			UnitPrice:  numberField(obj, "unit_price"),
			TotalPrice: numberField(obj, "total_price"),
		}
		if name := stringField(obj, "name"); name != nil {
			item.Name = *name
		}
		if qty := numberField(obj, "quantity"); qty != nil && qty.IsPositive() {
			item.Quantity = *qty
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil
	}
	return items
}

func readTags(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}

	var tags []string
	for _, entry := range list {
		s, ok := entry.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			tags = append(tags, s)
		}
	}
	return tags
}

package llm

import "strings"

const extractionInstructions = `You are a data extraction assistant for financial documents (receipts, invoices, payslips).
Read the OCR text below and return ONE JSON object with exactly these keys:

{
  "doc_type": "receipt" | "invoice" | "payslip" | "other",
  "date": "YYYY-MM-DD" or null,
  "time": "HH:MM" or null,
  "merchant": string or null,
  "location": string or null,
  "items": [
    {"name": string, "quantity": number, "unit_price": number or null, "total_price": number or null}
  ],
  "total_amount": number or null,
  "currency": ISO 4217 code such as "EUR",
  "is_income": true for payslips and money received, false otherwise,
  "suggested_tags": [names taken only from the available tags]
}

RULES:
- Numbers are plain JSON numbers with a dot as decimal separator, no currency symbols.
- Use null when a value cannot be read. Do not invent values.
- suggested_tags may only contain names from the available tags list.
- Return ONLY the JSON object. No explanation, no comments, no markdown.
`

// BuildExtractionPrompt interpolates the caller's tag vocabulary and the OCR
// text into the extraction instructions.
func BuildExtractionPrompt(ocrText string, tagNames []string) string {
	var b strings.Builder
	b.WriteString(extractionInstructions)

	b.WriteString("\nAVAILABLE TAGS: ")
	if len(tagNames) == 0 {
		b.WriteString("none available, leave suggested_tags empty")
	} else {
		b.WriteString(strings.Join(tagNames, ", "))
	}

	b.WriteString("\n\nOCR TEXT:\n")
	b.WriteString(ocrText)
	b.WriteString("\n\nJSON:")
	return b.String()
}

package parser

import (
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const extractionSchema = `{
  "type": "object",
  "properties": {
    "doc_type":     {"type": ["string", "null"]},
    "date":         {"type": ["string", "null"]},
    "time":         {"type": ["string", "null"]},
    "merchant":     {"type": ["string", "null"]},
    "location":     {"type": ["string", "null"]},
    "total_amount": {"type": ["number", "null"]},
    "currency":     {"type": ["string", "null"]},
    "is_income":    {"type": ["boolean", "null"]},
    "items": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "name":        {"type": ["string", "null"]},
          "quantity":    {"type": ["number", "null"]},
          "unit_price":  {"type": ["number", "null"]},
          "total_price": {"type": ["number", "null"]}
        }
      }
    },
    "suggested_tags": {"type": ["array", "null"], "items": {"type": "string"}}
  }
}`

var schema = jsonschema.MustCompileString("extraction.json", extractionSchema)

// shapeWarnings validates the decoded object against the expected extraction
// shape and reports each violation. Violations never fail a parse; the field
// readers already treat ill-typed values as absent.
func shapeWarnings(obj map[string]any) []string {
	err := schema.Validate(obj)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []string{err.Error()}
	}
	var out []string
	collectLeaves(ve, &out)
	return out
}

func collectLeaves(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) == 0 {
		*out = append(*out, fmt.Sprintf("%s: %s", ve.InstanceLocation, ve.Message))
		return
	}
	for _, c := range ve.Causes {
		collectLeaves(c, out)
	}
}

package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// defaultPrinter is used to format schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

// extractionSchemaJSON is the structural contract for model output. It
// enforces required fields, the relation kind enum, the snippet length cap,
// and the evidence-required-when-asserted rule. Content checks (does the
// snippet actually appear in the source text) belong to the gates, not here.
const extractionSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["docId", "entities", "relations", "techTerms"],
  "properties": {
    "docId": {"type": "string", "minLength": 1},
    "entities": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "type"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "type": {"type": "string"},
          "aliases": {"type": "array", "items": {"type": "string"}},
          "idHint": {"type": "string"}
        }
      }
    },
    "relations": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["source", "rel", "target", "kind", "confidence"],
        "properties": {
          "source": {"type": "string", "minLength": 1},
          "rel": {"type": "string", "minLength": 1},
          "target": {"type": "string", "minLength": 1},
          "kind": {"enum": ["asserted", "inferred", "hypothesis"]},
          "confidence": {"type": "number", "minimum": 0, "maximum": 1},
          "evidence": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["docId", "snippet"],
              "properties": {
                "docId": {"type": "string"},
                "url": {"type": "string"},
                "published": {"type": "string"},
                "snippet": {"type": "string", "maxLength": 200}
              }
            }
          }
        },
        "if": {"properties": {"kind": {"const": "asserted"}}},
        "then": {
          "required": ["source", "rel", "target", "kind", "confidence", "evidence"],
          "properties": {"evidence": {"type": "array", "minItems": 1}}
        }
      }
    },
    "techTerms": {"type": "array", "items": {"type": "string"}},
    "dates": {"type": "array", "items": {"type": "string"}},
    "notes": {"type": "array", "items": {"type": "string"}}
  }
}`

var extractionSchema *jsonschema.Schema

func init() {
	extractionSchema = mustCompileSchema(extractionSchemaJSON, "extraction.schema.json")
}

func mustCompileSchema(raw string, name string) *jsonschema.Schema {
	var schemaDoc any
	if err := json.Unmarshal([]byte(raw), &schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// ValidateSchema checks raw extraction JSON against the structural schema
// and returns human-readable violations, empty when the document conforms.
func ValidateSchema(raw []byte) []string {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return []string{fmt.Sprintf("invalid JSON: %v", err)}
	}

	err := extractionSchema.Validate(doc)
	if err == nil {
		return nil
	}
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	var errs []string
	collectSchemaErrors(verr, &errs)
	return errs
}

func collectSchemaErrors(verr *jsonschema.ValidationError, errs *[]string) {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, verr.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range verr.Causes {
		collectSchemaErrors(c, errs)
	}
}

package extract

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/graphdesk/newsgraph/internal/model"
)

// ErrParse marks a model response that did not contain parseable JSON.
var ErrParse = eris.New("extract: response is not valid JSON")

// ErrSchema marks a parsed extraction that violates the structural schema.
var ErrSchema = eris.New("extract: extraction failed schema validation")

// ParseResponse extracts the JSON payload from a model response and decodes
// it. Models wrap output in markdown fences often enough that stripping them
// is table stakes.
func ParseResponse(text string) (*model.Extraction, []byte, error) {
	raw := cleanJSON(text)
	if raw == "" {
		return nil, nil, eris.Wrap(ErrParse, "empty response")
	}

	var ex model.Extraction
	if err := json.Unmarshal([]byte(raw), &ex); err != nil {
		return nil, nil, eris.Wrapf(ErrParse, "decode: %v", err)
	}

	// Downstream gates assume these are present, possibly empty.
	if ex.Entities == nil {
		ex.Entities = []model.Entity{}
	}
	if ex.Relations == nil {
		ex.Relations = []model.Relation{}
	}
	if ex.TechTerms == nil {
		ex.TechTerms = []string{}
	}

	return &ex, []byte(raw), nil
}

// cleanJSON strips markdown fences and extracts the JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

package model

// RelationKind distinguishes how strongly the extractor stands behind a
// relation. Asserted relations must carry evidence.
type RelationKind string

const (
	KindAsserted   RelationKind = "asserted"
	KindInferred   RelationKind = "inferred"
	KindHypothesis RelationKind = "hypothesis"
)

// Entity is a named thing the extractor found in a document.
type Entity struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Aliases []string `json:"aliases,omitempty"`
	IDHint  string   `json:"idHint,omitempty"`
}

// Evidence is a verbatim snippet backing an asserted relation.
type Evidence struct {
	DocID     string `json:"docId"`
	URL       string `json:"url,omitempty"`
	Published string `json:"published,omitempty"`
	Snippet   string `json:"snippet"` // ≤200 chars, enforced by schema validation
}

// Relation links two entities by name.
type Relation struct {
	Source     string       `json:"source"`
	Rel        string       `json:"rel"`
	Target     string       `json:"target"`
	Kind       RelationKind `json:"kind"`
	Confidence float64      `json:"confidence"`
	Evidence   []Evidence   `json:"evidence,omitempty"`
}

// Extraction is the parsed, schema-valid output of one model call on one
// document. The slices are always non-nil once an extraction clears schema
// validation; gates and scorers may assume presence, not content.
type Extraction struct {
	DocID     string     `json:"docId"`
	Entities  []Entity   `json:"entities"`
	Relations []Relation `json:"relations"`
	TechTerms []string   `json:"techTerms"`
	Dates     []string   `json:"dates,omitempty"`
	Notes     []string   `json:"notes,omitempty"`
}

// AssertedRelations returns the subset of relations with kind "asserted".
func (e *Extraction) AssertedRelations() []Relation {
	var out []Relation
	for _, r := range e.Relations {
		if r.Kind == KindAsserted {
			out = append(out, r)
		}
	}
	return out
}

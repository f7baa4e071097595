// Package shadow compares a trusted primary extraction against an understudy
// (candidate cheaper model) extraction of the same document. The comparison
// is purely offline evidence for model promotion; it never gates the
// accept/escalate path.
package shadow

import (
	"fmt"
	"strings"
	"time"

	"github.com/graphdesk/newsgraph/internal/model"
)

// Comparison holds the overlap percentages for one document.
type Comparison struct {
	EntityOverlapPct   float64 `json:"entity_overlap_pct"`
	RelationOverlapPct float64 `json:"relation_overlap_pct"`
}

// Compare measures how much of the primary extraction the understudy
// reproduced. Overlap is measured against the primary's sets: the understudy
// is rewarded for recall of the trusted output, not for extra findings.
func Compare(primary, understudy *model.Extraction) Comparison {
	return Comparison{
		EntityOverlapPct:   overlapPct(entityNames(primary), entityNames(understudy)),
		RelationOverlapPct: overlapPct(relationTuples(primary), relationTuples(understudy)),
	}
}

// Record builds a persistable ComparisonRecord. A schema-invalid understudy
// output carries no overlap figures.
func Record(docID string, runDate time.Time, understudyModel string, cmp *Comparison, primaryMs, understudyMs int64) model.ComparisonRecord {
	rec := model.ComparisonRecord{
		DocID:           docID,
		RunDate:         runDate,
		UnderstudyModel: understudyModel,
		SchemaValid:     cmp != nil,
		PrimaryMs:       primaryMs,
		UnderstudyMs:    understudyMs,
	}
	if cmp != nil {
		e, r := cmp.EntityOverlapPct, cmp.RelationOverlapPct
		rec.EntityOverlapPct = &e
		rec.RelationOverlapPct = &r
	}
	return rec
}

// overlapPct returns |primary ∩ understudy| / |primary| × 100. An empty
// primary set counts as fully reproduced only by an empty understudy set.
func overlapPct(primary, understudy map[string]bool) float64 {
	if len(primary) == 0 {
		if len(understudy) == 0 {
			return 100
		}
		return 0
	}
	matched := 0
	for k := range primary {
		if understudy[k] {
			matched++
		}
	}
	return float64(matched) / float64(len(primary)) * 100
}

func entityNames(ex *model.Extraction) map[string]bool {
	names := make(map[string]bool, len(ex.Entities))
	for _, e := range ex.Entities {
		names[foldName(e.Name)] = true
	}
	return names
}

func relationTuples(ex *model.Extraction) map[string]bool {
	tuples := make(map[string]bool, len(ex.Relations))
	for _, r := range ex.Relations {
		key := fmt.Sprintf("%s|%s|%s", foldName(r.Source), strings.ToUpper(strings.TrimSpace(r.Rel)), foldName(r.Target))
		tuples[key] = true
	}
	return tuples
}

func foldName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

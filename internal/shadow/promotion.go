package shadow

import (
	"fmt"
	"strings"

	"github.com/graphdesk/newsgraph/internal/config"
	"github.com/graphdesk/newsgraph/internal/model"
)

// PromotionReport is the verdict on whether an understudy model has earned
// promotion to primary.
type PromotionReport struct {
	Stats      model.PromotionStats `json:"stats"`
	Promotable bool                 `json:"promotable"`
	Blockers   []string             `json:"blockers,omitempty"`
}

// EvaluatePromotion checks the aggregated comparison stats against all four
// promotion criteria. Every criterion must hold.
func EvaluatePromotion(stats model.PromotionStats, cfg config.ShadowConfig) PromotionReport {
	var blockers []string

	if stats.Documents < cfg.MinDocuments {
		blockers = append(blockers, fmt.Sprintf("documents %d < %d", stats.Documents, cfg.MinDocuments))
	}
	if stats.SchemaPassRate < cfg.SchemaPassRateMin {
		blockers = append(blockers, fmt.Sprintf("schema_pass_rate %.3f < %.3f", stats.SchemaPassRate, cfg.SchemaPassRateMin))
	}
	if stats.MeanEntityOverlap < cfg.EntityOverlapPctMin {
		blockers = append(blockers, fmt.Sprintf("entity_overlap %.1f%% < %.1f%%", stats.MeanEntityOverlap, cfg.EntityOverlapPctMin))
	}
	if stats.MeanRelationOverlap < cfg.RelationOverlapPctMin {
		blockers = append(blockers, fmt.Sprintf("relation_overlap %.1f%% < %.1f%%", stats.MeanRelationOverlap, cfg.RelationOverlapPctMin))
	}

	return PromotionReport{
		Stats:      stats,
		Promotable: len(blockers) == 0,
		Blockers:   blockers,
	}
}

// Aggregate computes promotion stats from raw comparison records. Rows with
// schema_valid=false count against the pass rate but are excluded from the
// overlap means.
func Aggregate(understudyModel string, records []model.ComparisonRecord) model.PromotionStats {
	stats := model.PromotionStats{UnderstudyModel: understudyModel}
	if len(records) == 0 {
		return stats
	}

	valid := 0
	var entitySum, relationSum float64
	var entityN, relationN int
	for _, rec := range records {
		if rec.SchemaValid {
			valid++
		}
		if rec.EntityOverlapPct != nil {
			entitySum += *rec.EntityOverlapPct
			entityN++
		}
		if rec.RelationOverlapPct != nil {
			relationSum += *rec.RelationOverlapPct
			relationN++
		}
	}

	stats.Documents = len(records)
	stats.SchemaPassRate = float64(valid) / float64(len(records))
	if entityN > 0 {
		stats.MeanEntityOverlap = entitySum / float64(entityN)
	}
	if relationN > 0 {
		stats.MeanRelationOverlap = relationSum / float64(relationN)
	}
	return stats
}

// String renders a one-line summary for CLI output.
func (r PromotionReport) String() string {
	if r.Promotable {
		return fmt.Sprintf("%s: PROMOTABLE (%d docs, schema %.1f%%, entities %.1f%%, relations %.1f%%)",
			r.Stats.UnderstudyModel, r.Stats.Documents, r.Stats.SchemaPassRate*100,
			r.Stats.MeanEntityOverlap, r.Stats.MeanRelationOverlap)
	}
	return fmt.Sprintf("%s: not promotable (%s)", r.Stats.UnderstudyModel, strings.Join(r.Blockers, "; "))
}

package shadow

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/graphdesk/newsgraph/internal/config"
	"github.com/graphdesk/newsgraph/internal/model"
)

func shadowCfg() config.ShadowConfig {
	return config.ShadowConfig{
		SchemaPassRateMin:     0.95,
		EntityOverlapPctMin:   85.0,
		RelationOverlapPctMin: 80.0,
		MinDocuments:          100,
	}
}

func records(n int, valid bool, entityPct, relationPct float64) []model.ComparisonRecord {
	now := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)
	var out []model.ComparisonRecord
	for i := 0; i < n; i++ {
		rec := model.ComparisonRecord{
			DocID:           fmt.Sprintf("d%03d", i),
			RunDate:         now,
			UnderstudyModel: "understudy",
			SchemaValid:     valid,
		}
		if valid {
			e, r := entityPct, relationPct
			rec.EntityOverlapPct = &e
			rec.RelationOverlapPct = &r
		}
		out = append(out, rec)
	}
	return out
}

func TestAggregate_Empty(t *testing.T) {
	stats := Aggregate("understudy", nil)
	assert.Equal(t, 0, stats.Documents)
	assert.Equal(t, 0.0, stats.SchemaPassRate)
}

func TestAggregate_InvalidRowsCountAgainstRateOnly(t *testing.T) {
	recs := append(records(90, true, 90, 85), records(10, false, 0, 0)...)
	stats := Aggregate("understudy", recs)

	assert.Equal(t, 100, stats.Documents)
	assert.InDelta(t, 0.90, stats.SchemaPassRate, 0.001)
	// Means cover only the rows that carried overlap figures.
	assert.InDelta(t, 90.0, stats.MeanEntityOverlap, 0.001)
	assert.InDelta(t, 85.0, stats.MeanRelationOverlap, 0.001)
}

func TestEvaluatePromotion_AllCriteriaMet(t *testing.T) {
	stats := Aggregate("understudy", records(120, true, 92, 88))
	report := EvaluatePromotion(stats, shadowCfg())

	assert.True(t, report.Promotable)
	assert.Empty(t, report.Blockers)
	assert.Contains(t, report.String(), "PROMOTABLE")
}

func TestEvaluatePromotion_TooFewDocuments(t *testing.T) {
	stats := Aggregate("understudy", records(50, true, 95, 95))
	report := EvaluatePromotion(stats, shadowCfg())

	assert.False(t, report.Promotable)
	assert.Len(t, report.Blockers, 1)
	assert.Contains(t, report.Blockers[0], "documents")
}

func TestEvaluatePromotion_EveryCriterionBlocks(t *testing.T) {
	recs := append(records(80, true, 70, 60), records(20, false, 0, 0)...)
	stats := Aggregate("understudy", recs)
	report := EvaluatePromotion(stats, shadowCfg())

	// schema 0.80 < 0.95, entities 70 < 85, relations 60 < 80.
	assert.False(t, report.Promotable)
	assert.Len(t, report.Blockers, 3)
}

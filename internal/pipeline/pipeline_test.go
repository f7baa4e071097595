package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphdesk/newsgraph/internal/config"
	"github.com/graphdesk/newsgraph/internal/extract"
	"github.com/graphdesk/newsgraph/internal/model"
)

func TestAcquireLock_Exclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")

	lock, err := AcquireLock(path)
	require.NoError(t, err)

	_, err = AcquireLock(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "held by another run")

	require.NoError(t, lock.Release())

	// Released locks can be reacquired.
	lock2, err := AcquireLock(path)
	require.NoError(t, err)
	require.NoError(t, lock2.Release())
}

func TestStatusForError(t *testing.T) {
	assert.Equal(t, model.RunStatusParseFailed, statusForError(eris.Wrap(extract.ErrParse, "x")))
	assert.Equal(t, model.RunStatusSchemaFailed, statusForError(eris.Wrap(extract.ErrSchema, "x")))
	assert.Equal(t, model.RunStatusAPIFailed, statusForError(eris.New("connection refused")))
}

func TestMetricsFromEvaluation_Shape(t *testing.T) {
	cfg := &config.Config{
		Gates:      config.GatesConfig{EvidenceMatchRateMin: 0.70, HighConfidenceMin: 0.8, ZeroValueMinChars: 500},
		Escalation: config.EscalationConfig{ScoreThreshold: 0.6},
	}
	eval := model.QualityEvaluation{
		DocID: "doc-1",
		Gates: model.GateReport{
			OverallPassed: false,
			Gates: []model.GateResult{
				{Name: "evidence_fidelity", Passed: false, MetricValue: 0.5, Details: "1/2 matched"},
				{Name: "orphan_endpoints", Passed: true, MetricValue: 0},
			},
		},
		Quality: model.QualityBreakdown{
			Density:      0.8,
			Evidence:     0.6,
			Confidence:   0.7,
			Connectivity: 0.4,
			Tech:         1.0,
			Combined:     0.68,
		},
		Escalate:       true,
		DecisionReason: "gate_failed: evidence_fidelity",
	}

	metrics := MetricsFromEvaluation("run-1", eval, cfg)
	// 2 gate rows + 5 signal rows + 1 combined row.
	require.Len(t, metrics, 8)

	fidelity := metrics[0]
	assert.Equal(t, "gate_evidence_fidelity", fidelity.MetricName)
	assert.False(t, fidelity.Passed)
	assert.Equal(t, 2, fidelity.Severity)
	require.NotNil(t, fidelity.ThresholdValue)
	assert.InDelta(t, 0.70, *fidelity.ThresholdValue, 0.0001)
	assert.Equal(t, "1/2 matched", fidelity.Notes)

	orphan := metrics[1]
	assert.Equal(t, "gate_orphan_endpoints", orphan.MetricName)
	assert.True(t, orphan.Passed)
	assert.Equal(t, 0, orphan.Severity)

	combined := metrics[7]
	assert.Equal(t, "combined_score", combined.MetricName)
	assert.InDelta(t, 0.68, combined.MetricValue, 0.0001)
	// Combined passes its own threshold even though a gate escalated the run.
	assert.True(t, combined.Passed)
	assert.Equal(t, "gate_failed: evidence_fidelity", combined.Notes)
	require.NotNil(t, combined.ThresholdValue)
	assert.InDelta(t, 0.6, *combined.ThresholdValue, 0.0001)

	for i, name := range []string{"density_score", "evidence_score", "confidence_score", "connectivity_score", "tech_score"} {
		assert.Equal(t, name, metrics[2+i].MetricName)
		assert.True(t, metrics[2+i].Passed)
	}
}

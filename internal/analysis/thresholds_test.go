package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JustAGhosT/codeflow-engine/internal/config"
)

func TestEvaluateThresholds(t *testing.T) {
	cfg := config.DefaultConfig()

	tests := []struct {
		name    string
		report  ComplexityReport
		exceeds bool
		reason  string
	}{
		{
			name:    "everything under limits",
			report:  ComplexityReport{SizeBytes: 100, LineCount: 50, FunctionCount: 3, ClassCount: 1, Cyclomatic: 4, Cognitive: 6},
			exceeds: false,
		},
		{
			name:    "line count over",
			report:  ComplexityReport{LineCount: cfg.MaxLinesPerFile + 1},
			exceeds: true,
			reason:  "line count",
		},
		{
			name:    "class count over",
			report:  ComplexityReport{ClassCount: cfg.MaxClassesPerFile + 1},
			exceeds: true,
			reason:  "class count",
		},
		{
			name:    "cognitive over",
			report:  ComplexityReport{Cognitive: cfg.MaxCognitiveComplexity + 10},
			exceeds: true,
			reason:  "cognitive complexity",
		},
		{
			name:    "exactly at limit does not fire",
			report:  ComplexityReport{LineCount: cfg.MaxLinesPerFile, FunctionCount: cfg.MaxFunctionsPerFile},
			exceeds: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exceeds, reasons := EvaluateThresholds(&tt.report, cfg)
			assert.Equal(t, tt.exceeds, exceeds)
			if tt.reason != "" {
				assert.True(t, containsSubstring(reasons, tt.reason), "reasons %v should mention %q", reasons, tt.reason)
			}
			if !tt.exceeds {
				assert.Empty(t, reasons)
			}
		})
	}
}

func TestEvaluateThresholdsDisabledChecks(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MaxLinesPerFile = 0
	cfg.MaxCyclomaticComplexity = 0

	report := ComplexityReport{LineCount: 100000, Cyclomatic: 500}
	exceeds, reasons := EvaluateThresholds(&report, cfg)
	assert.False(t, exceeds, "zero disables a check")
	assert.Empty(t, reasons)
}

func TestEvaluateThresholdsMultipleBreaches(t *testing.T) {
	cfg := config.DefaultConfig()
	report := ComplexityReport{
		LineCount:     cfg.MaxLinesPerFile * 2,
		FunctionCount: cfg.MaxFunctionsPerFile * 2,
		ClassCount:    cfg.MaxClassesPerFile * 2,
	}

	exceeds, reasons := EvaluateThresholds(&report, cfg)
	assert.True(t, exceeds)
	assert.Len(t, reasons, 3, "one reason per breached metric")
}

func containsSubstring(reasons []string, sub string) bool {
	for _, r := range reasons {
		if strings.Contains(r, sub) {
			return true
		}
	}
	return false
}

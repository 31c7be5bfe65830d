package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 500, cfg.MaxLinesPerFile)
	assert.Equal(t, 20, cfg.MaxFunctionsPerFile)
	assert.Equal(t, 5, cfg.MaxClassesPerFile)
	assert.Equal(t, 0.7, cfg.ConfidenceThreshold)
	assert.True(t, cfg.CreateBackups)
	assert.True(t, cfg.ValidateSplits)
	assert.True(t, cfg.PreserveImports)
	assert.False(t, cfg.UseAIAnalysis)

	// A single breached threshold must yield full static confidence.
	assert.Equal(t, 1.0, cfg.Fusion.FirstSignal)
	assert.Equal(t, 0.0, cfg.Fusion.AdditionalSignal)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SplitConfig)
		valid  bool
	}{
		{"defaults", func(*SplitConfig) {}, true},
		{"zero disables checks", func(c *SplitConfig) { c.MaxLinesPerFile = 0; c.MaxFileSizeBytes = 0 }, true},
		{"negative line limit", func(c *SplitConfig) { c.MaxLinesPerFile = -1 }, false},
		{"negative workers", func(c *SplitConfig) { c.MaxParallelWorkers = -2 }, false},
		{"threshold above one", func(c *SplitConfig) { c.ConfidenceThreshold = 1.5 }, false},
		{"threshold below zero", func(c *SplitConfig) { c.ConfidenceThreshold = -0.1 }, false},
		{"negative time budget", func(c *SplitConfig) { c.MaxProcessingTimeSeconds = -1 }, false},
		{"fusion weight out of range", func(c *SplitConfig) { c.Fusion.FirstSignal = 2 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidConfig))
			}
		})
	}
}

func TestProcessingBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxProcessingTimeSeconds = 2.5
	assert.Equal(t, 2500*time.Millisecond, cfg.ProcessingBudget())

	cfg.MaxProcessingTimeSeconds = 0
	assert.Equal(t, time.Duration(0), cfg.ProcessingBudget(), "zero means unbounded")
}

func TestHashChangesWithConfig(t *testing.T) {
	a := DefaultConfig()
	b := DefaultConfig()
	assert.Equal(t, a.Hash(), b.Hash())

	b.MaxLinesPerFile = 999
	assert.NotEqual(t, a.Hash(), b.Hash())
}

func TestCloneIsIndependent(t *testing.T) {
	a := DefaultConfig()
	b := a.Clone()
	b.MaxLinesPerFile = 1

	assert.Equal(t, 500, a.MaxLinesPerFile)
	assert.Equal(t, 1, b.MaxLinesPerFile)
}

package config

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig marks configuration validation failures. Callers
// abort before analysis when a config fails validation.
var ErrInvalidConfig = errors.New("invalid split configuration")

// FusionWeights controls how static threshold matches are folded into a
// confidence score. The exact curve is deliberately configuration, not
// code: FirstSignal is the confidence contributed by the first breached
// threshold, AdditionalSignal by each further breach, capped at 1.0.
type FusionWeights struct {
	FirstSignal      float64 `mapstructure:"first_signal" yaml:"first_signal" json:"first_signal"`
	AdditionalSignal float64 `mapstructure:"additional_signal" yaml:"additional_signal" json:"additional_signal"`
}

// SplitConfig carries every knob the splitting pipeline consumes. It is
// immutable per invocation; the caller owns it and passes it through all
// components.
type SplitConfig struct {
	// Structural thresholds. Zero disables the corresponding check.
	MaxFileSizeBytes        int `mapstructure:"max_file_size_bytes" yaml:"max_file_size_bytes" json:"max_file_size_bytes"`
	MaxLinesPerFile         int `mapstructure:"max_lines_per_file" yaml:"max_lines_per_file" json:"max_lines_per_file"`
	MaxFunctionsPerFile     int `mapstructure:"max_functions_per_file" yaml:"max_functions_per_file" json:"max_functions_per_file"`
	MaxClassesPerFile       int `mapstructure:"max_classes_per_file" yaml:"max_classes_per_file" json:"max_classes_per_file"`
	MaxCyclomaticComplexity int `mapstructure:"max_cyclomatic_complexity" yaml:"max_cyclomatic_complexity" json:"max_cyclomatic_complexity"`
	MaxCognitiveComplexity  int `mapstructure:"max_cognitive_complexity" yaml:"max_cognitive_complexity" json:"max_cognitive_complexity"`

	// AI recommendation signal.
	UseAIAnalysis       bool    `mapstructure:"use_ai_analysis" yaml:"use_ai_analysis" json:"use_ai_analysis"`
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold" yaml:"confidence_threshold" json:"confidence_threshold"`

	// Historical learning signal.
	LearningEnabled bool `mapstructure:"learning_enabled" yaml:"learning_enabled" json:"learning_enabled"`

	// Execution behavior.
	MaxProcessingTimeSeconds float64 `mapstructure:"max_processing_time_seconds" yaml:"max_processing_time_seconds" json:"max_processing_time_seconds"`
	EnableParallelProcessing bool    `mapstructure:"enable_parallel_processing" yaml:"enable_parallel_processing" json:"enable_parallel_processing"`
	MaxParallelWorkers       int     `mapstructure:"max_parallel_workers" yaml:"max_parallel_workers" json:"max_parallel_workers"`
	CreateBackups            bool    `mapstructure:"create_backups" yaml:"create_backups" json:"create_backups"`
	ValidateSplits           bool    `mapstructure:"validate_splits" yaml:"validate_splits" json:"validate_splits"`
	PreserveImports          bool    `mapstructure:"preserve_imports" yaml:"preserve_imports" json:"preserve_imports"`

	Fusion FusionWeights `mapstructure:"fusion" yaml:"fusion" json:"fusion"`
}

// DefaultConfig returns the configuration used when no file or override
// is supplied. Fusion defaults make static confidence 1.0 on any breach
// and 0.0 otherwise.
func DefaultConfig() *SplitConfig {
	return &SplitConfig{
		MaxFileSizeBytes:         100_000,
		MaxLinesPerFile:          500,
		MaxFunctionsPerFile:      20,
		MaxClassesPerFile:        5,
		MaxCyclomaticComplexity:  15,
		MaxCognitiveComplexity:   30,
		UseAIAnalysis:            false,
		ConfidenceThreshold:      0.7,
		LearningEnabled:          false,
		MaxProcessingTimeSeconds: 30,
		EnableParallelProcessing: false,
		MaxParallelWorkers:       4,
		CreateBackups:            true,
		ValidateSplits:           true,
		PreserveImports:          true,
		Fusion: FusionWeights{
			FirstSignal:      1.0,
			AdditionalSignal: 0.0,
		},
	}
}

// Validate rejects configurations the pipeline cannot run with. All
// failures wrap ErrInvalidConfig.
func (c *SplitConfig) Validate() error {
	checks := []struct {
		name  string
		value int
	}{
		{"max_file_size_bytes", c.MaxFileSizeBytes},
		{"max_lines_per_file", c.MaxLinesPerFile},
		{"max_functions_per_file", c.MaxFunctionsPerFile},
		{"max_classes_per_file", c.MaxClassesPerFile},
		{"max_cyclomatic_complexity", c.MaxCyclomaticComplexity},
		{"max_cognitive_complexity", c.MaxCognitiveComplexity},
		{"max_parallel_workers", c.MaxParallelWorkers},
	}
	for _, chk := range checks {
		if chk.value < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %d", ErrInvalidConfig, chk.name, chk.value)
		}
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("%w: confidence_threshold must be in [0,1], got %g", ErrInvalidConfig, c.ConfidenceThreshold)
	}
	if c.MaxProcessingTimeSeconds < 0 {
		return fmt.Errorf("%w: max_processing_time_seconds must not be negative, got %g", ErrInvalidConfig, c.MaxProcessingTimeSeconds)
	}
	if c.Fusion.FirstSignal < 0 || c.Fusion.FirstSignal > 1 {
		return fmt.Errorf("%w: fusion.first_signal must be in [0,1], got %g", ErrInvalidConfig, c.Fusion.FirstSignal)
	}
	if c.Fusion.AdditionalSignal < 0 || c.Fusion.AdditionalSignal > 1 {
		return fmt.Errorf("%w: fusion.additional_signal must be in [0,1], got %g", ErrInvalidConfig, c.Fusion.AdditionalSignal)
	}
	return nil
}

// ProcessingBudget converts the configured time budget to a Duration.
// Zero means no budget.
func (c *SplitConfig) ProcessingBudget() time.Duration {
	if c.MaxProcessingTimeSeconds <= 0 {
		return 0
	}
	return time.Duration(c.MaxProcessingTimeSeconds * float64(time.Second))
}

// Hash returns a stable fingerprint of the configuration, used together
// with the content hash to key the decision cache.
func (c *SplitConfig) Hash() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%+v", *c)))
	return hex.EncodeToString(sum[:8])
}

// Clone returns a copy so callers can derive per-invocation variants
// without mutating a shared config.
func (c *SplitConfig) Clone() *SplitConfig {
	cp := *c
	return &cp
}

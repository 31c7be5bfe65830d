package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads a split configuration file (YAML or JSON), applying
// defaults for absent keys and CODEFLOW_* environment overrides
// (e.g. CODEFLOW_MAX_LINES_PER_FILE=800). An empty path yields the
// defaults plus environment overrides.
func Load(path string) (*SplitConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("CODEFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultConfig()
	v.SetDefault("max_file_size_bytes", defaults.MaxFileSizeBytes)
	v.SetDefault("max_lines_per_file", defaults.MaxLinesPerFile)
	v.SetDefault("max_functions_per_file", defaults.MaxFunctionsPerFile)
	v.SetDefault("max_classes_per_file", defaults.MaxClassesPerFile)
	v.SetDefault("max_cyclomatic_complexity", defaults.MaxCyclomaticComplexity)
	v.SetDefault("max_cognitive_complexity", defaults.MaxCognitiveComplexity)
	v.SetDefault("use_ai_analysis", defaults.UseAIAnalysis)
	v.SetDefault("confidence_threshold", defaults.ConfidenceThreshold)
	v.SetDefault("learning_enabled", defaults.LearningEnabled)
	v.SetDefault("max_processing_time_seconds", defaults.MaxProcessingTimeSeconds)
	v.SetDefault("enable_parallel_processing", defaults.EnableParallelProcessing)
	v.SetDefault("max_parallel_workers", defaults.MaxParallelWorkers)
	v.SetDefault("create_backups", defaults.CreateBackups)
	v.SetDefault("validate_splits", defaults.ValidateSplits)
	v.SetDefault("preserve_imports", defaults.PreserveImports)
	v.SetDefault("fusion.first_signal", defaults.Fusion.FirstSignal)
	v.SetDefault("fusion.additional_signal", defaults.Fusion.AdditionalSignal)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg SplitConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

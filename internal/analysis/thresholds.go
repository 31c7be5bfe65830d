package analysis

import (
	"fmt"

	"github.com/JustAGhosT/codeflow-engine/internal/config"
)

// EvaluateThresholds compares each structural metric against its
// configured limit. It is a pure function of (report, cfg) and is
// independent of AI and learning signals. Reasons name the breached
// metric with both values so they can be surfaced verbatim.
func EvaluateThresholds(report *ComplexityReport, cfg *config.SplitConfig) (bool, []string) {
	var reasons []string

	if cfg.MaxFileSizeBytes > 0 && report.SizeBytes > cfg.MaxFileSizeBytes {
		reasons = append(reasons, fmt.Sprintf("file size %d bytes exceeds limit %d", report.SizeBytes, cfg.MaxFileSizeBytes))
	}
	if cfg.MaxLinesPerFile > 0 && report.LineCount > cfg.MaxLinesPerFile {
		reasons = append(reasons, fmt.Sprintf("line count %d exceeds limit %d", report.LineCount, cfg.MaxLinesPerFile))
	}
	if cfg.MaxFunctionsPerFile > 0 && report.FunctionCount > cfg.MaxFunctionsPerFile {
		reasons = append(reasons, fmt.Sprintf("function count %d exceeds limit %d", report.FunctionCount, cfg.MaxFunctionsPerFile))
	}
	if cfg.MaxClassesPerFile > 0 && report.ClassCount > cfg.MaxClassesPerFile {
		reasons = append(reasons, fmt.Sprintf("class count %d exceeds limit %d", report.ClassCount, cfg.MaxClassesPerFile))
	}
	if cfg.MaxCyclomaticComplexity > 0 && report.Cyclomatic > cfg.MaxCyclomaticComplexity {
		reasons = append(reasons, fmt.Sprintf("cyclomatic complexity %d exceeds limit %d", report.Cyclomatic, cfg.MaxCyclomaticComplexity))
	}
	if cfg.MaxCognitiveComplexity > 0 && report.Cognitive > cfg.MaxCognitiveComplexity {
		reasons = append(reasons, fmt.Sprintf("cognitive complexity %d exceeds limit %d", report.Cognitive, cfg.MaxCognitiveComplexity))
	}

	return len(reasons) > 0, reasons
}

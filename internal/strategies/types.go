// Package strategies implements the candidate-generation half of a
// split: given a source file, its complexity report and a decision,
// each splitter produces an ordered sequence of output components
// without touching the filesystem.
package strategies

import (
	"github.com/JustAGhosT/codeflow-engine/internal/analysis"
	"github.com/JustAGhosT/codeflow-engine/internal/config"
	"github.com/JustAGhosT/codeflow-engine/internal/decision"
)

// Component is one candidate output file: a contiguous,
// order-preserving subset of the original file's top-level entities.
type Component struct {
	Name      string   `json:"name"`
	Content   string   `json:"content"`
	Entities  []string `json:"entities"`
	Oversized bool     `json:"oversized,omitempty"`
}

// Splitter produces components for one strategy. Components are emitted
// in original source order, and no function or class body is ever split
// across two components.
type Splitter interface {
	Split(src analysis.SourceFile, report *analysis.ComplexityReport, dec *decision.Decision) ([]Component, error)
}

// ForStrategy returns the splitter implementing the decided strategy.
// Unknown strategies fall back to the module-based pass-through.
func ForStrategy(s decision.Strategy, cfg *config.SplitConfig) Splitter {
	switch s {
	case decision.StrategyClassBased:
		return &ClassBasedSplitter{cfg: cfg}
	case decision.StrategyFunctionBased:
		return &FunctionBasedSplitter{cfg: cfg}
	case decision.StrategySectionBased:
		return &SectionBasedSplitter{cfg: cfg}
	default:
		return &ModuleBasedSplitter{}
	}
}

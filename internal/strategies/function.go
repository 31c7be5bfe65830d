package strategies

import (
	"fmt"

	"github.com/JustAGhosT/codeflow-engine/internal/analysis"
	"github.com/JustAGhosT/codeflow-engine/internal/config"
	"github.com/JustAGhosT/codeflow-engine/internal/decision"
)

// FunctionBasedSplitter groups top-level functions (methods included)
// into components bounded by max_functions_per_file, preserving
// declaration order. Non-function module content lands in the first
// component.
type FunctionBasedSplitter struct {
	cfg *config.SplitConfig
}

func (s *FunctionBasedSplitter) Split(src analysis.SourceFile, report *analysis.ComplexityReport, dec *decision.Decision) ([]Component, error) {
	layout, err := parseLayout(src)
	if err != nil {
		return nil, err
	}

	perFile := s.cfg.MaxFunctionsPerFile
	if perFile <= 0 {
		perFile = len(layout.decls)
	}

	var groups [][]declSpan
	var current []declSpan
	functionsInCurrent := 0

	for _, span := range layout.decls {
		isFunc := span.kind == kindFunc || span.kind == kindMethod
		if isFunc && functionsInCurrent >= perFile {
			groups = append(groups, current)
			current = nil
			functionsInCurrent = 0
		}
		if !isFunc && len(groups) > 0 {
			// Non-function content belongs in the first component; a
			// later occurrence would reorder statements, so give up on
			// grouping and pass through.
			return (&ModuleBasedSplitter{}).Split(src, report, dec)
		}
		current = append(current, span)
		if isFunc {
			functionsInCurrent++
		}
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}

	if len(groups) <= 1 {
		return (&ModuleBasedSplitter{}).Split(src, report, dec)
	}

	base := baseName(src.Path)
	components := make([]Component, 0, len(groups))
	for i, group := range groups {
		name := fmt.Sprintf("%s_part%d.go", base, i+1)
		components = append(components, buildComponent(layout, name, group, s.cfg))
	}
	return components, nil
}

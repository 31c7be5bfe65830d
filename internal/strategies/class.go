package strategies

import (
	"fmt"
	"sort"
	"strings"

	"github.com/JustAGhosT/codeflow-engine/internal/analysis"
	"github.com/JustAGhosT/codeflow-engine/internal/config"
	"github.com/JustAGhosT/codeflow-engine/internal/decision"
)

// ClassBasedSplitter emits one component per top-level type together
// with its methods. Free functions and remaining module-level
// declarations share a "module" component.
type ClassBasedSplitter struct {
	cfg *config.SplitConfig
}

func (s *ClassBasedSplitter) Split(src analysis.SourceFile, report *analysis.ComplexityReport, dec *decision.Decision) ([]Component, error) {
	layout, err := parseLayout(src)
	if err != nil {
		return nil, err
	}

	classGroups := make(map[string][]declSpan)
	var moduleGroup []declSpan

	typeNames := make(map[string]bool)
	for _, span := range layout.decls {
		if span.kind == kindType {
			typeNames[span.name] = true
		}
	}

	for _, span := range layout.decls {
		switch {
		case span.kind == kindType:
			classGroups[span.name] = append(classGroups[span.name], span)
		case span.kind == kindMethod && typeNames[span.receiver]:
			classGroups[span.receiver] = append(classGroups[span.receiver], span)
		default:
			moduleGroup = append(moduleGroup, span)
		}
	}

	if len(classGroups) == 0 {
		return (&ModuleBasedSplitter{}).Split(src, report, dec)
	}

	type namedGroup struct {
		className string
		spans     []declSpan
	}
	groups := make([]namedGroup, 0, len(classGroups)+1)
	for name, spans := range classGroups {
		groups = append(groups, namedGroup{className: name, spans: spans})
	}
	if len(moduleGroup) > 0 {
		groups = append(groups, namedGroup{spans: moduleGroup})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].spans[0].index < groups[j].spans[0].index
	})

	ordered := make([][]declSpan, len(groups))
	for i, g := range groups {
		ordered[i] = g.spans
	}
	if !orderPreserving(ordered) {
		// Entities interleave in a way no per-class partition can
		// reproduce statement order; pass through rather than reorder.
		return (&ModuleBasedSplitter{}).Split(src, report, dec)
	}

	base := baseName(src.Path)
	components := make([]Component, 0, len(groups))
	for _, g := range groups {
		name := fmt.Sprintf("%s_module.go", base)
		if g.className != "" {
			name = fmt.Sprintf("%s_%s.go", base, strings.ToLower(g.className))
		}
		components = append(components, buildComponent(layout, name, g.spans, s.cfg))
	}
	return components, nil
}

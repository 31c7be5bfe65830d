package strategies

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/JustAGhosT/codeflow-engine/internal/analysis"
	"github.com/JustAGhosT/codeflow-engine/internal/config"
	"github.com/JustAGhosT/codeflow-engine/internal/decision"
)

var sectionTitleRE = regexp.MustCompile(`[A-Za-z][A-Za-z0-9 _-]*`)

// SectionBasedSplitter splits at recognized banner comments. It is
// line-oriented by design: a banner inside a raw string or a function
// body will cut that entity in half, which post-split validation
// catches and rolls back.
type SectionBasedSplitter struct {
	cfg *config.SplitConfig
}

func (s *SectionBasedSplitter) Split(src analysis.SourceFile, report *analysis.ComplexityReport, dec *decision.Decision) ([]Component, error) {
	lines := strings.Split(src.Content, "\n")

	var boundaries []int
	for i, line := range lines {
		if analysis.IsSectionDelimiter(line) {
			boundaries = append(boundaries, i)
		}
	}
	if len(boundaries) == 0 {
		return (&ModuleBasedSplitter{}).Split(src, report, dec)
	}

	layout, err := parseLayout(src)
	if err != nil {
		return nil, err
	}

	header := layout.packageClause + "\n"
	if layout.importBlock != "" {
		header += "\n" + layout.importBlock + "\n"
	}

	base := baseName(src.Path)
	used := make(map[string]bool)
	var components []Component
	appendSection := func(start, end int, title string) {
		content := strings.Join(lines[start:end], "\n")
		if strings.TrimSpace(content) == "" {
			return
		}
		// A segment starting at the top of the file already carries the
		// package clause and import block.
		if start > 0 {
			content = header + "\n" + content
		}
		if !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		name := fmt.Sprintf("%s_%s.go", base, title)
		// Repeated banner titles must not collide on disk.
		for i := 2; used[name]; i++ {
			name = fmt.Sprintf("%s_%s_%d.go", base, title, i)
		}
		used[name] = true
		components = append(components, Component{
			Name:     name,
			Content:  content,
			Entities: []string{title},
		})
	}

	prev := 0
	for i, boundary := range boundaries {
		if i == 0 {
			appendSection(0, boundary, "header")
		} else {
			appendSection(prev, boundary, sectionTitle(lines[prev], i))
		}
		prev = boundary
	}
	appendSection(prev, len(lines), sectionTitle(lines[prev], len(boundaries)))

	if len(components) <= 1 {
		return (&ModuleBasedSplitter{}).Split(src, report, dec)
	}

	for i := range components {
		if exceedsComponentLimits(s.cfg, components[i].Content) {
			components[i].Oversized = true
		}
	}
	return components, nil
}

// sectionTitle derives a file-name fragment from a banner comment line,
// falling back to a positional name.
func sectionTitle(bannerLine string, index int) string {
	title := strings.TrimPrefix(strings.TrimSpace(bannerLine), "//")
	title = strings.Trim(title, " =-═")
	title = strings.TrimPrefix(title, "MARK:")
	if m := sectionTitleRE.FindString(title); m != "" {
		cleaned := strings.ToLower(strings.TrimSpace(m))
		cleaned = strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
				return r
			default:
				return '_'
			}
		}, cleaned)
		if cleaned != "" && cleaned != "_" {
			return cleaned
		}
	}
	return fmt.Sprintf("section%d", index)
}

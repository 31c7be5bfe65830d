package strategies

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"

	"github.com/JustAGhosT/codeflow-engine/internal/analysis"
	"github.com/JustAGhosT/codeflow-engine/internal/config"
)

type declKind int

const (
	kindFunc declKind = iota
	kindMethod
	kindType
	kindOther // var, const, grouped decls
)

// declSpan is one top-level declaration with its original source text
// (doc comment included) and the package qualifiers it references.
type declSpan struct {
	index    int
	kind     declKind
	name     string
	receiver string
	text     string
	refs     map[string]bool
}

// entity returns the label used in Component.Entities.
func (d declSpan) entity() string {
	if d.kind == kindMethod {
		return d.receiver + "." + d.name
	}
	return d.name
}

// fileLayout is the parsed top-level structure of a source file, the
// shared input of every splitter.
type fileLayout struct {
	packageName   string
	packageClause string
	importBlock   string // original import declaration text, "" when none
	imports       []analysis.ImportDecl
	decls         []declSpan
}

// parseLayout splits a file into its top-level declaration spans.
func parseLayout(src analysis.SourceFile) (*fileLayout, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, src.Path, src.Content, parser.ParseComments)
	if err != nil {
		return nil, &analysis.ParseError{Path: src.Path, Err: err}
	}

	offset := func(pos token.Pos) int {
		return fset.Position(pos).Offset
	}

	layout := &fileLayout{
		packageName:   file.Name.Name,
		packageClause: "package " + file.Name.Name,
	}

	var importTexts []string
	index := 0
	for _, decl := range file.Decls {
		if gd, ok := decl.(*ast.GenDecl); ok && gd.Tok == token.IMPORT {
			start := gd.Pos()
			if gd.Doc != nil {
				start = gd.Doc.Pos()
			}
			importTexts = append(importTexts, src.Content[offset(start):offset(gd.End())])
			for _, spec := range gd.Specs {
				imp, ok := spec.(*ast.ImportSpec)
				if !ok {
					continue
				}
				id := analysis.ImportDecl{Path: strings.Trim(imp.Path.Value, `"`)}
				if imp.Name != nil {
					id.Name = imp.Name.Name
				}
				layout.imports = append(layout.imports, id)
			}
			continue
		}

		span := declSpan{index: index, refs: make(map[string]bool)}
		index++

		start := decl.Pos()
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Doc != nil {
				start = d.Doc.Pos()
			}
			span.name = d.Name.Name
			if recv := receiverName(d); recv != "" {
				span.kind = kindMethod
				span.receiver = recv
			} else {
				span.kind = kindFunc
			}
		case *ast.GenDecl:
			if d.Doc != nil {
				start = d.Doc.Pos()
			}
			span.kind = kindOther
			if d.Tok == token.TYPE {
				span.kind = kindType
			}
			span.name = genDeclName(d)
		default:
			span.name = fmt.Sprintf("decl%d", span.index)
			span.kind = kindOther
		}

		span.text = src.Content[offset(start):offset(decl.End())]
		collectQualifiers(decl, span.refs)
		layout.decls = append(layout.decls, span)
	}

	layout.importBlock = strings.Join(importTexts, "\n")
	return layout, nil
}

func receiverName(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return ""
	}
	t := fn.Recv.List[0].Type
	if star, ok := t.(*ast.StarExpr); ok {
		t = star.X
	}
	if idx, ok := t.(*ast.IndexExpr); ok {
		t = idx.X
	}
	if ident, ok := t.(*ast.Ident); ok {
		return ident.Name
	}
	return ""
}

func genDeclName(d *ast.GenDecl) string {
	for _, spec := range d.Specs {
		switch s := spec.(type) {
		case *ast.TypeSpec:
			return s.Name.Name
		case *ast.ValueSpec:
			if len(s.Names) > 0 {
				return s.Names[0].Name
			}
		}
	}
	return d.Tok.String()
}

// collectQualifiers records every pkg.Sel qualifier in the declaration,
// used to decide which imports a component must carry. Matching by
// identifier name over-approximates when a local shadows a package
// name; the cost is an extra carried import, never a missing one.
func collectQualifiers(decl ast.Decl, refs map[string]bool) {
	ast.Inspect(decl, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		if ident, ok := sel.X.(*ast.Ident); ok {
			refs[ident.Name] = true
		}
		return true
	})
}

// buildComponent assembles one output file from a group of declaration
// spans, in span order.
func buildComponent(layout *fileLayout, name string, spans []declSpan, cfg *config.SplitConfig) Component {
	var sb strings.Builder
	sb.WriteString(layout.packageClause)
	sb.WriteString("\n")

	if imports := componentImports(layout, spans, cfg.PreserveImports); imports != "" {
		sb.WriteString("\n")
		sb.WriteString(imports)
		sb.WriteString("\n")
	}

	entities := make([]string, 0, len(spans))
	for _, span := range spans {
		sb.WriteString("\n")
		sb.WriteString(span.text)
		sb.WriteString("\n")
		entities = append(entities, span.entity())
	}

	comp := Component{
		Name:     name,
		Content:  sb.String(),
		Entities: entities,
	}
	if len(spans) == 1 && exceedsComponentLimits(cfg, comp.Content) {
		comp.Oversized = true
	}
	return comp
}

// componentImports renders the import block for a component. With
// preserve_imports enabled only the specs the component references are
// carried (dot and blank imports always are); otherwise the original
// block is copied verbatim.
func componentImports(layout *fileLayout, spans []declSpan, preserve bool) string {
	if len(layout.imports) == 0 {
		return ""
	}
	if !preserve {
		return layout.importBlock
	}

	refs := make(map[string]bool)
	for _, span := range spans {
		for q := range span.refs {
			refs[q] = true
		}
	}

	var specs []string
	for _, imp := range layout.imports {
		switch {
		case imp.Name == "_" || imp.Name == ".":
			// Side-effect and dot imports cannot be attributed to a
			// qualifier; carry them everywhere.
		case !refs[imp.LocalName()]:
			continue
		}
		if imp.Name != "" {
			specs = append(specs, fmt.Sprintf("%s %q", imp.Name, imp.Path))
		} else {
			specs = append(specs, fmt.Sprintf("%q", imp.Path))
		}
	}

	switch len(specs) {
	case 0:
		return ""
	case 1:
		return "import " + specs[0]
	default:
		return "import (\n\t" + strings.Join(specs, "\n\t") + "\n)"
	}
}

// exceedsComponentLimits reports whether a single-entity component is
// over the configured per-file limits. Such components are emitted
// whole and flagged, never truncated.
func exceedsComponentLimits(cfg *config.SplitConfig, content string) bool {
	if cfg.MaxFileSizeBytes > 0 && len(content) > cfg.MaxFileSizeBytes {
		return true
	}
	if cfg.MaxLinesPerFile > 0 && strings.Count(content, "\n") > cfg.MaxLinesPerFile {
		return true
	}
	return false
}

// orderPreserving reports whether concatenating the groups in order
// reproduces the original declaration sequence.
func orderPreserving(groups [][]declSpan) bool {
	prev := -1
	for _, group := range groups {
		for _, span := range group {
			if span.index <= prev {
				return false
			}
			prev = span.index
		}
	}
	return true
}

// baseName strips the directory and .go suffix from a path for use in
// component file names.
func baseName(path string) string {
	base := path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	return strings.TrimSuffix(base, ".go")
}

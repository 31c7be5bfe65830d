package analysis

import (
	"go/ast"
	"go/parser"
	"go/token"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/JustAGhosT/codeflow-engine/internal/metrics"
)

// sectionDelimiterRE matches banner comments used to mark logical
// sections inside a file (shared with the section-based splitter).
var sectionDelimiterRE = regexp.MustCompile(`^\s*//\s*(={3,}|-{3,}|═{3,}|MARK:)`)

// IsSectionDelimiter reports whether a source line is a recognized
// section banner comment.
func IsSectionDelimiter(line string) bool {
	return sectionDelimiterRE.MatchString(line)
}

// Analyzer parses Go source and computes structural and complexity
// metrics. Reports are cached by content hash; the cache is read-through
// and tolerates duplicate computation under concurrent use.
type Analyzer struct {
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[string]*ComplexityReport
}

// NewAnalyzer creates an analyzer. A nil logger falls back to a no-op.
func NewAnalyzer(logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		logger: logger,
		cache:  make(map[string]*ComplexityReport),
	}
}

// Analyze returns the complexity report for the given content,
// computing it at most once per content hash under sequential use.
// Invalid source yields a *ParseError.
func (a *Analyzer) Analyze(path, content string) (*ComplexityReport, error) {
	src := NewSourceFile(path, content)

	a.mu.RLock()
	cached, ok := a.cache[src.Hash]
	a.mu.RUnlock()
	if ok {
		metrics.RecordAnalysisCache(true)
		return cached, nil
	}
	metrics.RecordAnalysisCache(false)

	report, err := a.compute(src)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.cache[src.Hash] = report
	a.mu.Unlock()

	a.logger.Debug("Analyzed source file",
		zap.String("path", path),
		zap.Int("lines", report.LineCount),
		zap.Int("functions", report.FunctionCount),
		zap.Int("classes", report.ClassCount),
		zap.Int("cyclomatic", report.Cyclomatic),
		zap.Int("cognitive", report.Cognitive),
	)
	return report, nil
}

// compute performs the single structural pass over the parsed file.
func (a *Analyzer) compute(src SourceFile) (*ComplexityReport, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, src.Path, src.Content, parser.ParseComments)
	if err != nil {
		return nil, &ParseError{Path: src.Path, Err: err}
	}

	report := &ComplexityReport{
		Path:      src.Path,
		Hash:      src.Hash,
		SizeBytes: len(src.Content),
		LineCount: countLines(src.Content),
		Parsed:    true,
	}

	for _, line := range strings.Split(src.Content, "\n") {
		if IsSectionDelimiter(line) {
			report.SectionCount++
		}
	}

	for _, imp := range file.Imports {
		decl := ImportDecl{Path: strings.Trim(imp.Path.Value, `"`)}
		if imp.Name != nil {
			decl.Name = imp.Name.Name
		}
		report.Imports = append(report.Imports, decl)
	}

	classes := make(map[string]*ClassMetric)
	var classOrder []string

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				cm := &ClassMetric{
					Name:  ts.Name.Name,
					Lines: lineSpan(fset, d.Pos(), d.End()),
				}
				classes[ts.Name.Name] = cm
				classOrder = append(classOrder, ts.Name.Name)
				report.ClassCount++
			}

		case *ast.FuncDecl:
			fm := FunctionMetric{
				Name:       d.Name.Name,
				Receiver:   receiverTypeName(d),
				Lines:      lineSpan(fset, d.Pos(), d.End()),
				Cyclomatic: cyclomaticComplexity(d),
				Cognitive:  cognitiveComplexity(d),
			}
			report.Functions = append(report.Functions, fm)

			if fm.Cyclomatic > report.Cyclomatic {
				report.Cyclomatic = fm.Cyclomatic
			}
			if fm.Cognitive > report.Cognitive {
				report.Cognitive = fm.Cognitive
			}

			if fm.Receiver == "" {
				report.FunctionCount++
				continue
			}
			report.MethodCount++
			if cm, ok := classes[fm.Receiver]; ok {
				cm.MethodCount++
				cm.Lines += fm.Lines
				if fm.Cyclomatic > cm.Cyclomatic {
					cm.Cyclomatic = fm.Cyclomatic
				}
				if fm.Cognitive > cm.Cognitive {
					cm.Cognitive = fm.Cognitive
				}
			}
		}
	}

	for _, name := range classOrder {
		report.Classes = append(report.Classes, *classes[name])
	}

	return report, nil
}

// receiverTypeName extracts the receiver's base type name, or "" for a
// free function.
func receiverTypeName(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return ""
	}
	switch t := fn.Recv.List[0].Type.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		switch x := t.X.(type) {
		case *ast.Ident:
			return x.Name
		case *ast.IndexExpr: // generic receiver
			if ident, ok := x.X.(*ast.Ident); ok {
				return ident.Name
			}
		}
	case *ast.IndexExpr:
		if ident, ok := t.X.(*ast.Ident); ok {
			return ident.Name
		}
	}
	return ""
}

// cyclomaticComplexity is one plus the number of independent decision
// points in the function body.
func cyclomaticComplexity(fn *ast.FuncDecl) int {
	complexity := 1
	if fn.Body == nil {
		return complexity
	}

	ast.Inspect(fn.Body, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.IfStmt:
			complexity++
		case *ast.ForStmt, *ast.RangeStmt:
			complexity++
		case *ast.CaseClause:
			if len(node.List) > 0 {
				complexity++
			}
		case *ast.CommClause:
			if node.Comm != nil {
				complexity++
			}
		case *ast.BinaryExpr:
			if node.Op == token.LAND || node.Op == token.LOR {
				complexity++
			}
		}
		return true
	})
	return complexity
}

// cognitiveComplexity weights each control structure by its nesting
// depth, so deeply nested code scores higher than a flat sequence of
// the same structures. Boolean short-circuit operators add a flat +1.
func cognitiveComplexity(fn *ast.FuncDecl) int {
	if fn.Body == nil {
		return 0
	}

	var score int

	countBoolOps := func(e ast.Expr) {
		if e == nil {
			return
		}
		ast.Inspect(e, func(n ast.Node) bool {
			if be, ok := n.(*ast.BinaryExpr); ok && (be.Op == token.LAND || be.Op == token.LOR) {
				score++
			}
			return true
		})
	}

	var walkStmt func(s ast.Stmt, depth int)
	walkBody := func(b *ast.BlockStmt, depth int) {
		if b == nil {
			return
		}
		for _, s := range b.List {
			walkStmt(s, depth)
		}
	}
	walkStmt = func(s ast.Stmt, depth int) {
		switch st := s.(type) {
		case *ast.IfStmt:
			score += 1 + depth
			countBoolOps(st.Cond)
			walkBody(st.Body, depth+1)
			switch e := st.Else.(type) {
			case *ast.IfStmt:
				// else-if chains read flat; walked at the same depth.
				walkStmt(e, depth)
			case *ast.BlockStmt:
				score++
				walkBody(e, depth+1)
			}
		case *ast.ForStmt:
			score += 1 + depth
			countBoolOps(st.Cond)
			walkBody(st.Body, depth+1)
		case *ast.RangeStmt:
			score += 1 + depth
			walkBody(st.Body, depth+1)
		case *ast.SwitchStmt:
			score += 1 + depth
			for _, c := range st.Body.List {
				if cc, ok := c.(*ast.CaseClause); ok {
					for _, body := range cc.Body {
						walkStmt(body, depth+1)
					}
				}
			}
		case *ast.TypeSwitchStmt:
			score += 1 + depth
			for _, c := range st.Body.List {
				if cc, ok := c.(*ast.CaseClause); ok {
					for _, body := range cc.Body {
						walkStmt(body, depth+1)
					}
				}
			}
		case *ast.SelectStmt:
			score += 1 + depth
			for _, c := range st.Body.List {
				if cc, ok := c.(*ast.CommClause); ok {
					for _, body := range cc.Body {
						walkStmt(body, depth+1)
					}
				}
			}
		case *ast.BlockStmt:
			walkBody(st, depth)
		case *ast.LabeledStmt:
			walkStmt(st.Stmt, depth)
		case *ast.DeferStmt:
			countBoolOps(st.Call)
		case *ast.GoStmt:
			countBoolOps(st.Call)
		case *ast.ReturnStmt:
			for _, r := range st.Results {
				countBoolOps(r)
			}
		case *ast.AssignStmt:
			for _, r := range st.Rhs {
				countBoolOps(r)
			}
		case *ast.ExprStmt:
			countBoolOps(st.X)
		}
	}
	walkBody(fn.Body, 0)
	return score
}

func lineSpan(fset *token.FileSet, start, end token.Pos) int {
	return fset.Position(end).Line - fset.Position(start).Line + 1
}

func countLines(content string) int {
	if content == "" {
		return 0
	}
	n := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		n++
	}
	return n
}

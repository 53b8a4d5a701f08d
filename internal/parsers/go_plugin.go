package parsers

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
	"unicode"

	"github.com/codesearch/hybrid-search/internal/meta"
)

// goPlugin parses Go source with the standard library's go/ast rather
// than a tree-sitter grammar: go/parser is always present, needs no cgo
// grammar binding, and exposes doc comments directly.
type goPlugin struct{}

func newGoPlugin() Plugin { return goPlugin{} }

func (goPlugin) Language() string     { return "go" }
func (goPlugin) Extensions() []string { return []string{"go"} }

func (goPlugin) Parse(source []byte) (AST, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", source, parser.ParseComments)
	if err != nil {
		return nil, err
	}
	return &goAST{fset: fset, file: file, source: source}, nil
}

type goAST struct {
	fset   *token.FileSet
	file   *ast.File
	source []byte
}

func (a *goAST) Close() {}

func (a *goAST) line(pos token.Pos) int {
	return a.fset.Position(pos).Line
}

func (a *goAST) Boundaries() []Boundary {
	var out []Boundary
	typeMethods := map[string][]Boundary{}
	var order []string

	for _, decl := range a.file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			b := a.funcBoundary(d)
			if d.Recv != nil && len(d.Recv.List) > 0 {
				recv := receiverTypeName(d.Recv.List[0].Type)
				b.SymbolType = string(meta.SymbolMethod)
				b.ParentScope = recv
				if _, ok := typeMethods[recv]; !ok {
					order = append(order, recv)
				}
				typeMethods[recv] = append(typeMethods[recv], b)
				continue
			}
			out = append(out, b)
		case *ast.GenDecl:
			out = append(out, a.genDeclBoundaries(d)...)
		}
	}

	// Attach methods to their receiver type's boundary, synthesizing a
	// container boundary when the type itself wasn't found among out
	// (e.g. an unexported struct whose declaration lives in another file).
	byName := map[string]int{}
	for i, b := range out {
		byName[b.Name] = i
	}
	for _, recv := range order {
		if idx, ok := byName[recv]; ok {
			out[idx].Children = append(out[idx].Children, typeMethods[recv]...)
			continue
		}
		out = append(out, Boundary{
			Name:       recv,
			SymbolType: string(meta.SymbolClass),
			Children:   typeMethods[recv],
			IsExported: isExportedGoName(recv),
		})
	}
	return out
}

func receiverTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverTypeName(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		return receiverTypeName(t.X)
	case *ast.IndexListExpr:
		return receiverTypeName(t.X)
	default:
		return ""
	}
}

func isExportedGoName(name string) bool {
	if name == "" {
		return false
	}
	return unicode.IsUpper([]rune(name)[0])
}

func (a *goAST) funcBoundary(d *ast.FuncDecl) Boundary {
	start := a.line(d.Pos())
	end := a.line(d.End())
	sigEnd := start
	if d.Body != nil {
		sigEnd = a.line(d.Body.Lbrace)
	}
	return Boundary{
		Name:             d.Name.Name,
		StartLine:        start,
		EndLine:          end,
		SignatureEndLine: sigEnd,
		SymbolType:       string(meta.SymbolFunction),
		IsExported:       d.Name.IsExported(),
		HasDoc:           d.Doc != nil && len(d.Doc.List) > 0,
		Complexity:       goComplexity(d.Body),
	}
}

// genDeclBoundaries handles top-level type/const/var groups. Each spec
// within a group becomes its own boundary so that `type (A struct{}; B
// struct{})` yields two chunks: multi-spec GenDecls are independent
// symbols for search purposes.
func (a *goAST) genDeclBoundaries(d *ast.GenDecl) []Boundary {
	var out []Boundary
	hasDoc := d.Doc != nil && len(d.Doc.List) > 0
	for _, spec := range d.Specs {
		switch s := spec.(type) {
		case *ast.TypeSpec:
			symType := meta.SymbolType_
			var variant meta.Variant
			if _, ok := s.Type.(*ast.InterfaceType); ok {
				variant = meta.VariantInterface
			}
			if _, ok := s.Type.(*ast.StructType); ok {
				symType = meta.SymbolClass
			}
			out = append(out, Boundary{
				Name:       s.Name.Name,
				StartLine:  a.line(s.Pos()),
				EndLine:    a.line(s.End()),
				SymbolType: string(symType),
				Variant:    string(variant),
				IsExported: s.Name.IsExported(),
				HasDoc:     hasDoc || (s.Doc != nil && len(s.Doc.List) > 0),
			})
		case *ast.ValueSpec:
			symType := meta.SymbolVariable
			var variant meta.Variant
			if d.Tok == token.CONST {
				variant = meta.VariantConstant
			}
			for _, name := range s.Names {
				if name.Name == "_" {
					continue
				}
				out = append(out, Boundary{
					Name:       name.Name,
					StartLine:  a.line(s.Pos()),
					EndLine:    a.line(s.End()),
					SymbolType: string(symType),
					Variant:    string(variant),
					IsExported: name.IsExported(),
					HasDoc:     hasDoc,
				})
			}
		}
	}
	return out
}

// goComplexity is a cyclomatic count over the function body: base 1, plus
// one for every branching statement or boolean operator, plus two for a
// switch statement itself on top of its per-case clauses.
func goComplexity(body *ast.BlockStmt) int {
	count := 1
	if body == nil {
		return count
	}
	ast.Inspect(body, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.IfStmt, *ast.ForStmt, *ast.RangeStmt, *ast.CaseClause,
			*ast.CommClause:
			count++
		case *ast.SwitchStmt, *ast.TypeSwitchStmt:
			count += 2
		case *ast.BinaryExpr:
			if node.Op == token.LAND || node.Op == token.LOR {
				count++
			}
		}
		return true
	})
	return count
}

func (a *goAST) Imports() []ImportDecl {
	var out []ImportDecl
	for _, imp := range a.file.Imports {
		path := strings.Trim(imp.Path.Value, `"`)
		name := path
		if imp.Name != nil {
			name = imp.Name.Name
		} else if idx := strings.LastIndex(path, "/"); idx >= 0 {
			name = path[idx+1:]
		}
		out = append(out, ImportDecl{
			Module:      path,
			Identifiers: []string{name},
			Line:        a.line(imp.Pos()),
		})
	}
	return out
}

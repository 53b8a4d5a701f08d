package parsers

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codesearch/hybrid-search/internal/meta"
)

// grammarSpec maps one language's tree-sitter node kinds onto the universal
// SymbolType/Variant vocabulary. Every concrete language file in this
// package (python.go, typescript.go, ...) builds one of these and hands it
// to newTreeSitterPlugin; the walk, complexity, and doc-comment logic below
// is shared, so the per-language plugins don't repeat the
// same walkTree/findChildByType shape with only the node-kind strings
// changing (see the upstream tree-sitter grammar bindings).
type grammarSpec struct {
	// topLevel maps a node kind to the SymbolType/Variant it represents when
	// found as a direct (or decorator-wrapped / export-wrapped) child of the
	// file or of a container's body.
	topLevel map[string]symbolClass

	// containerKinds are node kinds whose body should be walked a second
	// time for nested members (methods inside a class).
	containerKinds map[string]bool

	// memberKinds maps a node kind found inside a container body to its
	// SymbolType/Variant, usually "method".
	memberKinds map[string]symbolClass

	// bodyField is the field name holding a container's member list
	// ("body" for most grammars).
	bodyField string

	// wrapperKinds are node kinds that wrap a real declaration without
	// being one themselves (JS/TS "export_statement"). Boundaries unwrap
	// through them. Python's "decorated_definition" is not listed here;
	// unwrapDecorators handles it.
	wrapperKinds map[string]bool

	// nameField is the field holding a declaration's name, tried when the
	// standard "name" field is absent (C uses "declarator").
	nameField string

	// branchKinds increments cyclomatic complexity by one each time seen
	// inside a boundary's subtree. Comprehension guard clauses belong here
	// too (a guarded comprehension adds one).
	branchKinds map[string]bool
	// switchKinds increments complexity by two: the switch/match statement
	// itself costs two on top of the per-case branchKinds entries.
	switchKinds map[string]bool
	// booleanOperatorTexts increments complexity when an operator node's
	// text matches (&&, ||, and, or).
	booleanOperatorTexts map[string]bool

	commentKinds map[string]bool
	docstringKinds map[string]bool // Python-style first-statement-is-string docstrings

	decoratorNodeKind string // "decorator" (python, java annotations differ)

	isExported func(node *sitter.Node, source []byte) bool
	isAsync    func(node *sitter.Node, source []byte) bool
	isStatic   func(node *sitter.Node, source []byte) bool
	isAbstract func(node *sitter.Node, source []byte) bool

	importKinds map[string]bool
	importModuleField string

	commentPrefixStrip string // "#", "//", "/*"

	// arrowDeclKind is a statement kind (JS/TS "lexical_declaration",
	// "variable_declaration") that is only a boundary when its first
	// declarator's initializer is itself a function/arrow_function.
	arrowDeclKind      string
	declaratorKind     string // "variable_declarator"
	functionValueKinds map[string]bool
}

type symbolClass struct {
	symbolType meta.SymbolType
	variant    meta.Variant
}

type treeSitterPlugin struct {
	language   string
	extensions []string
	grammar    *sitter.Language
	spec       grammarSpec
}

func newTreeSitterPlugin(language string, extensions []string, grammar *sitter.Language, spec grammarSpec) *treeSitterPlugin {
	return &treeSitterPlugin{language: language, extensions: extensions, grammar: grammar, spec: spec}
}

func (p *treeSitterPlugin) Language() string     { return p.language }
func (p *treeSitterPlugin) Extensions() []string { return p.extensions }

func (p *treeSitterPlugin) Parse(source []byte) (AST, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(p.grammar)
	tree := parser.Parse(source, nil)
	if tree == nil {
		parser.Close()
		return nil, &parseFailure{language: p.language}
	}
	return &treeSitterAST{tree: tree, parser: parser, source: source, spec: p.spec}, nil
}

type parseFailure struct{ language string }

func (e *parseFailure) Error() string { return "tree-sitter failed to produce a parse tree for " + e.language }

type treeSitterAST struct {
	tree   *sitter.Tree
	parser *sitter.Parser
	source []byte
	spec   grammarSpec
}

func (a *treeSitterAST) Close() {
	a.tree.Close()
	a.parser.Close()
}

func (a *treeSitterAST) Boundaries() []Boundary {
	root := a.tree.RootNode()
	var out []Boundary
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(uint(i))
		if b, ok := a.classify(child, "", 0); ok {
			out = append(out, b)
		}
	}
	return out
}

// classify attempts to turn node (or the real declaration it wraps) into a
// Boundary. Decorators and export wrappers are unwrapped first.
func (a *treeSitterAST) classify(node *sitter.Node, parentScope string, depth int) (Boundary, bool) {
	decorators, inner := a.unwrapDecorators(node)
	real := a.unwrapExport(inner)

	class, ok := a.spec.topLevel[real.Kind()]
	var declarator *sitter.Node
	if !ok {
		declarator, class, ok = a.matchArrowDeclaration(real)
		if !ok {
			return Boundary{}, false
		}
		real = declarator.ChildByFieldName("value")
	}

	name := a.fieldText(real, "name")
	if name == "" {
		name = a.fieldText(real, a.spec.nameField)
	}
	if declarator != nil {
		name = a.fieldText(declarator, "name")
	}

	b := Boundary{
		Node:             node,
		Name:             name,
		StartLine:        int(node.StartPosition().Row) + 1,
		EndLine:          int(node.EndPosition().Row) + 1,
		SignatureEndLine: a.signatureEndLine(real),
		SymbolType:       string(class.symbolType),
		Variant:          string(class.variant),
		Decorators:       decorators,
		ParentScope:      parentScope,
		ScopeDepth:       depth,
		HasDoc:           len(decorators) > 0 || a.hasLeadingComment(node) || a.hasDocstring(real),
	}
	if a.spec.isExported != nil {
		b.IsExported = a.spec.isExported(real, a.source)
	}
	if a.spec.isAsync != nil {
		b.IsAsync = a.spec.isAsync(real, a.source)
	}
	if a.spec.isStatic != nil {
		b.IsStatic = a.spec.isStatic(real, a.source)
	}
	if a.spec.isAbstract != nil {
		b.IsAbstract = a.spec.isAbstract(real, a.source)
	}
	b.Complexity = a.complexity(real)

	if a.spec.containerKinds[real.Kind()] {
		body := real.ChildByFieldName(a.spec.bodyField)
		if body != nil {
			for i := 0; i < int(body.ChildCount()); i++ {
				member := body.Child(uint(i))
				if mb, ok := a.classifyMember(member, name, depth+1); ok {
					b.Children = append(b.Children, mb)
				}
			}
		}
	}

	return b, true
}

func (a *treeSitterAST) classifyMember(node *sitter.Node, parentScope string, depth int) (Boundary, bool) {
	decorators, inner := a.unwrapDecorators(node)
	class, ok := a.spec.memberKinds[inner.Kind()]
	if !ok {
		return Boundary{}, false
	}
	name := a.fieldText(inner, "name")

	b := Boundary{
		Node:             node,
		Name:             name,
		StartLine:        int(node.StartPosition().Row) + 1,
		EndLine:          int(node.EndPosition().Row) + 1,
		SignatureEndLine: a.signatureEndLine(inner),
		SymbolType:       string(class.symbolType),
		Variant:          string(class.variant),
		Decorators:       decorators,
		ParentScope:      parentScope,
		ScopeDepth:       depth,
		HasDoc:           len(decorators) > 0 || a.hasLeadingComment(node) || a.hasDocstring(inner),
		Complexity:       a.complexity(inner),
	}
	if a.spec.isExported != nil {
		b.IsExported = a.spec.isExported(inner, a.source)
	}
	if a.spec.isAsync != nil {
		b.IsAsync = a.spec.isAsync(inner, a.source)
	}
	if a.spec.isStatic != nil {
		b.IsStatic = a.spec.isStatic(inner, a.source)
	}
	if a.spec.isAbstract != nil {
		b.IsAbstract = a.spec.isAbstract(inner, a.source)
	}
	return b, true
}

// matchArrowDeclaration recognizes "const foo = () => {}" style boundaries:
// a variable declaration whose first declarator's initializer is itself a
// function-like node.
func (a *treeSitterAST) matchArrowDeclaration(node *sitter.Node) (*sitter.Node, symbolClass, bool) {
	if a.spec.arrowDeclKind == "" || node.Kind() != a.spec.arrowDeclKind {
		return nil, symbolClass{}, false
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() != a.spec.declaratorKind {
			continue
		}
		value := child.ChildByFieldName("value")
		if value != nil && a.spec.functionValueKinds[value.Kind()] {
			return child, symbolClass{symbolType: meta.SymbolFunction, variant: meta.VariantArrow}, true
		}
	}
	return nil, symbolClass{}, false
}

func (a *treeSitterAST) unwrapDecorators(node *sitter.Node) ([]string, *sitter.Node) {
	if a.spec.decoratorNodeKind == "" || node.Kind() != "decorated_definition" {
		return nil, node
	}
	var decorators []string
	var def *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() == a.spec.decoratorNodeKind {
			text := a.text(child)
			text = strings.TrimPrefix(text, "@")
			decorators = append(decorators, "@"+strings.TrimSpace(strings.SplitN(text, "(", 2)[0]))
		} else {
			def = child
		}
	}
	if def == nil {
		def = node
	}
	return decorators, def
}

func (a *treeSitterAST) unwrapExport(node *sitter.Node) *sitter.Node {
	if !a.spec.wrapperKinds[node.Kind()] {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() != "export" && child.Kind() != "default" {
			return child
		}
	}
	return node
}

func (a *treeSitterAST) fieldText(node *sitter.Node, field string) string {
	if field == "" {
		return ""
	}
	n := node.ChildByFieldName(field)
	if n == nil {
		return ""
	}
	return a.text(n)
}

func (a *treeSitterAST) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(a.source[node.StartByte():node.EndByte()])
}

func (a *treeSitterAST) signatureEndLine(node *sitter.Node) int {
	body := node.ChildByFieldName(a.spec.bodyField)
	if body == nil {
		return int(node.StartPosition().Row) + 1
	}
	// The signature ends on the last line with non-blank text before the body.
	line := int(body.StartPosition().Row) + 1
	for i := int(body.StartByte()) - 1; i >= int(node.StartByte()); i-- {
		switch a.source[i] {
		case '\n':
			line--
		case ' ', '\t', '\r':
		default:
			return line
		}
	}
	return line
}

func (a *treeSitterAST) hasLeadingComment(node *sitter.Node) bool {
	prev := node.PrevSibling()
	return prev != nil && a.spec.commentKinds[prev.Kind()]
}

func (a *treeSitterAST) hasDocstring(node *sitter.Node) bool {
	if len(a.spec.docstringKinds) == 0 {
		return false
	}
	body := node.ChildByFieldName(a.spec.bodyField)
	if body == nil || body.ChildCount() == 0 {
		return false
	}
	first := body.Child(0)
	return a.spec.docstringKinds[first.Kind()]
}

// complexity walks node's subtree counting branch points, base 1.
func (a *treeSitterAST) complexity(node *sitter.Node) int {
	count := 1
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if a.spec.branchKinds[n.Kind()] {
			count++
		}
		if a.spec.switchKinds[n.Kind()] {
			count += 2
		}
		if a.spec.booleanOperatorTexts != nil && n.Kind() == "binary_expression" {
			op := n.ChildByFieldName("operator")
			if op != nil && a.spec.booleanOperatorTexts[a.text(op)] {
				count++
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(uint(i)))
		}
	}
	walk(node)
	return count
}

func (a *treeSitterAST) Imports() []ImportDecl {
	root := a.tree.RootNode()
	var out []ImportDecl
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if a.spec.importKinds[n.Kind()] {
			out = append(out, a.importDecl(n))
			return // imports don't nest
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(uint(i)))
		}
	}
	walk(root)
	return out
}

func (a *treeSitterAST) importDecl(node *sitter.Node) ImportDecl {
	module := a.fieldText(node, a.spec.importModuleField)
	module = strings.Trim(module, `"'`)

	var idents []string
	var collect func(n *sitter.Node)
	collect = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Kind() {
		case "identifier", "shorthand_property_identifier_pattern", "dotted_name":
			idents = append(idents, a.text(n))
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			collect(n.Child(uint(i)))
		}
	}
	collect(node)

	return ImportDecl{
		Module:      module,
		Identifiers: idents,
		Line:        int(node.StartPosition().Row) + 1,
	}
}

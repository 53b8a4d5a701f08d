package parsers

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"github.com/codesearch/hybrid-search/internal/meta"
)

func hasModifier(node *sitter.Node, source []byte, word string) bool {
	mods := node.ChildByFieldName("modifiers")
	if mods == nil {
		return false
	}
	text := string(source[mods.StartByte():mods.EndByte()])
	for _, tok := range strings.Fields(text) {
		if tok == word {
			return true
		}
	}
	return false
}

func newJavaPlugin() Plugin {
	grammar := sitter.NewLanguage(java.Language())

	spec := grammarSpec{
		topLevel: map[string]symbolClass{
			"method_declaration":    {symbolType: meta.SymbolFunction},
			"class_declaration":     {symbolType: meta.SymbolClass},
			"interface_declaration": {symbolType: meta.SymbolType_, variant: meta.VariantInterface},
			"enum_declaration":      {symbolType: meta.SymbolEnum},
			"record_declaration":    {symbolType: meta.SymbolClass, variant: meta.VariantDataclass},
		},
		containerKinds: map[string]bool{"class_declaration": true, "interface_declaration": true, "enum_declaration": true},
		memberKinds: map[string]symbolClass{
			"method_declaration":      {symbolType: meta.SymbolMethod},
			"constructor_declaration": {symbolType: meta.SymbolMethod},
		},
		bodyField:         "body",
		nameField:         "name",
		decoratorNodeKind: "annotation",
		branchKinds: map[string]bool{
			"if_statement": true, "for_statement": true, "enhanced_for_statement": true,
			"while_statement": true, "do_statement": true, "catch_clause": true,
			"switch_label": true, "ternary_expression": true,
		},
		switchKinds: map[string]bool{"switch_expression": true, "switch_statement": true},
		booleanOperatorTexts: map[string]bool{"&&": true, "||": true},
		commentKinds:         map[string]bool{"line_comment": true, "block_comment": true},
		importKinds:          map[string]bool{"import_declaration": true},
		isExported: func(node *sitter.Node, source []byte) bool {
			return hasModifier(node, source, "public")
		},
		isStatic: func(node *sitter.Node, source []byte) bool {
			return hasModifier(node, source, "static")
		},
		isAbstract: func(node *sitter.Node, source []byte) bool {
			return hasModifier(node, source, "abstract")
		},
	}

	return newTreeSitterPlugin("java", []string{"java"}, grammar, spec)
}

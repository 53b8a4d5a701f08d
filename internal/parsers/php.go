package parsers

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	php "github.com/tree-sitter/tree-sitter-php/bindings/go"

	"github.com/codesearch/hybrid-search/internal/meta"
)

func newPHPPlugin() Plugin {
	grammar := sitter.NewLanguage(php.LanguagePHP())

	spec := grammarSpec{
		topLevel: map[string]symbolClass{
			"function_definition": {symbolType: meta.SymbolFunction},
			"class_declaration":    {symbolType: meta.SymbolClass},
			"interface_declaration": {symbolType: meta.SymbolType_, variant: meta.VariantInterface},
			"enum_declaration":     {symbolType: meta.SymbolEnum},
			"trait_declaration":    {symbolType: meta.SymbolType_, variant: meta.VariantProtocol},
		},
		containerKinds: map[string]bool{"class_declaration": true, "interface_declaration": true, "trait_declaration": true},
		memberKinds: map[string]symbolClass{
			"method_declaration": {symbolType: meta.SymbolMethod},
		},
		bodyField: "body",
		nameField: "name",
		branchKinds: map[string]bool{
			"if_statement": true, "for_statement": true, "foreach_statement": true,
			"while_statement": true, "do_statement": true, "catch_clause": true,
			"case_statement": true, "conditional_expression": true,
			"match_conditional_expression": true,
		},
		switchKinds: map[string]bool{"switch_statement": true, "match_expression": true},
		booleanOperatorTexts: map[string]bool{"&&": true, "||": true, "and": true, "or": true},
		commentKinds:         map[string]bool{"comment": true},
		importKinds:          map[string]bool{"namespace_use_declaration": true},
		isExported: func(node *sitter.Node, source []byte) bool {
			return hasModifier(node, source, "public") || !hasModifier(node, source, "private")
		},
		isStatic: func(node *sitter.Node, source []byte) bool {
			return hasModifier(node, source, "static")
		},
		isAbstract: func(node *sitter.Node, source []byte) bool {
			return hasModifier(node, source, "abstract")
		},
	}

	return newTreeSitterPlugin("php", []string{"php"}, grammar, spec)
}

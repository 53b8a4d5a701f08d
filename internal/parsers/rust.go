package parsers

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"

	"github.com/codesearch/hybrid-search/internal/meta"
)

func newRustPlugin() Plugin {
	grammar := sitter.NewLanguage(rust.Language())

	spec := grammarSpec{
		topLevel: map[string]symbolClass{
			"function_item":   {symbolType: meta.SymbolFunction},
			"struct_item":      {symbolType: meta.SymbolClass},
			"enum_item":        {symbolType: meta.SymbolEnum},
			"trait_item":       {symbolType: meta.SymbolType_, variant: meta.VariantProtocol},
			"impl_item":        {symbolType: meta.SymbolClass},
			"type_item":        {symbolType: meta.SymbolType_, variant: meta.VariantAlias},
		},
		containerKinds: map[string]bool{"impl_item": true, "trait_item": true},
		memberKinds: map[string]symbolClass{
			"function_item": {symbolType: meta.SymbolMethod},
		},
		bodyField:   "body",
		nameField:   "name",
		branchKinds: map[string]bool{
			"if_expression": true, "for_expression": true, "while_expression": true,
			"match_arm": true, "loop_expression": true,
		},
		switchKinds: map[string]bool{"match_expression": true},
		booleanOperatorTexts: map[string]bool{"&&": true, "||": true},
		commentKinds:         map[string]bool{"line_comment": true, "block_comment": true},
		importKinds:          map[string]bool{"use_declaration": true},
		isExported: func(node *sitter.Node, source []byte) bool {
			for i := 0; i < int(node.ChildCount()); i++ {
				if node.Child(uint(i)).Kind() == "visibility_modifier" {
					return true
				}
			}
			return false
		},
		isAsync: func(node *sitter.Node, source []byte) bool {
			for i := 0; i < int(node.ChildCount()); i++ {
				if node.Child(uint(i)).Kind() == "async" {
					return true
				}
			}
			return false
		},
	}

	return newTreeSitterPlugin("rust", []string{"rs"}, grammar, spec)
}

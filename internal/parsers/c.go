package parsers

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	c "github.com/tree-sitter/tree-sitter-c/bindings/go"

	"github.com/codesearch/hybrid-search/internal/meta"
)

// newCPlugin also backs the registered "cpp"/"cc"/"hpp" extensions: the
// dependency set carries only the C grammar, and C++ sources parse well
// enough under it for boundary/complexity purposes, same tradeoff the
// of treating C++ headers as C — good enough for boundary extraction.
func newCPlugin() Plugin {
	grammar := sitter.NewLanguage(c.Language())

	spec := grammarSpec{
		topLevel: map[string]symbolClass{
			"function_definition": {symbolType: meta.SymbolFunction},
			"struct_specifier":     {symbolType: meta.SymbolClass},
			"enum_specifier":       {symbolType: meta.SymbolEnum},
			"type_definition":      {symbolType: meta.SymbolType_, variant: meta.VariantAlias},
		},
		bodyField: "body",
		nameField: "declarator",
		branchKinds: map[string]bool{
			"if_statement": true, "for_statement": true, "while_statement": true,
			"do_statement": true, "case_statement": true, "conditional_expression": true,
		},
		switchKinds: map[string]bool{"switch_statement": true},
		booleanOperatorTexts: map[string]bool{"&&": true, "||": true},
		commentKinds:         map[string]bool{"comment": true},
		importKinds:          map[string]bool{"preproc_include": true},
		importModuleField:    "path",
		isExported: func(node *sitter.Node, source []byte) bool {
			for i := 0; i < int(node.ChildCount()); i++ {
				if node.Child(uint(i)).Kind() == "storage_class_specifier" {
					text := string(source[node.Child(uint(i)).StartByte():node.Child(uint(i)).EndByte()])
					if text == "static" {
						return false
					}
				}
			}
			return true
		},
	}

	return newTreeSitterPlugin("c", []string{"c", "h", "cpp", "cc", "hpp"}, grammar, spec)
}

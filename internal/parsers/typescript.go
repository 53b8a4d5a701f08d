package parsers

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/codesearch/hybrid-search/internal/meta"
)

func tsFamilySpec() grammarSpec {
	return grammarSpec{
		topLevel: map[string]symbolClass{
			"function_declaration":    {symbolType: meta.SymbolFunction},
			"generator_function_declaration": {symbolType: meta.SymbolFunction, variant: meta.VariantGenerator},
			"class_declaration":       {symbolType: meta.SymbolClass},
			"interface_declaration":   {symbolType: meta.SymbolType_, variant: meta.VariantInterface},
			"type_alias_declaration":  {symbolType: meta.SymbolType_, variant: meta.VariantAlias},
			"enum_declaration":        {symbolType: meta.SymbolEnum},
		},
		containerKinds: map[string]bool{"class_declaration": true, "interface_declaration": true},
		memberKinds: map[string]symbolClass{
			"method_definition":  {symbolType: meta.SymbolMethod},
			"public_field_definition": {symbolType: meta.SymbolVariable},
		},
		bodyField:    "body",
		wrapperKinds: map[string]bool{"export_statement": true},
		nameField:    "name",
		branchKinds: map[string]bool{
			"if_statement": true, "for_statement": true, "for_in_statement": true,
			"while_statement": true, "do_statement": true, "catch_clause": true,
			"switch_case": true, "ternary_expression": true,
		},
		switchKinds: map[string]bool{"switch_statement": true},
		booleanOperatorTexts: map[string]bool{"&&": true, "||": true, "??": true},
		commentKinds:         map[string]bool{"comment": true},
		importKinds:          map[string]bool{"import_statement": true},
		importModuleField:    "source",
		arrowDeclKind:        "lexical_declaration",
		declaratorKind:       "variable_declarator",
		functionValueKinds:   map[string]bool{"arrow_function": true, "function_expression": true},
		isExported: func(node *sitter.Node, source []byte) bool {
			parent := node.Parent()
			return parent != nil && parent.Kind() == "export_statement"
		},
		isAsync: func(node *sitter.Node, source []byte) bool {
			for i := 0; i < int(node.ChildCount()); i++ {
				if node.Child(uint(i)).Kind() == "async" {
					return true
				}
			}
			return false
		},
		isStatic: func(node *sitter.Node, source []byte) bool {
			for i := 0; i < int(node.ChildCount()); i++ {
				if node.Child(uint(i)).Kind() == "static" {
					return true
				}
			}
			return false
		},
		isAbstract: func(node *sitter.Node, source []byte) bool {
			for i := 0; i < int(node.ChildCount()); i++ {
				if node.Child(uint(i)).Kind() == "abstract" {
					return true
				}
			}
			return false
		},
	}
}

func newTypeScriptPlugin() Plugin {
	grammar := sitter.NewLanguage(typescript.LanguageTypescript())
	return newTreeSitterPlugin("typescript", []string{"ts", "tsx"}, grammar, tsFamilySpec())
}

// JavaScript has no distinct tree-sitter grammar in this dependency set; it
// reuses the TypeScript grammar.
func newJavaScriptPlugin() Plugin {
	grammar := sitter.NewLanguage(typescript.LanguageTypescript())
	return newTreeSitterPlugin("javascript", []string{"js", "jsx", "mjs", "cjs"}, grammar, tsFamilySpec())
}

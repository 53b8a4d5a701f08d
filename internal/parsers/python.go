package parsers

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/codesearch/hybrid-search/internal/meta"
)

func newPythonPlugin() Plugin {
	grammar := sitter.NewLanguage(python.Language())

	spec := grammarSpec{
		topLevel: map[string]symbolClass{
			"function_definition": {symbolType: meta.SymbolFunction},
			"class_definition":    {symbolType: meta.SymbolClass},
		},
		containerKinds: map[string]bool{"class_definition": true},
		memberKinds: map[string]symbolClass{
			"function_definition": {symbolType: meta.SymbolMethod},
		},
		bodyField:         "body",
		wrapperKinds:      map[string]bool{},
		nameField:         "name",
		decoratorNodeKind: "decorator",
		branchKinds: map[string]bool{
			"if_statement": true, "elif_clause": true, "for_statement": true,
			"while_statement": true, "except_clause": true, "case_clause": true,
			"conditional_expression": true, "with_statement": true,
			// comprehension guard: [x for x in xs if x]
			"if_clause": true,
		},
		switchKinds: map[string]bool{"match_statement": true},
		booleanOperatorTexts: map[string]bool{"and": true, "or": true},
		commentKinds:         map[string]bool{"comment": true},
		docstringKinds:       map[string]bool{"expression_statement": true},
		importKinds:          map[string]bool{"import_statement": true, "import_from_statement": true},
		isExported: func(node *sitter.Node, source []byte) bool {
			name := node.ChildByFieldName("name")
			if name == nil {
				return true
			}
			text := string(source[name.StartByte():name.EndByte()])
			return !strings.HasPrefix(text, "_")
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

	return newTreeSitterPlugin("python", []string{"py"}, grammar, spec)
}

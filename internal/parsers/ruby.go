package parsers

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"

	"github.com/codesearch/hybrid-search/internal/meta"
)

func newRubyPlugin() Plugin {
	grammar := sitter.NewLanguage(ruby.Language())

	spec := grammarSpec{
		topLevel: map[string]symbolClass{
			"method":       {symbolType: meta.SymbolFunction},
			"singleton_method": {symbolType: meta.SymbolFunction, variant: meta.VariantStatic},
			"class":        {symbolType: meta.SymbolClass},
			"module":       {symbolType: meta.SymbolModule},
		},
		containerKinds: map[string]bool{"class": true, "module": true},
		memberKinds: map[string]symbolClass{
			"method":           {symbolType: meta.SymbolMethod},
			"singleton_method": {symbolType: meta.SymbolMethod, variant: meta.VariantStatic},
		},
		bodyField: "body",
		nameField: "name",
		branchKinds: map[string]bool{
			"if": true, "elsif": true, "unless": true, "while": true,
			"for": true, "when": true, "in_clause": true, "rescue": true,
		},
		switchKinds: map[string]bool{"case": true, "case_match": true},
		booleanOperatorTexts: map[string]bool{"&&": true, "||": true, "and": true, "or": true},
		commentKinds:         map[string]bool{"comment": true},
		// Ruby's require/require_relative are ordinary method calls, not a
		// grammar-level import node, so Imports() returns nothing here;
		// the chunker's relevant-imports block simply stays empty for .rb.
		isExported: func(node *sitter.Node, source []byte) bool {
			return true // visibility is a runtime call (private/protected), not part of the declaration node
		},
	}

	return newTreeSitterPlugin("ruby", []string{"rb"}, grammar, spec)
}

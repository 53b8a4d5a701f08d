// Package meta holds the universal chunk-metadata record every language
// plugin fills in, plus the small enums it is built from. Consumers filter
// on these fields without ever needing to know which language produced them.
package meta

// SymbolType is the universal symbol-kind enum. Every language plugin maps
// its own AST node kinds onto this fixed set.
type SymbolType string

const (
	SymbolFunction SymbolType = "function"
	SymbolClass    SymbolType = "class"
	SymbolMethod   SymbolType = "method"
	SymbolType_    SymbolType = "type" // trailing underscore avoids shadowing the package name "type"
	SymbolVariable SymbolType = "variable"
	SymbolEnum     SymbolType = "enum"
	SymbolModule   SymbolType = "module"
)

// Variant refines SymbolType with a language-tagged nuance. It is left
// empty when it wouldn't add information beyond SymbolType.
type Variant string

const (
	VariantInterface   Variant = "interface"
	VariantAlias       Variant = "alias"
	VariantSchema      Variant = "schema"
	VariantDataclass   Variant = "dataclass"
	VariantProtocol    Variant = "protocol"
	VariantAsync       Variant = "async"
	VariantGenerator   Variant = "generator"
	VariantArrow       Variant = "arrow"
	VariantStatic      Variant = "static"
	VariantClassmethod Variant = "classmethod"
	VariantProperty    Variant = "property"
	VariantAbstract    Variant = "abstract"
	VariantConstant    Variant = "constant"
)

// ChunkMeta is the fixed, nullable-field record every language plugin
// produces for a chunk. It is a flat struct rather than a dynamic map:
// languages extend the SymbolType/Variant enums, never the schema.
type ChunkMeta struct {
	SymbolName       string     // empty when the chunk has no single named symbol
	SymbolType       SymbolType // required
	Variant          Variant    // empty when it wouldn't refine SymbolType
	Language         string
	IsExported       bool
	IsAsync          bool
	IsStatic         bool
	IsAbstract       bool
	Decorators       []string // normalized to "@name", no arguments
	Complexity       int      // cyclomatic, >= 0
	HasDocumentation bool
	ParentScope      string // nearest enclosing class/namespace name, empty at top level
	ScopeDepth       int
	Imports          []string // module names referenced by this chunk, deduped
}

// DecoratorsCSV flattens Decorators to the comma-joined string the embedding
// table's decorators scalar column expects.
func (m ChunkMeta) DecoratorsCSV() string {
	out := ""
	for i, d := range m.Decorators {
		if i > 0 {
			out += ","
		}
		out += d
	}
	return out
}

// ImportsCSV flattens Imports the same way for storage as a scalar column.
func (m ChunkMeta) ImportsCSV() string {
	out := ""
	for i, imp := range m.Imports {
		if i > 0 {
			out += ","
		}
		out += imp
	}
	return out
}

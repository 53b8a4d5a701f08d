package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goSource = `package sample

import (
	"fmt"
	"strings"
)

// Greeting is the template used by Greet.
const Greeting = "hello, %s"

// Greet formats a greeting for name.
func Greet(name string) string {
	if name == "" {
		name = "world"
	}
	return fmt.Sprintf(Greeting, strings.TrimSpace(name))
}

type counter struct {
	n int
}

func (c *counter) Inc() int {
	c.n++
	return c.n
}

func (c *counter) Value() int { return c.n }

// Summer adds things up.
type Summer interface {
	Sum(values []int) int
}
`

func parseGo(t *testing.T, source string) AST {
	t.Helper()
	p := newGoPlugin()
	ast, err := p.Parse([]byte(source))
	require.NoError(t, err)
	t.Cleanup(ast.Close)
	return ast
}

func findBoundary(t *testing.T, bs []Boundary, name string) Boundary {
	t.Helper()
	for _, b := range bs {
		if b.Name == name {
			return b
		}
	}
	t.Fatalf("boundary %q not found", name)
	return Boundary{}
}

func TestGoPluginFunctionBoundary(t *testing.T) {
	ast := parseGo(t, goSource)
	bs := ast.Boundaries()

	greet := findBoundary(t, bs, "Greet")
	assert.Equal(t, "function", greet.SymbolType)
	assert.True(t, greet.IsExported)
	assert.True(t, greet.HasDoc)
	assert.Equal(t, 2, greet.Complexity, "one if adds one to the base")
	assert.Positive(t, greet.StartLine)
	assert.GreaterOrEqual(t, greet.EndLine, greet.StartLine)
	assert.Equal(t, greet.StartLine, greet.SignatureEndLine, "single-line signature")
}

func TestGoPluginSwitchCostsTwoPlusOnePerCase(t *testing.T) {
	const src = `package sample

func Classify(n int) string {
	switch {
	case n < 0:
		return "negative"
	case n == 0:
		return "zero"
	default:
		return "positive"
	}
}
`
	ast := parseGo(t, src)
	classify := findBoundary(t, ast.Boundaries(), "Classify")

	// base 1 + switch 2 + three case clauses.
	assert.Equal(t, 6, classify.Complexity)
}

func TestGoPluginMethodsNestUnderReceiver(t *testing.T) {
	ast := parseGo(t, goSource)
	bs := ast.Boundaries()

	c := findBoundary(t, bs, "counter")
	assert.Equal(t, "class", c.SymbolType)
	assert.False(t, c.IsExported)
	require.Len(t, c.Children, 2)

	inc := c.Children[0]
	assert.Equal(t, "Inc", inc.Name)
	assert.Equal(t, "method", inc.SymbolType)
	assert.Equal(t, "counter", inc.ParentScope)
	assert.True(t, inc.IsExported)
}

func TestGoPluginConstAndInterfaceVariants(t *testing.T) {
	ast := parseGo(t, goSource)
	bs := ast.Boundaries()

	greeting := findBoundary(t, bs, "Greeting")
	assert.Equal(t, "variable", greeting.SymbolType)
	assert.Equal(t, "constant", greeting.Variant)
	assert.True(t, greeting.HasDoc)

	summer := findBoundary(t, bs, "Summer")
	assert.Equal(t, "type", summer.SymbolType)
	assert.Equal(t, "interface", summer.Variant)
}

func TestGoPluginImports(t *testing.T) {
	ast := parseGo(t, goSource)
	imports := ast.Imports()

	require.Len(t, imports, 2)
	assert.Equal(t, "fmt", imports[0].Module)
	assert.Equal(t, []string{"fmt"}, imports[0].Identifiers)
	assert.Equal(t, "strings", imports[1].Module)
}

func TestGoPluginAliasedImportBindsAlias(t *testing.T) {
	ast := parseGo(t, "package p\n\nimport str \"strings\"\n")
	imports := ast.Imports()
	require.Len(t, imports, 1)
	assert.Equal(t, "strings", imports[0].Module)
	assert.Equal(t, []string{"str"}, imports[0].Identifiers)
}

func TestGoPluginRejectsUnparseableSource(t *testing.T) {
	p := newGoPlugin()
	_, err := p.Parse([]byte("func broken(( {"))
	require.Error(t, err)
}

func TestRegistryResolvesAndCaches(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.Supported("go"))
	assert.True(t, r.Supported("py"))
	assert.False(t, r.Supported("xyz"))

	first, err := r.Get("go")
	require.NoError(t, err)
	second, err := r.Get("go")
	require.NoError(t, err)
	assert.Equal(t, first, second, "plugins initialize once and are cached")
}

func TestRegistryUnknownExtension(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("xyz")
	require.Error(t, err)
}

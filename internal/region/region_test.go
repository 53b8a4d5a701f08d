package region

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codesearch/hybrid-search/internal/parsers"
)

const goSample = `package sample

type Greeter struct{}

func New() *Greeter {
	return &Greeter{}
}

func (g *Greeter) Greet(name string) string {
	if name == "" {
		return "hello"
	}
	return "hello " + name
}
`

func TestExtractGoMethodsAndConstructor(t *testing.T) {
	reg := parsers.NewRegistry()
	plugin, err := reg.Get("go")
	require.NoError(t, err)

	tree, err := plugin.Parse([]byte(goSample))
	require.NoError(t, err)
	defer tree.Close()

	lines := strings.Split(goSample, "\n")
	regions := Extract(tree, lines)
	require.NotEmpty(t, regions)

	names := make(map[string]string)
	for _, r := range regions {
		names[r.Name] = string(r.Kind)
	}

	require.Equal(t, "constructor", names["New"])
	require.Equal(t, "method", names["Greet"])

	for i := 1; i < len(regions); i++ {
		require.LessOrEqual(t, regions[i-1].StartLine, regions[i].StartLine)
	}
}

func TestExtractEmptyBoundaries(t *testing.T) {
	require.Empty(t, Extract(emptyAST{}, nil))
}

type emptyAST struct{}

func (emptyAST) Boundaries() []parsers.Boundary   { return nil }
func (emptyAST) Imports() []parsers.ImportDecl    { return nil }
func (emptyAST) Close()                           {}

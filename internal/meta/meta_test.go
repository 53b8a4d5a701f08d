package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecoratorsCSV(t *testing.T) {
	m := ChunkMeta{Decorators: []string{"@staticmethod", "@cached"}}
	assert.Equal(t, "@staticmethod,@cached", m.DecoratorsCSV())

	assert.Empty(t, ChunkMeta{}.DecoratorsCSV())
	assert.Equal(t, "@one", ChunkMeta{Decorators: []string{"@one"}}.DecoratorsCSV())
}

func TestImportsCSV(t *testing.T) {
	m := ChunkMeta{Imports: []string{"fmt", "net/http"}}
	assert.Equal(t, "fmt,net/http", m.ImportsCSV())
	assert.Empty(t, ChunkMeta{}.ImportsCSV())
}

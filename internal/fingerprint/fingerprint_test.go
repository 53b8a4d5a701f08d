package fingerprint

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHexIsStableAndLowercase(t *testing.T) {
	first := Hex([]byte("func add(a, b int) int { return a + b }"))
	second := Hex([]byte("func add(a, b int) int { return a + b }"))

	assert.Equal(t, first, second)
	assert.Len(t, first, 40)
	assert.Equal(t, strings.ToLower(first), first)
}

func TestHexDistinguishesContent(t *testing.T) {
	assert.NotEqual(t, Hex([]byte("a")), Hex([]byte("b")))
	assert.NotEqual(t, HexString("x\n"), HexString("x"))
}

func TestHexStringMatchesHex(t *testing.T) {
	assert.Equal(t, Hex([]byte("same input")), HexString("same input"))
}

func TestProjectHashIsShortAndStable(t *testing.T) {
	h := ProjectHash("/home/dev/projects/api")

	assert.Len(t, h, 16)
	assert.Equal(t, h, ProjectHash("/home/dev/projects/api"))
	assert.NotEqual(t, h, ProjectHash("/home/dev/projects/api2"))
}

package security

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalYAML_Valid(t *testing.T) {
	parser := NewSafeYAMLParser(DefaultYAMLLimits())

	var out struct {
		Maze struct {
			Rows []string `yaml:"rows"`
		} `yaml:"maze"`
	}
	err := parser.UnmarshalYAML([]byte("maze:\n  rows:\n    - \"010\"\n    - \"000\"\n"), &out)

	require.NoError(t, err)
	assert.Equal(t, []string{"010", "000"}, out.Maze.Rows)
}

func TestUnmarshalYAML_TooLarge(t *testing.T) {
	limits := DefaultYAMLLimits()
	limits.MaxFileSize = 10
	parser := NewSafeYAMLParser(limits)

	var out any
	err := parser.UnmarshalYAML([]byte("key: a-value-beyond-ten-bytes"), &out)

	assert.ErrorContains(t, err, "exceeds maximum")
}

func TestUnmarshalYAML_TooDeep(t *testing.T) {
	limits := DefaultYAMLLimits()
	limits.MaxDepth = 3
	parser := NewSafeYAMLParser(limits)

	doc := "a:\n  b:\n    c:\n      d:\n        e: 1\n"

	var out any
	err := parser.UnmarshalYAML([]byte(doc), &out)

	assert.ErrorContains(t, err, "nesting depth")
}

func TestUnmarshalYAML_TooManyNodes(t *testing.T) {
	limits := DefaultYAMLLimits()
	limits.MaxNodes = 10
	parser := NewSafeYAMLParser(limits)

	var sb strings.Builder
	sb.WriteString("items:\n")
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&sb, "  - %d\n", i)
	}

	var out any
	err := parser.UnmarshalYAML([]byte(sb.String()), &out)

	assert.ErrorContains(t, err, "node count")
}

func TestUnmarshalYAML_KeyTooLong(t *testing.T) {
	limits := DefaultYAMLLimits()
	limits.MaxKeyLength = 4
	parser := NewSafeYAMLParser(limits)

	var out any
	err := parser.UnmarshalYAML([]byte("a-very-long-key: 1"), &out)

	assert.ErrorContains(t, err, "key length")
}

func TestUnmarshalYAML_Malformed(t *testing.T) {
	parser := NewSafeYAMLParser(DefaultYAMLLimits())

	var out any
	err := parser.UnmarshalYAML([]byte("maze: [[["), &out)

	assert.ErrorContains(t, err, "YAML parse error")
}

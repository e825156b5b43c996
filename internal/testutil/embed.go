// Package testutil holds documents and builders shared by the tests.
package testutil

import (
	"embed"
	"path"
	"strings"
	"testing"

	"github.com/KimNorgaard/go-exent/value"
	"github.com/stretchr/testify/require"
)

//go:embed testdata
var documents embed.FS

// Document returns the embedded document testdata/name, failing tb if it
// does not exist.
func Document(tb testing.TB, name string) []byte {
	tb.Helper()
	data, err := documents.ReadFile(path.Join("testdata", name))
	require.NoError(tb, err, "test document %q", name)
	return data
}

// NestedArrays returns depth arrays nested inside each other around a
// null, as text and as a graph.
func NestedArrays(depth int) (string, value.Value) {
	var v value.Value = value.Null{}
	for i := 0; i < depth; i++ {
		v = value.NewArray(v)
	}
	return strings.Repeat("[", depth) + "null" + strings.Repeat("]", depth), v
}

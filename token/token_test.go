package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupIdent(t *testing.T) {
	for ident, want := range map[string]Type{
		"true":   TRUE,
		"false":  FALSE,
		"null":   NULL,
		"True":   IDENT,
		"nullx":  IDENT,
		"my_var": IDENT,
	} {
		require.Equal(t, want, LookupIdent(ident), ident)
		require.Equal(t, want != IDENT, IsKeyword(ident), ident)
	}
}

func TestDelimiter(t *testing.T) {
	for _, ch := range "{}[],:" {
		typ, ok := Delimiter(ch)
		require.True(t, ok)
		require.Equal(t, string(ch), typ.String())
	}
	_, ok := Delimiter('(')
	require.False(t, ok)
}

func TestString(t *testing.T) {
	require.Equal(t, "STRING", STRING.String())
	require.Equal(t, "EOF", EOF.String())
	require.Equal(t, "ILLEGAL", Type(200).String())
}

func TestIsScalar(t *testing.T) {
	require.True(t, BIGINT.IsScalar())
	require.True(t, MULTILINE.IsScalar())
	require.False(t, LBRACE.IsScalar())
	require.False(t, ANCHOR.IsScalar())
	require.False(t, REF.IsScalar())
}

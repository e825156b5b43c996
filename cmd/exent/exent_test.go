package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/KimNorgaard/go-exent"
	"github.com/KimNorgaard/go-exent/errors"
	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func testConfig() *MainConfig {
	return &MainConfig{Indent: 4, MaxDepth: 200}
}

func TestFmtDoc(t *testing.T) {
	cfg := testConfig()
	var out bytes.Buffer
	require.NoError(t, fmtDoc(cfg, &out, []byte(`&r {name:"x" self:*r}`)))
	require.Equal(t, "&a0 {\n    name: x,\n    self: *a0\n}\n", out.String())

	cfg.Indent = 0
	out.Reset()
	require.NoError(t, fmtDoc(cfg, &out, []byte("[1 2 3]")))
	require.Equal(t, "[ 1, 2, 3 ]\n", out.String())

	err := fmtDoc(cfg, &out, []byte("[1"))
	require.True(t, errors.Is(err, errors.ErrUnterminatedArray), "got %v", err)
}

func TestPackUnpackDoc(t *testing.T) {
	cfg := &PackConfig{MainConfig: testConfig()}
	var packed bytes.Buffer
	require.NoError(t, packDoc(cfg, &packed, []byte("{ n: 1 }")))
	require.Equal(t, []byte{0x09, 0, 0, 0, 1, 0, 0, 0, 1, 'n', 0x03, 0, 0, 0, 1}, packed.Bytes())

	var out bytes.Buffer
	require.NoError(t, unpackDoc(cfg.MainConfig, &out, packed.Bytes()))
	require.Equal(t, "{\n    n: 1\n}\n", out.String())

	packed.Reset()
	err := packDoc(cfg, &packed, []byte("123456789012345678901234n"))
	require.True(t, errors.Is(err, errors.ErrPrecisionLoss), "got %v", err)

	cfg.Lossy = true
	require.NoError(t, packDoc(cfg, &packed, []byte("123456789012345678901234n")))
}

func TestJSONDoc(t *testing.T) {
	cfg := &JSONConfig{MainConfig: testConfig()}
	cfg.Indent = 0
	var out bytes.Buffer
	require.NoError(t, jsonDoc(cfg, &out, []byte(`{"a": [1, 2.5, "x y"], "b": null}`)))
	require.Equal(t, "{ a: [ 1, 2.5, \"x y\" ], b: null }\n", out.String())

	cfg.Reverse = true
	out.Reset()
	require.NoError(t, jsonDoc(cfg, &out, []byte(`{ a: [1 2] }`)))
	require.Equal(t, "{\"a\":[1,2]}\n", out.String())
}

func TestMaxDepthOption(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDepth = 2
	var out bytes.Buffer
	err := fmtDoc(cfg, &out, []byte("[[[1]]]"))
	require.True(t, errors.Is(err, errors.ErrMaxDepthExceeded), "got %v", err)
}

func TestColors(t *testing.T) {
	saved := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = saved }()

	cfg := testConfig()
	cfg.Indent = 0
	cfg.Color = true
	var out bytes.Buffer
	require.NoError(t, fmtDoc(cfg, &out, []byte("{ a: true }")))
	require.Contains(t, out.String(), "\x1b[")
	require.NotContains(t, strings.TrimSpace(out.String()), "\n")

	cfg.Color = false
	cfg.NoColor = true
	require.False(t, cfg.colorize(&out))
	cfg.NoColor = false
	require.False(t, cfg.colorize(&out), "a buffer is not a terminal")

	s, err := exent.Stringify(nil, exent.WithStyle(NewColors().Style))
	require.NoError(t, err)
	require.Contains(t, s, "null")
}

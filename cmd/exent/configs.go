package main

import (
	"io"
	"os"

	"github.com/KimNorgaard/go-exent"
	"github.com/scott-cotton/cli"

	"github.com/mattn/go-isatty"
)

type MainConfig struct {
	Indent   int  `cli:"name=indent desc='spaces per indentation level, 0 for compact output'"`
	MaxDepth int  `cli:"name=max-depth desc='maximum container nesting depth'"`
	Color    bool `cli:"name=color desc='encode with color'"`
	NoColor  bool `cli:"name=no-color desc='never encode with color'"`

	Main *cli.Command
}

func (cfg *MainConfig) parseOpts() []exent.Option {
	return []exent.Option{exent.MaxDepth(cfg.MaxDepth)}
}

func (cfg *MainConfig) textOpts(w io.Writer) []exent.Option {
	res := []exent.Option{exent.Indent(cfg.Indent)}
	if cfg.colorize(w) {
		res = append(res, exent.WithStyle(newStyle()))
	}
	return res
}

func (cfg *MainConfig) colorize(w io.Writer) bool {
	switch {
	case cfg.NoColor:
		return false
	case cfg.Color:
		return true
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}

type FmtConfig struct {
	*MainConfig

	Fmt *cli.Command
}

type PackConfig struct {
	*MainConfig
	Lossy bool `cli:"name=lossy desc='truncate integers wider than 64 bits instead of failing'"`

	Pack *cli.Command
}

type UnpackConfig struct {
	*MainConfig

	Unpack *cli.Command
}

type JSONConfig struct {
	*MainConfig
	Reverse bool `cli:"name=r aliases=reverse desc='read EXENT and write JSON'"`

	JSON *cli.Command
}

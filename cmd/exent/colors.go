package main

import (
	"github.com/KimNorgaard/go-exent"

	"github.com/fatih/color"
)

type Colors struct {
	Default func(string, ...any) string
	Map     map[exent.Element]func(string, ...any) string
}

func NewColors() *Colors {
	return &Colors{
		Default: color.New(color.Reset).SprintfFunc(),
		Map: map[exent.Element]func(string, ...any) string{
			exent.ElementKey:    color.RGB(196, 96, 16).SprintfFunc(),
			exent.ElementAnchor: color.RGB(74, 92, 138).SprintfFunc(),
			exent.ElementRef:    color.RGB(255, 0, 196).SprintfFunc(),
			exent.ElementNull:   color.RGB(168, 0, 196).SprintfFunc(),
			exent.ElementBool:   color.CyanString,
			exent.ElementNumber: color.RGB(128, 216, 236).SprintfFunc(),
			exent.ElementString: color.RGB(8, 196, 16).SprintfFunc(),
			exent.ElementDate:   color.RGB(198, 198, 46).SprintfFunc(),
		},
	}
}

func (c *Colors) Style(e exent.Element, s string) string {
	f, ok := c.Map[e]
	if !ok {
		f = c.Default
	}
	return f("%s", s)
}

func newStyle() exent.Style {
	return NewColors().Style
}

package main

import (
	"github.com/scott-cotton/cli"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{Indent: 4, MaxDepth: 200}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, "exent").
		WithSynopsis("exent [opts] command [opts] [files]").
		WithDescription("exent converts between EXENT text, B-EXENT binary and JSON.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return exentMain(cfg, cc, args)
		}).
		WithSubs(
			FmtCommand(cfg),
			PackCommand(cfg),
			UnpackCommand(cfg),
			JSONCommand(cfg))
}

func FmtCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &FmtConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Fmt, "fmt").
		WithAliases("f").
		WithSynopsis("fmt [files]").
		WithDescription("re-emit EXENT documents in canonical form").
		WithRun(func(cc *cli.Context, args []string) error {
			return runFmt(cfg, cc, args)
		})
}

func PackCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &PackConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Pack, "pack").
		WithAliases("p").
		WithSynopsis("pack [-lossy] [files]").
		WithDescription("encode EXENT documents as B-EXENT").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return runPack(cfg, cc, args)
		})
}

func UnpackCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &UnpackConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Unpack, "unpack").
		WithAliases("u").
		WithSynopsis("unpack [files]").
		WithDescription("decode B-EXENT documents to EXENT text").
		WithRun(func(cc *cli.Context, args []string) error {
			return runUnpack(cfg, cc, args)
		})
}

func JSONCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &JSONConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.JSON, "json").
		WithAliases("j").
		WithSynopsis("json [-r] [files]").
		WithDescription("convert JSON documents to EXENT, or back with -r").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return runJSON(cfg, cc, args)
		})
}

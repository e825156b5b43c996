package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/KimNorgaard/go-exent"
	"github.com/KimNorgaard/go-exent/value"
	"github.com/scott-cotton/cli"
)

func exentMain(cfg *MainConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.Indent < 0 {
		return fmt.Errorf("%w: -indent cannot be negative", cli.ErrUsage)
	}
	if cfg.MaxDepth <= 0 {
		return fmt.Errorf("%w: -max-depth must be positive", cli.ErrUsage)
	}
	if cfg.Color && cfg.NoColor {
		return fmt.Errorf("%w: -color and -no-color are exclusive", cli.ErrUsage)
	}
	if len(args) == 0 {
		return cli.ErrNoCommandProvided
	}
	sub := cfg.Main.FindSub(cc, args[0])
	if sub == nil {
		return fmt.Errorf("%w: %q not found", cli.ErrNoSuchCommand, args[0])
	}
	err = sub.Run(cc, args[1:])
	if errors.Is(err, cli.ErrUsage) {
		sub.Usage(cc, err)
		os.Exit(sub.Exit(cc, err))
	}
	return err
}

func runFmt(cfg *FmtConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Fmt.Parse(cc, args)
	if err != nil {
		return err
	}
	return eachInput(cc, args, func(w io.Writer, in []byte) error {
		return fmtDoc(cfg.MainConfig, w, in)
	})
}

func runPack(cfg *PackConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Pack.Parse(cc, args)
	if err != nil {
		return err
	}
	return eachInput(cc, args, func(w io.Writer, in []byte) error {
		return packDoc(cfg, w, in)
	})
}

func runUnpack(cfg *UnpackConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Unpack.Parse(cc, args)
	if err != nil {
		return err
	}
	return eachInput(cc, args, func(w io.Writer, in []byte) error {
		return unpackDoc(cfg.MainConfig, w, in)
	})
}

func runJSON(cfg *JSONConfig, cc *cli.Context, args []string) error {
	args, err := cfg.JSON.Parse(cc, args)
	if err != nil {
		return err
	}
	return eachInput(cc, args, func(w io.Writer, in []byte) error {
		return jsonDoc(cfg, w, in)
	})
}

// eachInput calls fn with the contents of every named file, or of the
// context input when no files are given. "-" names standard input.
func eachInput(cc *cli.Context, files []string, fn func(io.Writer, []byte) error) error {
	if len(files) == 0 {
		return convertReader(cc.Out, cc.In, fn)
	}
	for _, file := range files {
		if err := convertFile(cc.Out, file, fn); err != nil {
			return err
		}
	}
	return nil
}

func convertFile(w io.Writer, file string, fn func(io.Writer, []byte) error) error {
	var (
		f   *os.File
		err error
	)
	if file != "-" {
		f, err = os.Open(file)
		if err != nil {
			return fmt.Errorf("could not open %q: %w", file, err)
		}
		defer f.Close()
	} else {
		f = os.Stdin
	}
	if err := convertReader(w, f, fn); err != nil {
		return fmt.Errorf("error processing %s: %w", file, err)
	}
	return nil
}

func convertReader(w io.Writer, r io.Reader, fn func(io.Writer, []byte) error) error {
	in, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("error reading: %w", err)
	}
	return fn(w, in)
}

func fmtDoc(cfg *MainConfig, w io.Writer, in []byte) error {
	v, err := exent.Parse(in, cfg.parseOpts()...)
	if err != nil {
		return err
	}
	return writeText(cfg, w, v)
}

func packDoc(cfg *PackConfig, w io.Writer, in []byte) error {
	v, err := exent.Parse(in, cfg.parseOpts()...)
	if err != nil {
		return err
	}
	var opts []exent.Option
	if cfg.Lossy {
		opts = append(opts, exent.LossyBigInt())
	}
	b, err := exent.Pack(v, opts...)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func unpackDoc(cfg *MainConfig, w io.Writer, in []byte) error {
	v, err := exent.Unpack(in, cfg.parseOpts()...)
	if err != nil {
		return err
	}
	return writeText(cfg, w, v)
}

func jsonDoc(cfg *JSONConfig, w io.Writer, in []byte) error {
	if !cfg.Reverse {
		v, err := exent.FromJSON(in, cfg.parseOpts()...)
		if err != nil {
			return err
		}
		return writeText(cfg.MainConfig, w, v)
	}
	v, err := exent.Parse(in, cfg.parseOpts()...)
	if err != nil {
		return err
	}
	j, err := exent.ToJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", j)
	return err
}

func writeText(cfg *MainConfig, w io.Writer, v value.Value) error {
	s, err := exent.Stringify(v, cfg.textOpts(w)...)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, s)
	return err
}

package main

import (
	"fmt"
	"io"

	"github.com/scott-cotton/cli"

	"github.com/andreyvit/dart"
)

func format(cfg *FmtConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Fmt.Parse(cc, args)
	if err != nil {
		return err
	}
	p := newPrinter(cfg.colors(cc.Out), cfg.Indent)
	return readInputs(cc.In, args, func(_ string, data []byte) error {
		v, err := dart.ParseJSON(data)
		if err != nil {
			return err
		}
		defer v.Release()
		return p.write(cc.Out, v)
	})
}

func pack(cfg *PackConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Pack.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) > 1 {
		return fmt.Errorf("%w: pack takes at most one input file", cli.ErrUsage)
	}
	return readInputs(cc.In, args, func(_ string, data []byte) error {
		v, err := dart.ParseJSONWith(data, dart.ParseOptions{Finalize: true})
		if err != nil {
			return err
		}
		if cfg.Out != "" && cfg.Out != "-" {
			return dart.SaveFile(cfg.Out, v)
		}
		buf, err := v.Bytes()
		if err != nil {
			return err
		}
		_, err = cc.Out.Write(buf)
		return err
	})
}

func unpack(cfg *UnpackConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Unpack.Parse(cc, args)
	if err != nil {
		return err
	}
	p := newPrinter(cfg.colors(cc.Out), cfg.Indent)
	return readBinaries(cc.In, args, func(v dart.Value) error {
		return p.write(cc.Out, v)
	})
}

func dump(cfg *DumpConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Dump.Parse(cc, args)
	if err != nil {
		return err
	}
	return readBinaries(cc.In, args, func(v dart.Value) error {
		s, err := v.Dump()
		if err != nil {
			return err
		}
		_, err = io.WriteString(cc.Out, s)
		return err
	})
}

// readBinaries is readInputs for finalized buffers. Files are mapped rather
// than read, and the value passed to fn is only valid during the call.
func readBinaries(r io.Reader, files []string, fn func(v dart.Value) error) error {
	if len(files) == 0 {
		files = []string{"-"}
	}
	for _, file := range files {
		if file == "-" {
			data, err := io.ReadAll(r)
			if err != nil {
				return fmt.Errorf("could not read stdin: %w", err)
			}
			v, err := dart.FromBytes(data)
			if err == nil {
				err = fn(v)
			}
			if err != nil {
				return fmt.Errorf("error processing stdin: %w", err)
			}
			continue
		}
		m, err := dart.LoadFile(file)
		if err != nil {
			return fmt.Errorf("could not load %q: %w", file, err)
		}
		err = fn(m.Value)
		m.Close()
		if err != nil {
			return fmt.Errorf("error processing %s: %w", file, err)
		}
	}
	return nil
}

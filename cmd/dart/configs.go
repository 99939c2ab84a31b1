package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"
)

type MainConfig struct {
	Color bool `cli:"name=color desc='colorize JSON output (default: when writing to a terminal)'"`

	Main *cli.Command
}

// colors returns the palette for writing to w, or nil for plain output.
func (cfg *MainConfig) colors(w io.Writer) *palette {
	if cfg.Color {
		return newPalette(true)
	}
	colorSet := false
	for _, opt := range cfg.Main.Opts {
		if opt.Name != "color" {
			continue
		}
		colorSet = opt.Value != nil
		break
	}
	if colorSet {
		return nil
	}
	f, ok := w.(*os.File)
	if !ok {
		return nil
	}
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return newPalette(false)
	}
	return nil
}

type FmtConfig struct {
	*MainConfig
	Indent bool `cli:"name=indent aliases=i desc='indent output'"`

	Fmt *cli.Command
}

type PackConfig struct {
	*MainConfig
	Out string `cli:"name=o desc='output file (default stdout)'"`

	Pack *cli.Command
}

type UnpackConfig struct {
	*MainConfig
	Indent bool `cli:"name=indent aliases=i desc='indent output'"`

	Unpack *cli.Command
}

type DumpConfig struct {
	*MainConfig

	Dump *cli.Command
}

type PutConfig struct {
	*MainConfig
	DB     string `cli:"name=db desc='database file'"`
	Bucket string `cli:"name=bucket aliases=b desc='bucket name' default=docs"`

	Put *cli.Command
}

type GetConfig struct {
	*MainConfig
	DB     string `cli:"name=db desc='database file'"`
	Bucket string `cli:"name=bucket aliases=b desc='bucket name' default=docs"`
	Indent bool   `cli:"name=indent aliases=i desc='indent output'"`

	Get *cli.Command
}

type KeysConfig struct {
	*MainConfig
	DB     string `cli:"name=db desc='database file'"`
	Bucket string `cli:"name=bucket aliases=b desc='bucket name' default=docs"`
	Stats  bool   `cli:"name=stats desc='print bucket size instead of keys'"`

	Keys *cli.Command
}

type AppendConfig struct {
	*MainConfig
	Dir string `cli:"name=dir desc='journal directory'"`

	Append *cli.Command
}

type LogConfig struct {
	*MainConfig
	Dir string `cli:"name=dir desc='journal directory'"`

	Log *cli.Command
}

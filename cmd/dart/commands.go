package main

import (
	"github.com/scott-cotton/cli"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, "dart").
		WithSynopsis("dart [opts] command [opts]").
		WithDescription("dart converts between JSON and the dart binary format.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return dartMain(cfg, cc, args)
		}).
		WithSubs(
			FmtCommand(cfg),
			PackCommand(cfg),
			UnpackCommand(cfg),
			DumpCommand(cfg),
			PutCommand(cfg),
			GetCommand(cfg),
			KeysCommand(cfg),
			AppendCommand(cfg),
			LogCommand(cfg))
}

func FmtCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &FmtConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	cmd := cli.NewCommand("fmt").
		WithAliases("f").
		WithSynopsis("fmt [-indent] [files]").
		WithDescription("reformat JSON documents").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return format(cfg, cc, args)
		})
	cfg.Fmt = cmd
	return cmd
}

func PackCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &PackConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	cmd := cli.NewCommand("pack").
		WithAliases("p").
		WithSynopsis("pack [-o file] [file]").
		WithDescription("convert a JSON document into a finalized binary buffer").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return pack(cfg, cc, args)
		})
	cfg.Pack = cmd
	return cmd
}

func UnpackCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &UnpackConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	cmd := cli.NewCommand("unpack").
		WithAliases("u").
		WithSynopsis("unpack [-indent] [files]").
		WithDescription("print binary buffers as JSON").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return unpack(cfg, cc, args)
		})
	cfg.Unpack = cmd
	return cmd
}

func DumpCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &DumpConfig{MainConfig: mainCfg}
	cmd := cli.NewCommand("dump").
		WithSynopsis("dump [files]").
		WithDescription("describe the block layout of binary buffers").
		WithRun(func(cc *cli.Context, args []string) error {
			return dump(cfg, cc, args)
		})
	cfg.Dump = cmd
	return cmd
}

func PutCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &PutConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	cmd := cli.NewCommand("put").
		WithSynopsis("put -db file [-bucket name] key [file]").
		WithDescription("store a JSON document in a database file").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return put(cfg, cc, args)
		})
	cfg.Put = cmd
	return cmd
}

func GetCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &GetConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	cmd := cli.NewCommand("get").
		WithAliases("g").
		WithSynopsis("get -db file [-bucket name] [-indent] key [path...]").
		WithDescription("print a stored document, or a value inside it").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return get(cfg, cc, args)
		})
	cfg.Get = cmd
	return cmd
}

func KeysCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &KeysConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	cmd := cli.NewCommand("keys").
		WithAliases("ls").
		WithSynopsis("keys -db file [-bucket name] [-stats]").
		WithDescription("list the keys of a bucket").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return keys(cfg, cc, args)
		})
	cfg.Keys = cmd
	return cmd
}

func AppendCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &AppendConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	cmd := cli.NewCommand("append").
		WithSynopsis("append -dir journal [files]").
		WithDescription("append JSON documents to a journal, printing their sequence numbers").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return appendRecords(cfg, cc, args)
		})
	cfg.Append = cmd
	return cmd
}

func LogCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &LogConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	cmd := cli.NewCommand("log").
		WithSynopsis("log -dir journal").
		WithDescription("print every journal record with its sequence number and time").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return showLog(cfg, cc, args)
		})
	cfg.Log = cmd
	return cmd
}

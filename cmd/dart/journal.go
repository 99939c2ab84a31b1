package main

import (
	"fmt"
	"time"

	"github.com/scott-cotton/cli"

	"github.com/andreyvit/dart"
	"github.com/andreyvit/dart/journal"
)

const journalFileName = "dart-*.wal"

func openJournal(dir string) (*journal.Journal, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: -dir is required", cli.ErrUsage)
	}
	return journal.Open(dir, journal.Options{FileName: journalFileName})
}

func appendRecords(cfg *AppendConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Append.Parse(cc, args)
	if err != nil {
		return err
	}
	j, err := openJournal(cfg.Dir)
	if err != nil {
		return err
	}
	defer j.Close()
	err = readInputs(cc.In, args, func(_ string, data []byte) error {
		v, err := dart.ParseJSONWith(data, dart.ParseOptions{Finalize: true})
		if err != nil {
			return err
		}
		seq, err := j.Append(v)
		if err != nil {
			return err
		}
		fmt.Fprintln(cc.Out, seq)
		return nil
	})
	if err != nil {
		return err
	}
	return j.Commit()
}

func showLog(cfg *LogConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Log.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 0 {
		return fmt.Errorf("%w: unexpected arguments", cli.ErrUsage)
	}
	j, err := openJournal(cfg.Dir)
	if err != nil {
		return err
	}
	defer j.Close()
	p := newPrinter(cfg.colors(cc.Out), false)
	return j.Scan(func(rec journal.Record) error {
		fmt.Fprintf(cc.Out, "%d %s ", rec.Seq, rec.Time.UTC().Format(time.RFC3339))
		return p.write(cc.Out, rec.Value)
	})
}

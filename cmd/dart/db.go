package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/scott-cotton/cli"

	"github.com/andreyvit/dart"
	"github.com/andreyvit/dart/store"
)

func openStore(path string) (store.Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: -db is required", cli.ErrUsage)
	}
	return store.OpenBolt(path, store.Options{Timeout: 5 * time.Second})
}

func put(cfg *PutConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Put.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("%w: expected a key and at most one input file", cli.ErrUsage)
	}
	key := args[0]
	s, err := openStore(cfg.DB)
	if err != nil {
		return err
	}
	defer s.Close()
	return readInputs(cc.In, args[1:], func(_ string, data []byte) error {
		v, err := dart.ParseJSONWith(data, dart.ParseOptions{Finalize: true})
		if err != nil {
			return err
		}
		return s.Put(cfg.Bucket, key, v)
	})
}

func get(cfg *GetConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Get.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) < 1 {
		return fmt.Errorf("%w: expected a key", cli.ErrUsage)
	}
	s, err := openStore(cfg.DB)
	if err != nil {
		return err
	}
	defer s.Close()
	v, err := s.Get(cfg.Bucket, args[0])
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	v, err = descend(v, args[1:])
	if err != nil {
		return err
	}
	return newPrinter(cfg.colors(cc.Out), cfg.Indent).write(cc.Out, v)
}

// descend follows a path of object keys and array indexes.
func descend(v dart.Value, path []string) (dart.Value, error) {
	for _, elem := range path {
		var err error
		if v.IsArray() {
			i, perr := strconv.Atoi(elem)
			if perr != nil {
				return dart.Value{}, fmt.Errorf("%q is not an array index", elem)
			}
			v, err = v.Index(i)
		} else {
			v, err = v.Field(elem)
		}
		if err != nil {
			return dart.Value{}, fmt.Errorf("%s: %w", elem, err)
		}
	}
	return v, nil
}

func keys(cfg *KeysConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Keys.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 0 {
		return fmt.Errorf("%w: unexpected arguments", cli.ErrUsage)
	}
	s, err := openStore(cfg.DB)
	if err != nil {
		return err
	}
	defer s.Close()
	if cfg.Stats {
		st, err := s.Stats(cfg.Bucket)
		if err != nil {
			return err
		}
		fmt.Fprintf(cc.Out, "keys=%d size=%d alloc=%d\n", st.Keys, st.DataSize, st.DataAlloc)
		return nil
	}
	names, err := s.Keys(cfg.Bucket)
	if err != nil {
		return err
	}
	for _, k := range names {
		fmt.Fprintln(cc.Out, k)
	}
	return nil
}

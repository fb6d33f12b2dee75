/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/suparena/tablestore"
	"github.com/suparena/tablestore/config"
	"github.com/suparena/tablestore/storagemodels"
)

var (
	versionFlag = flag.Bool("version", false, "Show version information")
	vFlag       = flag.Bool("v", false, "Show version information (short)")
	configFlag  = flag.String("config", "", "Path to a YAML config file")
	envFlag     = flag.String("env", ".env", "Path to a .env file (skipped when missing)")
)

const usage = `Usage: tablectl [flags] <command> [args]

Commands:
  info <file>                     print the table descriptor
  keys <file>                     print every key
  dump <file>                     print every key and value
  copy [-overwrite] <src> <dst>   copy a table file

Flags:
`

func main() {
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *versionFlag || *vFlag {
		info := tablestore.GetVersionInfo()
		fmt.Printf("TableStore tablectl version %s\n", info.Version)
		fmt.Printf("Table format: v%d\n", info.FormatVersion)
		fmt.Printf("Git commit: %s\n", info.GitCommit)
		fmt.Printf("Build date: %s\n", info.BuildDate)
		fmt.Printf("Go version: %s\n", info.GoVersion)
		os.Exit(0)
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configFlag, *envFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	store := tablestore.NewStore(
		tablestore.WithConfig(cfg),
		tablestore.WithLogger(cfg.NewLogger(os.Stderr)),
	)

	ctx := context.Background()
	err = run(ctx, store, os.Stdout, flag.Arg(0), flag.Args()[1:])
	if closeErr := store.CloseAll(ctx); err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path, envFile string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if err := cfg.LoadEnv(config.DefaultEnvPrefix, envFile); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func run(ctx context.Context, store *tablestore.Store, out io.Writer, cmd string, args []string) error {
	switch cmd {
	case "info":
		return withTable(ctx, store, args, func(alias storagemodels.Alias) error {
			info, err := store.Info(ctx, alias)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(out)
			defer enc.Close()
			return enc.Encode(info)
		})

	case "keys":
		return withTable(ctx, store, args, func(alias storagemodels.Alias) error {
			cursor, err := store.KeysStream(ctx, alias)
			if err != nil {
				return err
			}
			for cursor.Next(ctx) {
				fmt.Fprintln(out, cursor.Key())
			}
			return cursor.Err()
		})

	case "dump":
		return withTable(ctx, store, args, func(alias storagemodels.Alias) error {
			cursor, err := store.ToStream(ctx, alias)
			if err != nil {
				return err
			}
			for cursor.Next(ctx) {
				fmt.Fprintf(out, "%s\t%v\n", cursor.Key(), cursor.Value())
			}
			return cursor.Err()
		})

	case "copy":
		fs := flag.NewFlagSet("copy", flag.ContinueOnError)
		overwrite := fs.Bool("overwrite", false, "Replace an existing target file")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() != 2 {
			return fmt.Errorf("copy needs <src> and <dst>")
		}
		return withTable(ctx, store, fs.Args()[:1], func(alias storagemodels.Alias) error {
			return store.SaveAs(ctx, alias, fs.Arg(1), storagemodels.WithOverwrite(*overwrite))
		})
	}
	return fmt.Errorf("unknown command %q", cmd)
}

// withTable opens the file named by args[0] under a private alias.
func withTable(ctx context.Context, store *tablestore.Store, args []string, fn func(storagemodels.Alias) error) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one table file")
	}
	const alias storagemodels.Alias = "tablectl"
	if _, err := store.Open(ctx, alias, storagemodels.OnDisk(args[0])); err != nil {
		return err
	}
	return fn(alias)
}

// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"unicode"

	"github.com/naoina/toml"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/neatc/internal/log"
	"github.com/probechain/neatc/lang/compiler"
)

var (
	dumpConfigCommand = cli.Command{
		Action:      dumpConfig,
		Name:        "dumpconfig",
		Usage:       "Show configuration values",
		ArgsUsage:   "[file]",
		Category:    "MISCELLANEOUS COMMANDS",
		Description: `The dumpconfig command shows the effective configuration in TOML form.`,
	}

	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

type neatcConfig struct {
	Compiler compiler.Config
}

func loadConfig(file string, cfg *neatcConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// makeConfig loads the defaults, then the config file, then the flags.
func makeConfig(ctx *cli.Context) neatcConfig {
	cfg := neatcConfig{Compiler: compiler.Defaults}

	if file := ctx.GlobalString(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			Fatalf("%v", err)
		}
	}
	applyCompilerFlags(ctx, &cfg.Compiler)
	return cfg
}

func applyCompilerFlags(ctx *cli.Context, cfg *compiler.Config) {
	if ctx.GlobalIsSet(optimizeFlag.Name) {
		cfg.Optimize = ctx.GlobalBool(optimizeFlag.Name)
	}
	if ctx.GlobalIsSet(noVerifyFlag.Name) {
		cfg.Verify = !ctx.GlobalBool(noVerifyFlag.Name)
	}
	if ctx.GlobalIsSet(cacheDirFlag.Name) {
		cfg.CacheDir = ctx.GlobalString(cacheDirFlag.Name)
	}
	if ctx.GlobalIsSet(cacheSizeFlag.Name) {
		cfg.CacheSize = ctx.GlobalInt(cacheSizeFlag.Name)
	}
	if ctx.GlobalIsSet(maxStepsFlag.Name) {
		cfg.MaxSteps = ctx.GlobalUint64(maxStepsFlag.Name)
	}
}

// makeCompiler creates a compiler from the effective configuration.
func makeCompiler(ctx *cli.Context) *compiler.Compiler {
	cfg := makeConfig(ctx)
	c, err := compiler.New(cfg.Compiler)
	if err != nil {
		Fatalf("Failed to create the compiler: %v", err)
	}
	log.Debug("Created compiler", "optimize", cfg.Compiler.Optimize, "verify", cfg.Compiler.Verify,
		"cache", cfg.Compiler.CacheSize, "cachedir", cfg.Compiler.CacheDir)
	return c
}

// dumpConfig is the dumpconfig command.
func dumpConfig(ctx *cli.Context) error {
	cfg := makeConfig(ctx)
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}

	dump := os.Stdout
	if ctx.NArg() > 0 {
		dump, err = os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer dump.Close()
	}
	dump.Write(out)
	return nil
}

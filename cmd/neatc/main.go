// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// neatc is the command line front end of the neat compiler.
package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/neatc/internal/log"
)

const clientIdentifier = "neatc"

var (
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value: 2,
	}
	outputFlag = cli.StringFlag{
		Name:  "output, o",
		Usage: "Write output to `FILE` instead of stdout",
	}
	optimizeFlag = cli.BoolFlag{
		Name:  "optimize, O",
		Usage: "Simplify the control-flow graph of every function",
	}
	noVerifyFlag = cli.BoolFlag{
		Name:  "noverify",
		Usage: "Skip the structural verifier",
	}
	cacheDirFlag = cli.StringFlag{
		Name:  "cache.dir",
		Usage: "Directory of the persistent compilation cache",
	}
	cacheSizeFlag = cli.IntFlag{
		Name:  "cache.size",
		Usage: "Number of compiled units kept in memory (0 disables caching)",
		Value: 64,
	}
	maxStepsFlag = cli.Uint64Flag{
		Name:  "maxsteps",
		Usage: "Interpreter step budget per call (0 means unlimited)",
		Value: 1000000,
	}
	compactFlag = cli.BoolFlag{
		Name:  "compact",
		Usage: "Print the syntax tree in source form",
	}
	historyFlag = cli.StringFlag{
		Name:  "history",
		Usage: "REPL history file",
		Value: ".neatc_history",
	}
)

var app = newApp()

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = clientIdentifier
	app.Usage = "the neat language compiler"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		configFileFlag,
		verbosityFlag,
		optimizeFlag,
		noVerifyFlag,
		cacheDirFlag,
		cacheSizeFlag,
		maxStepsFlag,
	}
	app.Commands = []cli.Command{
		buildCommand,
		tokensCommand,
		astCommand,
		runCommand,
		replCommand,
		dumpConfigCommand,
	}
	app.Before = func(ctx *cli.Context) error {
		runtime.GOMAXPROCS(runtime.NumCPU())
		return setupLogging(ctx)
	}
	return app
}

func setupLogging(ctx *cli.Context) error {
	v := ctx.GlobalInt(verbosityFlag.Name)
	if v <= 0 {
		log.Root().SetHandler(log.DiscardHandler())
		return nil
	}
	lvl := log.Lvl(v)
	if lvl > log.LvlTrace {
		lvl = log.LvlTrace
	}
	log.Root().SetHandler(log.TerminalHandler(lvl))
	return nil
}

// Fatalf formats a message to standard error and exits the program.
// The message is also printed to standard output if standard error
// is redirected to a different file.
func Fatalf(format string, args ...interface{}) {
	w := io.MultiWriter(os.Stdout, os.Stderr)
	if runtime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
		// stdout is unlikely to get redirected though, so just print there.
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		}
	}
	fmt.Fprintf(w, "Fatal: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

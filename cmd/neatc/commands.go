// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"github.com/davecgh/go-spew/spew"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/neatc/internal/source"
	"github.com/probechain/neatc/lang/diag"
	"github.com/probechain/neatc/lang/lexer"
	"github.com/probechain/neatc/lang/parser"
)

var (
	buildCommand = cli.Command{
		Action:    build,
		Name:      "build",
		Usage:     "Compile a source file and print its module",
		ArgsUsage: "<file>",
		Flags:     []cli.Flag{outputFlag},
		Category:  "COMPILER COMMANDS",
		Description: `
The build command compiles a source file ("-" reads stdin) and prints the
resulting module. The exit status is 1 if any error was reported.`,
	}
	tokensCommand = cli.Command{
		Action:    dumpTokens,
		Name:      "tokens",
		Usage:     "Print the token stream of a source file",
		ArgsUsage: "<file>",
		Category:  "DEBUG COMMANDS",
	}
	astCommand = cli.Command{
		Action:    dumpAST,
		Name:      "ast",
		Usage:     "Print the syntax tree of a source file",
		ArgsUsage: "<file>",
		Flags:     []cli.Flag{compactFlag},
		Category:  "DEBUG COMMANDS",
	}
	runCommand = cli.Command{
		Action:    run,
		Name:      "run",
		Usage:     "Compile a source file and call one of its functions",
		ArgsUsage: "<file> <function> [int arguments...]",
		Category:  "COMPILER COMMANDS",
	}
)

// signalContext returns a context cancelled on the first interrupt.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func readSource(ctx *cli.Context) (string, string) {
	if ctx.NArg() < 1 {
		Fatalf("This command requires a source file argument")
	}
	name := ctx.Args().First()
	src, err := source.Read(name, os.Stdin)
	if err != nil {
		Fatalf("Failed to read source: %v", err)
	}
	if name == "-" {
		name = "<stdin>"
	}
	return name, src
}

// printDiagnostics writes msgs to stderr and reports whether any error was
// among them.
func printDiagnostics(msgs *diag.Messages) bool {
	msgs.Print(os.Stderr)
	return msgs.HasErrors()
}

func build(ctx *cli.Context) error {
	name, src := readSource(ctx)
	c := makeCompiler(ctx)
	defer c.Close()

	sctx, cancel := signalContext()
	defer cancel()
	res, err := c.Compile(sctx, name, src)
	if err != nil {
		return err
	}
	if printDiagnostics(res.Diagnostics) {
		return cli.NewExitError("", 1)
	}

	var out io.Writer = os.Stdout
	if path := ctx.String(outputFlag.Name); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	_, err = io.WriteString(out, res.Text)
	return err
}

func dumpTokens(ctx *cli.Context) error {
	name, src := readSource(ctx)
	msgs := new(diag.Messages)
	lex := lexer.New(name, src, msgs)
	toks := lex.Tokenize()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Position", "Kind", "Literal"})
	table.SetAutoWrapText(false)
	for _, tok := range toks {
		table.Append([]string{
			lex.File().Position(tok.Pos).String(),
			tok.Type.String(),
			strconv.Quote(tok.Literal),
		})
	}
	table.Render()

	if printDiagnostics(msgs) {
		return cli.NewExitError("", 1)
	}
	return nil
}

func dumpAST(ctx *cli.Context) error {
	name, src := readSource(ctx)
	prog, msgs := parser.Parse(name, src)
	if printDiagnostics(msgs) || prog == nil {
		return cli.NewExitError("", 1)
	}
	if ctx.Bool(compactFlag.Name) {
		fmt.Println(prog)
		return nil
	}
	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true}
	cfg.Dump(prog)
	return nil
}

func run(ctx *cli.Context) error {
	if ctx.NArg() < 2 {
		Fatalf("Usage: %s run <file> <function> [int arguments...]", clientIdentifier)
	}
	name, src := readSource(ctx)
	fn := ctx.Args().Get(1)
	var args []int64
	for _, a := range ctx.Args()[2:] {
		v, err := strconv.ParseInt(a, 0, 64)
		if err != nil {
			Fatalf("Invalid argument %q: %v", a, err)
		}
		args = append(args, v)
	}

	c := makeCompiler(ctx)
	defer c.Close()
	sctx, cancel := signalContext()
	defer cancel()

	res, err := c.Build(sctx, name, src)
	if err != nil {
		return err
	}
	if printDiagnostics(res.Diagnostics) {
		return cli.NewExitError("", 1)
	}
	v, err := c.Run(sctx, res, fn, args...)
	if err != nil {
		return err
	}
	fmt.Println(v)
	return nil
}

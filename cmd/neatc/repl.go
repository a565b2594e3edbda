// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/neatc/lang/compiler"
)

const (
	promptMain = "neat> "
	promptCont = "....> "
	replUnit   = "<repl>"
)

var replCommand = cli.Command{
	Action:   repl,
	Name:     "repl",
	Usage:    "Start an interactive session",
	Flags:    []cli.Flag{historyFlag},
	Category: "COMPILER COMMANDS",
	Description: `
Each entry is either a function definition, which is added to the session,
or an int expression, which is evaluated against the functions defined so
far. Type :help for the list of session commands.`,
}

// session holds the function definitions entered so far.
type session struct {
	c     *compiler.Compiler
	defs  []string
	evals int
}

func (s *session) source(extra string) string {
	return strings.Join(append(append([]string(nil), s.defs...), extra), "\n")
}

// define adds a function definition if the session still compiles with it.
func (s *session) define(ctx context.Context, def string, out io.Writer) {
	res, err := s.c.Build(ctx, replUnit, s.source(def))
	if err != nil {
		fmt.Fprintln(out, err)
		return
	}
	if res.Diagnostics.HasErrors() {
		res.Diagnostics.Print(out)
		return
	}
	s.defs = append(s.defs, def)
}

// eval evaluates expr inside a synthesized function.
func (s *session) eval(ctx context.Context, expr string, out io.Writer) {
	fn := fmt.Sprintf("repl%d", s.evals)
	s.evals++
	wrapper := fmt.Sprintf("fn %s() -> int { return %s; }", fn, strings.TrimSuffix(expr, ";"))
	res, err := s.c.Build(ctx, replUnit, s.source(wrapper))
	if err != nil {
		fmt.Fprintln(out, err)
		return
	}
	if res.Diagnostics.HasErrors() {
		res.Diagnostics.Print(out)
		return
	}
	v, err := s.c.Run(ctx, res, fn)
	if err != nil {
		fmt.Fprintln(out, err)
		return
	}
	fmt.Fprintln(out, v)
}

// command handles a line starting with ':'. It returns true to end the
// session.
func (s *session) command(ctx context.Context, line string, out io.Writer) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":q":
		return true
	case ":help":
		fmt.Fprintln(out, ":defs    list the functions defined so far")
		fmt.Fprintln(out, ":ir      print the module of the session")
		fmt.Fprintln(out, ":reset   forget every definition")
		fmt.Fprintln(out, ":quit    leave the session")
	case ":defs":
		for _, d := range s.defs {
			fmt.Fprintln(out, d)
		}
	case ":ir":
		res, err := s.c.Build(ctx, replUnit, s.source(""))
		if err != nil {
			fmt.Fprintln(out, err)
			break
		}
		fmt.Fprint(out, res.Text)
	case ":reset":
		s.defs = nil
	default:
		fmt.Fprintf(out, "unknown command %s, try :help\n", fields[0])
	}
	return false
}

// handle processes one complete entry.
func (s *session) handle(ctx context.Context, entry string, out io.Writer) bool {
	entry = strings.TrimSpace(entry)
	switch {
	case entry == "":
	case strings.HasPrefix(entry, ":"):
		return s.command(ctx, entry, out)
	case strings.HasPrefix(entry, "fn ") || strings.HasPrefix(entry, "fn\t"):
		s.define(ctx, entry, out)
	default:
		s.eval(ctx, entry, out)
	}
	return false
}

// braceDepth returns the number of unclosed braces in src.
func braceDepth(src string) int {
	return strings.Count(src, "{") - strings.Count(src, "}")
}

// readEntry reads lines until the braces of the entry balance.
func readEntry(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl+C drops the current entry.
			return "", true
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if braceDepth(b.String()) <= 0 {
			return b.String(), true
		}
	}
}

func repl(ctx *cli.Context) error {
	c := makeCompiler(ctx)
	defer c.Close()
	s := &session{c: c}

	histPath := ctx.String(historyFlag.Name)
	if !filepath.IsAbs(histPath) {
		if home, err := os.UserHomeDir(); err == nil {
			histPath = filepath.Join(home, histPath)
		}
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	if f, err := os.Open(histPath); err == nil {
		ln.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("%s %s, type :help for help\n", clientIdentifier, ctx.App.Version)
	for {
		entry, ok := readEntry(ln)
		if !ok {
			fmt.Println()
			break
		}
		if strings.TrimSpace(entry) != "" {
			ln.AppendHistory(strings.ReplaceAll(entry, "\n", " "))
		}
		if s.handle(context.Background(), entry, os.Stdout) {
			break
		}
	}

	if f, err := os.Create(histPath); err == nil {
		ln.WriteHistory(f)
		f.Close()
	}
	return nil
}

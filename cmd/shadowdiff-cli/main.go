// Command shadowdiff-cli diffs two JSON-encoded shadow-node trees and
// prints the resulting mutations, or inspects a msgpack-encoded delta
// blob produced by the producer package.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/leowmjw/shadowdiff/differ"
	"github.com/leowmjw/shadowdiff/shadowtree"
	"github.com/leowmjw/shadowdiff/tools"
	"github.com/leowmjw/shadowdiff/wire"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "diff":
		err = runDiff(os.Args[2:])
	case "inspect":
		err = runInspect(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		slog.Error("shadowdiff-cli failed", "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: shadowdiff-cli <diff|inspect> [flags]")
}

func runDiff(args []string) error {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	reparenting := fs.Bool("reparenting", true, "enable reparenting detection")
	format := fs.String("format", "pretty", "output format: pretty or json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("diff requires exactly two tree files: old.json new.json")
	}

	oldRoot, err := loadTree(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("load old tree: %w", err)
	}
	newRoot, err := loadTree(fs.Arg(1))
	if err != nil {
		return fmt.Errorf("load new tree: %w", err)
	}

	muts := differ.CalculateShadowViewMutations(oldRoot, newRoot, *reparenting)

	out := tools.Pretty
	if *format == "json" {
		out = tools.JSONLines
	}
	fmt.Print(tools.NewStringifier(out).Stringify(muts))
	return nil
}

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	format := fs.String("format", "pretty", "output format: pretty or json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("inspect requires exactly one delta file")
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("read delta file: %w", err)
	}

	muts, err := wire.DecodeMutations(data)
	if err != nil {
		return fmt.Errorf("decode delta file: %w", err)
	}

	out := tools.Pretty
	if *format == "json" {
		out = tools.JSONLines
	}
	fmt.Print(tools.NewStringifier(out).Stringify(muts))
	return nil
}

func loadTree(path string) (*shadowtree.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var root shadowtree.Node
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return &root, nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/mikesmullin/tcow/internal/ops"
)

const compactHelp = `tcow compact <file.tcow> [-output path] [-in-place] [-dry-run]

Rebuild the union view as a single fresh Base layer (spec §4.8),
either writing it to -output or, with -in-place, atomically replacing
the source file. -dry-run reports the entry count without writing
anything.`

func cmdCompact(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("compact", flag.ExitOnError)
	output := fset.String("output", "", "path to write the compacted file to")
	inPlace := fset.Bool("in-place", false, "atomically replace the source file")
	dryRun := fset.Bool("dry-run", false, "report what would change without writing")
	fset.Usage = usage(fset, compactHelp)
	fset.Parse(args)

	path, rest, err := resolvePath(fset.Args())
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return die("compact takes no arguments besides the file path")
	}
	if !*inPlace && !*dryRun && *output == "" {
		return die("compact requires -output, -in-place, or -dry-run")
	}

	s, err := openSession(path, *inPlace)
	if err != nil {
		return err
	}
	defer s.close()

	result, err := ops.Compact(s.f, ops.CompactOptions{
		OutputPath: *output,
		InPlace:    *inPlace,
		DryRun:     *dryRun,
		Now:        time.Now(),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "compact: %d layers -> 1, %d entries\n", result.LayersBefore, result.EntryCount)
	return nil
}

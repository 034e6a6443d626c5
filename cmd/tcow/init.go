package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/mikesmullin/tcow/internal/file"
)

const initHelp = `tcow init <file.tcow>

Create a new, empty .tcow file: a header, a single Base layer holding
only the end-of-archive marker, a trailer with one descriptor, and a
footer (spec §4.4's create-empty procedure). The path must not already
exist. Supplemental to the CLI contracts listed in spec §6, needed
before any of insert/delete/snapshot/compact have a file to operate
on.`

func cmdInit(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("init", flag.ExitOnError)
	fset.Usage = usage(fset, initHelp)
	fset.Parse(args)

	path, rest, err := resolvePath(fset.Args())
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return die("init takes no arguments besides the file path")
	}

	if err := file.CreateEmpty(path, time.Now()); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "initialized %s\n", path)
	return nil
}

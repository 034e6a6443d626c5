// Command tcow is the CLI collaborator for the .tcow single-file
// copy-on-write virtual filesystem format: it exposes info, layers, ls,
// cat, stat, insert, delete, extract, snapshot, compact, verify, and
// mount as subcommands over the internal/file, internal/cow,
// internal/union, and internal/ops primitives. Its verb-dispatch table
// is grounded on cmd/distri/distri.go's funcmain/verbs map shape,
// generalized from distri's build-farm command set down to this
// format's operations.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mikesmullin/tcow"
	"github.com/mikesmullin/tcow/internal/tcowerr"
)

var stdout = os.Stdout

// debug gates %+v (stack-ful, via xerrors) vs %v error formatting at the
// top-level handler, matching the teacher's own -debug flag.
var debug = flag.Bool("debug", false, "format error messages with additional detail")

var versionFlag = flag.Bool("version", false, "print the tcow binary's version and exit")

type cmd struct {
	fn func(ctx context.Context, args []string) error
}

func verbs() map[string]cmd {
	return map[string]cmd{
		"init":     {cmdInit},
		"info":     {cmdInfo},
		"layers":   {cmdLayers},
		"ls":       {cmdLs},
		"cat":      {cmdCat},
		"stat":     {cmdStat},
		"insert":   {cmdInsert},
		"delete":   {cmdDelete},
		"extract":  {cmdExtract},
		"snapshot": {cmdSnapshot},
		"compact":  {cmdCompact},
		"verify":   {cmdVerify},
		"mount":    {cmdMount},
	}
}

// exitCode maps the spec §7 error taxonomy to the spec §6 exit codes:
// 1 generic, 2 format/structural, 3 not-found, 4 integrity failure.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var fe *tcowerr.FormatError
	if errors.As(err, &fe) {
		return 2
	}
	if errors.Is(err, tcowerr.ErrNotFound) {
		return 3
	}
	var ie *tcowerr.IntegrityError
	if errors.As(err, &ie) {
		return 4
	}
	return 1
}

func run() int {
	flag.Parse()
	initColor()
	initLogging()

	if *versionFlag {
		fmt.Fprintf(stdout, "tcow %s (format version %d)\n", tcow.BuildVersion, tcow.Version)
		return 0
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: tcow <command> [options] <file.tcow> [args]")
		printVerbList()
		return 1
	}

	verb, rest := args[0], args[1:]
	if verb == "help" {
		printVerbList()
		return 0
	}
	if verb == "version" {
		fmt.Fprintf(stdout, "tcow %s (format version %d)\n", tcow.BuildVersion, tcow.Version)
		return 0
	}

	v, ok := verbs()[verb]
	if !ok {
		fmt.Fprintf(os.Stderr, "tcow: unknown command %q\n", verb)
		printVerbList()
		return 1
	}

	ctx, cancel := tcow.InterruptibleContext()
	defer cancel()

	logDebugf("dispatching %s %v", verb, rest)
	if err := v.fn(ctx, rest); err != nil {
		if *debug {
			fmt.Fprintf(os.Stderr, "tcow %s: %+v\n", verb, err)
		} else {
			fmt.Fprintf(os.Stderr, "tcow %s: %v\n", verb, err)
		}
		code := exitCode(err)
		if rerr := tcow.RunAtExit(); rerr != nil {
			fmt.Fprintf(os.Stderr, "tcow: %v\n", rerr)
		}
		return code
	}

	if err := tcow.RunAtExit(); err != nil {
		fmt.Fprintf(os.Stderr, "tcow: %v\n", err)
		return 1
	}
	return 0
}

func printVerbList() {
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "\tinit      - create a new, empty .tcow file")
	fmt.Fprintln(os.Stderr, "\tinfo      - read trailer, print summary")
	fmt.Fprintln(os.Stderr, "\tlayers    - print per-layer metadata (table or --json)")
	fmt.Fprintln(os.Stderr, "\tls        - list the union view, a single layer, or all layers")
	fmt.Fprintln(os.Stderr, "\tcat       - print a file's content")
	fmt.Fprintln(os.Stderr, "\tstat      - print a file's metadata")
	fmt.Fprintln(os.Stderr, "\tinsert    - write a file and flush")
	fmt.Fprintln(os.Stderr, "\tdelete    - whiteout a file and flush")
	fmt.Fprintln(os.Stderr, "\textract   - copy the union view out to host paths")
	fmt.Fprintln(os.Stderr, "\tsnapshot  - force-flush a checkpoint, optionally labeled")
	fmt.Fprintln(os.Stderr, "\tcompact   - rebuild as a single Base layer")
	fmt.Fprintln(os.Stderr, "\tverify    - re-digest layers and report integrity")
	fmt.Fprintln(os.Stderr, "\tmount     - project the union view read-only via FUSE")
}

package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/mikesmullin/tcow/internal/ops"
)

const infoHelp = `tcow info <file.tcow> [-verify]

Print a summary of the file: format version, layer count, label, and
last-modified timestamp from the trailer. -verify additionally
re-digests every layer in the same pass, composing info and verify
the way fusectl composes fuse.Mount with a control socket.`

func cmdInfo(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("info", flag.ExitOnError)
	verify := fset.Bool("verify", false, "also re-digest every layer and report mismatches")
	fset.Usage = usage(fset, infoHelp)
	fset.Parse(args)

	path, rest, err := resolvePath(fset.Args())
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return die("info takes no arguments besides the file path")
	}

	s, err := openSession(path, false)
	if err != nil {
		return err
	}
	defer s.close()

	t := s.f.Trailer()
	label := "(none)"
	if t.Label != nil {
		label = *t.Label
	}
	fmt.Fprintf(stdout, "%s\n", colorBold(path))
	fmt.Fprintf(stdout, "format version: %d\n", t.FormatVersion)
	fmt.Fprintf(stdout, "layers:         %d\n", len(t.Layers))
	fmt.Fprintf(stdout, "label:          %s\n", label)
	fmt.Fprintf(stdout, "last modified:  %s\n", t.LastModified)

	if !*verify {
		return nil
	}

	result, err := ops.Verify(s.f)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout)
	printVerifyReport(result)
	return verifyErr(result)
}

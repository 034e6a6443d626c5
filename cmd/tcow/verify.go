package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/mikesmullin/tcow/internal/ops"
	"github.com/mikesmullin/tcow/internal/tcowerr"
)

const verifyHelp = `tcow verify <file.tcow> [-fix-missing]

Re-hash every digested layer and report mismatches (spec §4.8).
Layers without a stored digest are reported skipped. -fix-missing
then stamps digests for them via a trailer rewrite (no new layer is
appended).`

func cmdVerify(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("verify", flag.ExitOnError)
	fixMissing := fset.Bool("fix-missing", false, "stamp digests onto undigested layers")
	fset.Usage = usage(fset, verifyHelp)
	fset.Parse(args)

	path, rest, err := resolvePath(fset.Args())
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return die("verify takes no arguments besides the file path")
	}

	s, err := openSession(path, *fixMissing)
	if err != nil {
		return err
	}
	defer s.close()

	result, err := ops.Verify(s.f)
	if err != nil {
		return err
	}
	printVerifyReport(result)

	if *fixMissing {
		fixed, err := ops.FixMissing(s.f, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "fixed %d missing digest(s)\n", fixed)
	}

	return verifyErr(result)
}

// printVerifyReport prints one line per layer's verdict; shared with
// `info -verify` so the two subcommands render identically.
func printVerifyReport(result *ops.VerifyResult) {
	for _, v := range result.Layers {
		switch {
		case v.Skipped:
			fmt.Fprintf(stdout, "layer %d (%s): %s\n", v.Index, v.Kind, colorDim("skipped (no digest)"))
		case v.OK:
			fmt.Fprintf(stdout, "layer %d (%s): %s\n", v.Index, v.Kind, colorOK("ok"))
		default:
			fmt.Fprintf(stdout, "layer %d (%s): %s want=%s got=%s\n", v.Index, v.Kind, colorBad("MISMATCH"), v.Want, v.Got)
		}
	}
}

// verifyErr turns the first failing, non-skipped verdict into the
// spec §7 IntegrityError, or nil when result.OK.
func verifyErr(result *ops.VerifyResult) error {
	if result.OK {
		return nil
	}
	for _, v := range result.Layers {
		if !v.Skipped && !v.OK {
			return &tcowerr.IntegrityError{LayerIndex: v.Index, Want: v.Want, Got: v.Got}
		}
	}
	return nil
}

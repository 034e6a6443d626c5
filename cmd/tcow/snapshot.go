package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/mikesmullin/tcow/internal/ops"
)

const snapshotHelp = `tcow snapshot <file.tcow> [-label text]

Force-flush a checkpoint layer, even if the writable buffer is empty,
optionally stamping a new label (spec §4.8).`

func cmdSnapshot(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("snapshot", flag.ExitOnError)
	labelFlag := fset.String("label", "", "set the trailer label")
	fset.Usage = usage(fset, snapshotHelp)
	fset.Parse(args)

	path, rest, err := resolvePath(fset.Args())
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return die("snapshot takes no arguments besides the file path")
	}

	s, err := openSession(path, true)
	if err != nil {
		return err
	}
	defer s.close()

	var label *string
	if *labelFlag != "" {
		label = labelFlag
	}

	desc, err := ops.Snapshot(s.f, label, time.Now())
	if err != nil {
		return err
	}
	if desc == nil {
		fmt.Fprintln(stdout, "snapshot: nothing to flush")
		return nil
	}
	fmt.Fprintf(stdout, "snapshot: wrote %s layer at offset %d (%d bytes)\n", desc.Kind, desc.Offset, desc.Size)
	return nil
}

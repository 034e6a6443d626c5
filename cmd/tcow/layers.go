package main

import (
	"context"
	"flag"
	"fmt"
)

const layersHelp = `tcow layers <file.tcow>

Print the trailer's per-layer descriptors: index, offset, size, kind,
digest presence, and creation time.`

type layerRow struct {
	Index     int    `json:"index"`
	Offset    uint64 `json:"offset"`
	Size      uint64 `json:"size"`
	Kind      string `json:"kind"`
	Digest    string `json:"digest,omitempty"`
	CreatedAt string `json:"created_at"`
}

func cmdLayers(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("layers", flag.ExitOnError)
	asJSON := fset.Bool("json", false, "print as JSON instead of a table")
	fset.Usage = usage(fset, layersHelp)
	fset.Parse(args)

	path, rest, err := resolvePath(fset.Args())
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return die("layers takes no arguments besides the file path")
	}

	s, err := openSession(path, false)
	if err != nil {
		return err
	}
	defer s.close()

	descs := s.f.Store().Descriptors()
	rows := make([]layerRow, len(descs))
	for i, d := range descs {
		row := layerRow{Index: i, Offset: d.Offset, Size: d.Size, Kind: string(d.Kind), CreatedAt: d.CreatedAt}
		if d.Digest != nil {
			row.Digest = *d.Digest
		}
		rows[i] = row
	}

	if *asJSON {
		return printJSON(rows)
	}

	fmt.Fprintf(stdout, "%-5s %-10s %-10s %-7s %-10s %s\n", "IDX", "OFFSET", "SIZE", "KIND", "DIGEST", "CREATED")
	for _, r := range rows {
		digest := colorDim("(none)")
		if r.Digest != "" {
			digest = colorOK(r.Digest[:12])
		}
		fmt.Fprintf(stdout, "%-5d %-10d %-10d %-7s %-10s %s\n", r.Index, r.Offset, r.Size, r.Kind, digest, r.CreatedAt)
	}
	return nil
}

package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/mikesmullin/tcow/internal/union"
)

const lsHelp = `tcow ls <file.tcow> [prefix]

List the union view under prefix (default: root). -layer N restricts
the listing to a single on-disk layer, including its whiteout markers.
-all lists every layer's raw entries, tagging each as hidden/whiteout
relative to the union winner. -show-whiteouts is shorthand for -all.
Every listed ".wh.<name>" entry is marked "[whiteout]".`

type lsRow struct {
	Path     string `json:"path"`
	Layer    int    `json:"layer"`
	Size     int64  `json:"size"`
	Typeflag string `json:"typeflag"`
	Hidden   bool   `json:"hidden,omitempty"`
	Whiteout bool   `json:"whiteout,omitempty"`
}

func cmdLs(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("ls", flag.ExitOnError)
	layerFlag := fset.Int("layer", -1, "list only this on-disk layer index")
	all := fset.Bool("all", false, "list every layer's raw entries")
	showWhiteouts := fset.Bool("show-whiteouts", false, "list every layer's raw entries, annotating whiteout markers")
	asJSON := fset.Bool("json", false, "print as JSON instead of a table")
	fset.Usage = usage(fset, lsHelp)
	fset.Parse(args)

	path, rest, err := resolvePath(fset.Args())
	if err != nil {
		return err
	}
	prefix := ""
	if len(rest) > 0 {
		prefix = rest[0]
	}

	s, err := openSession(path, false)
	if err != nil {
		return err
	}
	defer s.close()

	mode := union.ModeUnion
	if *all || *showWhiteouts {
		mode = union.ModeAll
	} else if *layerFlag >= 0 {
		mode = union.ModeSingleLayer
	}

	visible, err := union.List(s.f.Store(), s.f.Engine().Buffer(), prefix, mode, *layerFlag)
	if err != nil {
		return err
	}

	rows := make([]lsRow, len(visible))
	for i, v := range visible {
		rows[i] = lsRow{
			Path:     v.Path,
			Layer:    v.LayerIndex,
			Size:     v.Entry.Size,
			Typeflag: string(v.Entry.Typeflag),
			Hidden:   v.Hidden,
			Whiteout: v.Whiteout,
		}
	}

	if *asJSON {
		return printJSON(rows)
	}

	for _, r := range rows {
		marker := ""
		if r.Whiteout {
			marker = colorBad(" [whiteout]")
		} else if r.Hidden {
			marker = colorDim(" [hidden]")
		}
		fmt.Fprintf(stdout, "%3d  %8d  %s%s\n", r.Layer, r.Size, r.Path, marker)
	}
	return nil
}

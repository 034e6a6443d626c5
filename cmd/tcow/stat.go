package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/mikesmullin/tcow/internal/tcowerr"
	"github.com/mikesmullin/tcow/internal/union"
)

const statHelp = `tcow stat <file.tcow> <path>

Print path's union-view metadata: layer index, size, mode, owner, and
modification time. -show-whiteouts reports a whited-out path as such
instead of a bare not-found error.`

func cmdStat(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("stat", flag.ExitOnError)
	asJSON := fset.Bool("json", false, "print as JSON instead of a table")
	showWhiteouts := fset.Bool("show-whiteouts", false, "distinguish a whiteout from a plain not-found")
	fset.Usage = usage(fset, statHelp)
	fset.Parse(args)

	path, rest, err := resolvePath(fset.Args())
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return die("usage: tcow stat <file.tcow> <path>")
	}
	target := rest[0]

	s, err := openSession(path, false)
	if err != nil {
		return err
	}
	defer s.close()

	res, err := union.Lookup(s.f.Store(), s.f.Engine().Buffer(), target)
	if err != nil {
		return err
	}
	if res.Kind == union.Whiteout && *showWhiteouts {
		return die("%s is whited out in layer %d", target, res.LayerIndex)
	}
	if res.Kind != union.Found {
		return tcowerr.ErrNotFound
	}

	e := res.Entry
	if *asJSON {
		return printJSON(struct {
			Path     string `json:"path"`
			Layer    int    `json:"layer"`
			Size     int64  `json:"size"`
			Mode     int64  `json:"mode"`
			UID      int64  `json:"uid"`
			GID      int64  `json:"gid"`
			ModTime  string `json:"mod_time"`
			Typeflag string `json:"typeflag"`
		}{target, res.LayerIndex, e.Size, e.Mode, e.UID, e.GID, e.ModTime.UTC().Format("2006-01-02T15:04:05Z"), string(e.Typeflag)})
	}

	fmt.Fprintf(stdout, "path:     %s\n", target)
	fmt.Fprintf(stdout, "layer:    %d\n", res.LayerIndex)
	fmt.Fprintf(stdout, "size:     %d\n", e.Size)
	fmt.Fprintf(stdout, "mode:     %o\n", e.Mode)
	fmt.Fprintf(stdout, "uid/gid:  %d/%d\n", e.UID, e.GID)
	fmt.Fprintf(stdout, "modtime:  %s\n", e.ModTime.UTC().Format("2006-01-02T15:04:05Z"))
	return nil
}

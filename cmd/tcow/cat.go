package main

import (
	"context"
	"flag"

	"github.com/mikesmullin/tcow/internal/tarcodec"
	"github.com/mikesmullin/tcow/internal/tcowerr"
	"github.com/mikesmullin/tcow/internal/union"
)

const catHelp = `tcow cat <file.tcow> <path>

Print the union view's content of path to stdout. -show-whiteouts
reports a whited-out path as such on stderr instead of a bare
not-found error.`

func cmdCat(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("cat", flag.ExitOnError)
	showWhiteouts := fset.Bool("show-whiteouts", false, "distinguish a whiteout from a plain not-found")
	fset.Usage = usage(fset, catHelp)
	fset.Parse(args)

	path, rest, err := resolvePath(fset.Args())
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return die("usage: tcow cat <file.tcow> <path>")
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
	switch res.Kind {
	case union.NotFound, union.Whiteout:
		return tcowerr.ErrNotFound
	}
	if res.Entry.Typeflag == tarcodec.TypeDir {
		return die("%s is a directory", target)
	}
	_, err = stdout.Write(res.Entry.Content)
	return err
}

package main

import (
	"context"
	"flag"

	"github.com/mikesmullin/tcow/internal/mountfs"
)

const mountHelp = `tcow mount <file.tcow> <mountpoint>

Project the union view as a read-only FUSE filesystem at mountpoint
until interrupted (spec-supplemental; see SPEC_FULL.md). The view is
a static snapshot taken at mount time.`

func cmdMount(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("mount", flag.ExitOnError)
	fset.Usage = usage(fset, mountHelp)
	fset.Parse(args)

	path, rest, err := resolvePath(fset.Args())
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return die("usage: tcow mount <file.tcow> <mountpoint>")
	}
	mountpoint := rest[0]

	s, err := openSession(path, false)
	if err != nil {
		return err
	}
	defer s.close()

	return mountfs.Mount(ctx, s.f.Store(), s.f.Engine().Buffer(), mountpoint)
}

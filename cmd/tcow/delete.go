package main

import (
	"context"
	"flag"
	"time"

	"github.com/mikesmullin/tcow/internal/file"
)

const deleteHelp = `tcow delete <file.tcow> <path>

Stage a whiteout for path in the writable buffer and flush it as a new
layer (spec §4.7/§4.8). The underlying entry in a lower layer is not
removed; it is shadowed by the whiteout on subsequent union lookups.`

func cmdDelete(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("delete", flag.ExitOnError)
	fset.Usage = usage(fset, deleteHelp)
	fset.Parse(args)

	path, rest, err := resolvePath(fset.Args())
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return die("usage: tcow delete <file.tcow> <path>")
	}
	target := rest[0]

	s, err := openSession(path, true)
	if err != nil {
		return err
	}
	defer s.close()

	now := time.Now()
	if err := s.f.Engine().Delete(target, now); err != nil {
		return err
	}
	_, err = s.f.AppendFlush(file.FlushOptions{Digest: true, Now: now})
	return err
}

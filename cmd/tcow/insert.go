package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/mikesmullin/tcow/internal/file"
)

const insertHelp = `tcow insert <file.tcow> <archive-path> <host-source-path>

Stage host-source-path's content at archive-path in the writable
buffer and flush it as a new layer (spec §4.7/§4.8). Overwriting an
existing path is an implicit copy-up: no read of the shadowed entry is
required.`

func cmdInsert(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("insert", flag.ExitOnError)
	fset.Usage = usage(fset, insertHelp)
	fset.Parse(args)

	path, rest, err := resolvePath(fset.Args())
	if err != nil {
		return err
	}
	if len(rest) != 2 {
		return die("usage: tcow insert <file.tcow> <archive-path> <host-source-path>")
	}
	archivePath, hostPath := rest[0], rest[1]

	content, err := os.ReadFile(hostPath)
	if err != nil {
		return err
	}
	info, err := os.Stat(hostPath)
	if err != nil {
		return err
	}

	s, err := openSession(path, true)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.f.Engine().Write(archivePath, content, info.ModTime()); err != nil {
		return err
	}
	_, err = s.f.AppendFlush(file.FlushOptions{Digest: true, Now: time.Now()})
	return err
}

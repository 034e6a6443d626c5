package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/mikesmullin/tcow/internal/tarcodec"
	"github.com/mikesmullin/tcow/internal/union"
	"github.com/mikesmullin/tcow/internal/vpath"
)

const extractHelp = `tcow extract <file.tcow> <dest-dir> [prefix]

Materialize the union view under prefix (default: root) onto the host
filesystem at dest-dir, preserving each entry's mode. -strip-prefix
removes a leading path component from each entry's output path,
instead of the positional prefix's role of selecting which subtree to
extract in the first place (spec §6).`

func cmdExtract(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("extract", flag.ExitOnError)
	stripPrefix := fset.String("strip-prefix", "", "strip this leading path component from output paths")
	fset.Usage = usage(fset, extractHelp)
	fset.Parse(args)

	path, rest, err := resolvePath(fset.Args())
	if err != nil {
		return err
	}
	if len(rest) < 1 {
		return die("usage: tcow extract <file.tcow> <dest-dir> [prefix]")
	}
	destDir := rest[0]
	prefix := ""
	if len(rest) > 1 {
		prefix = rest[1]
	}

	strip := ""
	if *stripPrefix != "" {
		strip, err = vpath.Normalize(*stripPrefix)
		if err != nil {
			return err
		}
	}

	s, err := openSession(path, false)
	if err != nil {
		return err
	}
	defer s.close()

	visible, err := union.List(s.f.Store(), s.f.Engine().Buffer(), prefix, union.ModeUnion, 0)
	if err != nil {
		return err
	}

	for _, v := range visible {
		outPath := v.Path
		if strip != "" && vpath.HasPrefix(outPath, strip) {
			outPath = strings.TrimPrefix(strings.TrimPrefix(outPath, strip), "/")
			if outPath == "" {
				continue
			}
		}
		dest := filepath.Join(destDir, filepath.FromSlash(outPath))
		if v.Entry.Typeflag == tarcodec.TypeDir {
			if err := os.MkdirAll(dest, os.FileMode(v.Entry.Mode)|0700); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(dest, v.Entry.Content, os.FileMode(v.Entry.Mode)); err != nil {
			return err
		}
	}
	return nil
}

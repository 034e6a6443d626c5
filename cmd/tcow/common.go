package main

import (
	"golang.org/x/xerrors"

	"github.com/mikesmullin/tcow"
	"github.com/mikesmullin/tcow/internal/file"
	"github.com/mikesmullin/tcow/internal/lockfile"
	"github.com/mikesmullin/tcow/internal/tcowenv"
)

// session bundles an open File with the advisory lock held for its
// lifetime (spec §5): every subcommand acquires one, does its work, and
// releases it via close regardless of outcome.
type session struct {
	f    *file.File
	lock *lockfile.Lock
}

func (s *session) close() error {
	ferr := s.f.Close()
	lerr := s.lock.Release()
	if ferr != nil {
		return ferr
	}
	return lerr
}

// openSession opens path under an advisory lock, exclusive for mutating
// subcommands and shared for read-only ones (spec §5). The lock is taken
// nonblocking so a held lock surfaces as an immediate "locked by
// another process" diagnostic (naming the PID when one can be
// recovered) rather than hanging the CLI indefinitely.
func openSession(path string, exclusive bool) (*session, error) {
	lock, err := lockfile.Acquire(path, exclusive, true)
	if err != nil {
		logWarnf("%s: %v", path, err)
		return nil, err
	}
	logDebugf("%s: acquired %s lock", path, lockKind(exclusive))
	f, err := file.Open(path)
	if err != nil {
		lock.Release()
		return nil, err
	}
	// Backstop release: session.close's defer is the normal path; run()
	// calls tcow.RunAtExit after the subcommand returns, which releases
	// the lock again. Lock.Release is idempotent, so that second call is a
	// no-op. Neither runs if the process ends through os.Exit.
	tcow.RegisterAtExit(lock.Release)
	return &session{f: f, lock: lock}, nil
}

// resolvePath returns the first positional argument, falling back to
// TCOW_FILE (or, absent that, tcowenv.DefaultFile) when args is empty
// (spec §6).
func resolvePath(args []string) (string, []string, error) {
	if len(args) > 0 {
		return args[0], args[1:], nil
	}
	return tcowenv.File(), nil, nil
}

func die(format string, args ...interface{}) error {
	return xerrors.Errorf(format, args...)
}

func lockKind(exclusive bool) string {
	if exclusive {
		return "exclusive"
	}
	return "shared"
}

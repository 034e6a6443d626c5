// Package lockfile takes the advisory lock on a .tcow path described by
// spec §5: exclusive for any subcommand that may write, shared for
// read-only ones, degrading to best-effort where the platform lacks
// advisory locking. It is grounded on the vendored
// go.podman.io/storage/internal/rawfilelock package pulled in by the
// teacher's dependency on lazydocker's stack, generalized from that
// package's cross-platform fcntl/Flock split down to the single
// unix.Flock call this module actually needs. flock(2) is kept (rather
// than fcntl record locks) because its per-open-file-description
// semantics are what spec §5 wants: two acquisitions from the same
// process must still contend, which fcntl's per-process locks would not
// give us.
package lockfile

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"

	"github.com/mikesmullin/tcow/internal/tcowerr"
)

// Lock is a held advisory lock on a .tcow file. The zero value is not
// usable; obtain one via Acquire.
type Lock struct {
	f         *os.File
	exclusive bool
}

// Acquire takes an exclusive or shared advisory lock on path (spec §5).
// nonblocking reports whether Acquire should fail immediately instead of
// waiting when the lock is already held elsewhere; on failure it probes
// /proc/locks for the blocking process's PID so the CLI can report who
// is holding the file instead of a bare "resource busy."
func Acquire(path string, exclusive, nonblocking bool) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, tcowerr.IO("open for lock", err)
	}

	how := unix.LOCK_SH
	if exclusive {
		how = unix.LOCK_EX
	}
	if nonblocking {
		how |= unix.LOCK_NB
	}

	if err := unix.Flock(int(f.Fd()), how); err != nil {
		if nonblocking && xerrors.Is(err, unix.EWOULDBLOCK) {
			f.Close()
			return nil, tcowerr.State(contentionMessage(path))
		}
		if isNotSupported(err) {
			// Best-effort degrade (spec §5): proceed without the lock on
			// platforms where flock(2) is unavailable.
			return &Lock{f: f, exclusive: exclusive}, nil
		}
		f.Close()
		return nil, tcowerr.IO("flock", err)
	}
	return &Lock{f: f, exclusive: exclusive}, nil
}

// contentionMessage names the blocking process's PID when it can be
// recovered from /proc/locks, mirroring the original implementation's
// documented (if later dropped) habit of reporting which build held a
// lock. The lookup is Linux-specific and best-effort: any failure just
// degrades the message to a plain "locked by another process."
func contentionMessage(path string) string {
	pid, ok := blockingPID(path)
	if !ok {
		return "file is locked by another process"
	}
	return fmt.Sprintf("file is locked by another process (pid %d)", pid)
}

func blockingPID(path string) (int, bool) {
	var st syscall.Stat_t
	if err := syscall.Stat(path, &st); err != nil {
		return 0, false
	}

	locks, err := os.Open("/proc/locks")
	if err != nil {
		return 0, false
	}
	defer locks.Close()

	// Each line looks like:
	// 1: FLOCK  ADVISORY  WRITE 1234 08:01:131082 0 EOF
	// where the device:inode field (08:01:131082) identifies the file.
	wantInode := strconv.FormatUint(st.Ino, 10)
	sc := bufio.NewScanner(locks)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 6 || fields[1] != "FLOCK" {
			continue
		}
		devInode := strings.SplitN(fields[5], ":", 3)
		if len(devInode) != 3 || devInode[2] != wantInode {
			continue
		}
		if pid, err := strconv.Atoi(fields[4]); err == nil && pid > 0 {
			return pid, true
		}
	}
	return 0, false
}

// Release drops the lock and closes the underlying file handle. Calls
// after the first are no-ops; the lock is implicitly released by process
// exit regardless,
// but callers should release explicitly so a long-lived process can open
// the file again later.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	closeErr := l.f.Close()
	l.f = nil
	if err != nil && !isNotSupported(err) {
		return tcowerr.IO("unlock", err)
	}
	if closeErr != nil {
		return tcowerr.IO("close lock file", closeErr)
	}
	return nil
}

// Exclusive reports whether this lock was acquired in exclusive mode.
func (l *Lock) Exclusive() bool { return l.exclusive }

func isNotSupported(err error) bool {
	return xerrors.Is(err, unix.ENOSYS) || xerrors.Is(err, unix.EOPNOTSUPP)
}

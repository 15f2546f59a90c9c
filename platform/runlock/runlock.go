// Package runlock provides a file-based exclusivity lock keyed by batch id.
// It prevents two orchestrator processes from working the same batch at the
// same time. All workers for one batch live in one process, so file presence
// plus a process-liveness probe is sufficient; no distributed lease is needed.
package runlock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"sourcing_backend/platform/apperr"
)

// AliveFunc reports whether the process with the given pid is still running.
// Abstracted so the staleness check can be replaced by a lease heartbeat if
// batches ever span hosts.
type AliveFunc func(pid int) bool

// Lock is a held run lock. Release must be called exactly once, normally via
// defer immediately after a successful Acquire.
type Lock struct {
	path string
}

// Options configures lock acquisition.
type Options struct {
	Dir   string
	Alive AliveFunc
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 probes existence without delivering anything.
	return proc.Signal(syscall.Signal(0)) == nil
}

// Path returns the lock file path for a batch id within dir.
func Path(dir, batchID string) string {
	return filepath.Join(dir, fmt.Sprintf("sourcing_%s.lock", batchID))
}

// Acquire takes the run lock for batchID. If a lock file already exists and
// its owning process is still alive, Acquire fails with a conflict error. A
// lock whose owner is gone is treated as stale, reclaimed and recreated.
func Acquire(batchID string, opts Options) (*Lock, error) {
	if strings.TrimSpace(batchID) == "" {
		return nil, apperr.Validation("run lock requires a batch id")
	}

	alive := opts.Alive
	if alive == nil {
		alive = processAlive
	}

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.Wrap(apperr.KindFatal, "create lock directory", err)
	}

	path := Path(dir, batchID)

	if pid, exists, ok := readOwner(path); exists {
		if ok && alive(pid) {
			return nil, apperr.Conflict(fmt.Sprintf("batch %s already being processed by pid %d", batchID, pid))
		}
		// Stale or unreadable lock: owner is gone.
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, apperr.Wrap(apperr.KindFatal, "remove stale lock", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, apperr.Conflict(fmt.Sprintf("batch %s lock taken concurrently", batchID))
		}
		return nil, apperr.Wrap(apperr.KindFatal, "create lock file", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%d\nstarted: %s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339)); err != nil {
		os.Remove(path)
		return nil, apperr.Wrap(apperr.KindFatal, "write lock file", err)
	}

	// A racing process that judged the previous lock stale may have removed
	// this file between our create and now, and recreated it as its own.
	// Re-reading the owner confirms the lock on disk is still ours.
	if pid, exists, ok := readOwner(path); !exists || !ok || pid != os.Getpid() {
		return nil, apperr.Conflict(fmt.Sprintf("batch %s lock taken concurrently", batchID))
	}

	return &Lock{path: path}, nil
}

// Release removes the lock file. Safe to call when the file is already gone.
func (l *Lock) Release() error {
	if l == nil || l.path == "" {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// readOwner parses the owning pid from an existing lock file. exists reports
// whether a lock file is present at all; ok reports whether a pid could be
// parsed from it. An unparsable lock is treated like a stale one.
func readOwner(path string) (pid int, exists, ok bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, !os.IsNotExist(err), false
	}
	lines := strings.SplitN(strings.TrimSpace(string(data)), "\n", 2)
	pid, err = strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return 0, true, false
	}
	return pid, true, true
}

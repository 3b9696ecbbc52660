package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// lockFileName is the advisory lock file guarding all mutations in a workspace.
const lockFileName = ".board.lock"

// withLock runs fn while holding an exclusive advisory lock (LOCK_EX) on the
// workspace's lock file. Every mutating store and ledger operation funnels
// through this single primitive, so read-modify-write cycles over shared
// files cannot interleave across processes. fn must not acquire the
// workspace lock again: flock between two descriptors blocks even within
// one process.
func withLock(workspace string, fn func() error) error {
	if err := os.MkdirAll(workspace, 0o750); err != nil {
		return fmt.Errorf("creating workspace directory: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(workspace, lockFileName), os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return fmt.Errorf("opening workspace lock: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		_ = f.Close()
		return fmt.Errorf("acquiring workspace lock: %w", err)
	}
	defer func() {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		_ = f.Close()
	}()

	return fn()
}

package fsutil

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// BackupSuffix is appended to a target path to name the copy of its
// previous content kept by ReplaceWithBackup.
const BackupSuffix = ".bak"

// AtomicWrite writes data to path using a tmp+rename strategy.
// The tmp file lives next to path so the rename never crosses filesystems.
// If rename fails, the tmp file is cleaned up.
func AtomicWrite(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create tmp: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write tmp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync tmp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close tmp: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		cleanup()
		return fmt.Errorf("chmod tmp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return err
	}
	return nil
}

// ReplaceWithBackup atomically replaces path with data. When path already
// exists its current content is first copied to path+BackupSuffix, so an
// interrupted save leaves either the old or the new document in place and
// the previous version is never destroyed outright.
func ReplaceWithBackup(path string, data []byte, perm os.FileMode) error {
	prev, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := AtomicWrite(path+BackupSuffix, prev, perm); err != nil {
			return fmt.Errorf("write backup: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return err
	}
	return AtomicWrite(path, data, perm)
}

// WriteIfChanged writes data to path only when the current content differs.
// It reports whether a write happened.
func WriteIfChanged(path string, data []byte, perm os.FileMode) (bool, error) {
	current, err := os.ReadFile(path)
	if err == nil && bytes.Equal(current, data) {
		return false, nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	if err := AtomicWrite(path, data, perm); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveIfExists deletes path and treats an absent file as success.
func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

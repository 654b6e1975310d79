// Package mover relocates recovered files into their destination folders.
// It never overwrites: an existing destination is reported as a collision
// so the report cannot drift from what is on disk.
package mover

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// ErrDestinationExists is returned when the target name is already taken.
var ErrDestinationExists = errors.New("destination already exists")

// EnsureDir creates dir and any parents. It is a no-op when dir exists.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}

// Move moves src into dstDir, keeping its base name, and returns the new
// path. Renames that cross filesystems fall back to copy, sync and remove.
func Move(src, dstDir string) (string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("cannot move %q: %w", src, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("cannot move %q: not a regular file", src)
	}

	dst := filepath.Join(dstDir, filepath.Base(src))
	if _, err := os.Lstat(dst); err == nil {
		return "", fmt.Errorf("%w: %s", ErrDestinationExists, dst)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("checking destination %q: %w", dst, err)
	}

	err = os.Rename(src, dst)
	if err == nil {
		return dst, nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return "", fmt.Errorf("moving %q to %q: %w", src, dst, err)
	}

	if err := copyFile(src, dst, info.Mode().Perm()); err != nil {
		return "", err
	}
	if err := os.Remove(src); err != nil {
		return "", fmt.Errorf("removing %q after copy: %w", src, err)
	}
	return dst, nil
}

// copyFile copies src to a new file dst. O_EXCL keeps the no-overwrite
// guarantee even if dst appeared after the Lstat check.
func copyFile(src, dst string, perm os.FileMode) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %q: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
		}
		return fmt.Errorf("creating %q: %w", dst, err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing %q: %w", dst, closeErr)
		}
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return fmt.Errorf("copying %q to %q: %w", src, dst, err)
	}
	if err = out.Sync(); err != nil {
		return fmt.Errorf("syncing %q: %w", dst, err)
	}
	return nil
}

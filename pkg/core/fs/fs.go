// Package fs resolves and opens paths relative to a shell's working
// directory rather than the process-wide one, so that concurrently running
// subshells can each keep their own directory.
package fs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by LookPath when no executable matches.
var ErrNotFound = errors.New("not found")

// Resolve returns path made absolute against dir.
func Resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) || dir == "" {
		return path
	}
	return filepath.Join(dir, path)
}

// Open opens a file for reading relative to dir.
func Open(dir, path string) (*os.File, error) {
	return os.Open(Resolve(dir, path))
}

// OpenFile opens a file with flags relative to dir.
func OpenFile(dir, path string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(Resolve(dir, path), flag, perm)
}

// Stat returns file info relative to dir.
func Stat(dir, path string) (os.FileInfo, error) {
	return os.Stat(Resolve(dir, path))
}

// IsDir reports whether path names a directory.
func IsDir(dir, path string) bool {
	info, err := Stat(dir, path)
	return err == nil && info.IsDir()
}

// Executable reports whether path names a regular file with any execute bit set.
func Executable(dir, path string) bool {
	info, err := Stat(dir, path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode()&0111 != 0
}

// LookPath searches the colon-separated list pathList for an executable
// named name. Names containing a slash are not searched. Empty list
// entries mean the current directory.
func LookPath(dir, pathList, name string) (string, error) {
	if strings.Contains(name, "/") {
		if Executable(dir, name) {
			return Resolve(dir, name), nil
		}
		return "", &os.PathError{Op: "exec", Path: name, Err: ErrNotFound}
	}
	for _, entry := range filepath.SplitList(pathList) {
		if entry == "" {
			entry = "."
		}
		candidate := filepath.Join(entry, name)
		if Executable(dir, candidate) {
			return Resolve(dir, candidate), nil
		}
	}
	return "", &os.PathError{Op: "exec", Path: name, Err: ErrNotFound}
}

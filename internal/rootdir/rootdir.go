package rootdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultMarker is the file whose presence identifies an application root.
const DefaultMarker = "VERSION"

var (
	ErrEmptyPath = errors.New("rootdir: empty path")
	ErrNotFound  = errors.New("rootdir: marker not found")
)

// Finder resolves the application root directory.
type Finder interface {
	Find() (string, error)
}

// FinderFunc adapts a plain function to the Finder interface.
type FinderFunc func() (string, error)

// Find calls f.
func (f FinderFunc) Find() (string, error) {
	return f()
}

// Explicit returns a Finder that always yields the absolute form of path.
// It does not touch the filesystem.
func Explicit(path string) Finder {
	return FinderFunc(func() (string, error) {
		if path == "" {
			return "", ErrEmptyPath
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("resolving %s: %w", path, err)
		}
		return abs, nil
	})
}

// Upward returns a Finder that searches from start toward the filesystem root
// and stops at the first directory holding a regular file named marker.
func Upward(start, marker string) Finder {
	return FinderFunc(func() (string, error) {
		if start == "" {
			return "", ErrEmptyPath
		}
		if marker == "" {
			marker = DefaultMarker
		}
		return findClosest(start, func(dir string) bool {
			fi, err := os.Stat(filepath.Join(dir, marker))
			return err == nil && fi.Mode().IsRegular()
		}, marker)
	})
}

// WorkingDir searches upward from the process working directory.
func WorkingDir(marker string) Finder {
	return FinderFunc(func() (string, error) {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting working directory: %w", err)
		}
		return Upward(wd, marker).Find()
	})
}

func findClosest(start string, match func(string) bool, marker string) (string, error) {
	current, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", start, err)
	}

	for {
		if match(current) {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return "", fmt.Errorf("%s above %s: %w", marker, start, ErrNotFound)
}

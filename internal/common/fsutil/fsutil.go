package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

// PathExists checks if the given path exists.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}

// Resolve expands '~' in p and joins relative results onto base.
// Absolute paths and an empty base leave p untouched.
func Resolve(base, p string) (string, error) {
	if p == "" {
		return "", nil
	}
	exp, err := ExpandHome(p)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(exp) || base == "" {
		return exp, nil
	}
	b, err := ExpandHome(base)
	if err != nil {
		return "", err
	}
	return filepath.Join(b, exp), nil
}

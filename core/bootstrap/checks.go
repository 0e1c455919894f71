package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// EnsureDir returns a check creating dir and verifying it is writable.
func EnsureDir(name, dir string) Check {
	return Check{
		Name:     name,
		Required: true,
		Run: func(context.Context) error {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			f, err := os.CreateTemp(dir, ".writable-*")
			if err != nil {
				return fmt.Errorf("%s is not writable: %w", dir, err)
			}
			f.Close()
			return os.Remove(filepath.Clean(f.Name()))
		},
	}
}

// Executable returns a check resolving bin on PATH (or as a path).
func Executable(name, bin string, required bool) Check {
	return Check{
		Name:     name,
		Required: required,
		Run: func(context.Context) error {
			_, err := exec.LookPath(bin)
			return err
		},
	}
}

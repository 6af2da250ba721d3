// Package devenv locates the local development state under dev/.state.
package devenv

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"bookbargain-backend/lib/configutil"
)

const stateDir = "<dev_state>"

var modName = regexp.MustCompile(`(?m)^module *([\w\-_]+)$`)

func isWorkspaceRoot(dir string) bool {
	mod, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return false
	}
	matches := modName.FindSubmatch(mod)
	return len(matches) >= 2 && string(matches[1]) == "bookbargain-backend"
}

// GetWorkspaceRoot walks up from the cwd to the directory holding this
// module's go.mod.
func GetWorkspaceRoot() (string, error) {
	current, err := filepath.Abs(".")
	if err != nil {
		return "", err
	}
	for {
		if isWorkspaceRoot(current) {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", os.ErrNotExist
		}
		current = parent
	}
}

func GetStateFilePath(path string) (string, error) {
	root, err := GetWorkspaceRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "dev", ".state", path), nil
}

// GetStateConfig reads a config file kept in dev/.state, os.ErrNotExist is
// returned when it has not been written.
func GetStateConfig[T any](path string) (T, error) {
	configPath, err := GetStateFilePath(path)
	if err != nil {
		var out T
		return out, err
	}
	return configutil.ReadConfig[T](configPath)
}

// ResolvePath expands a leading <dev_state> into the dev/.state directory,
// creating it if needed. Other paths are returned unchanged.
func ResolvePath(path string) (string, error) {
	if !strings.HasPrefix(path, stateDir) {
		return path, nil
	}

	root, err := GetWorkspaceRoot()
	if err != nil {
		return "", err
	}
	state := filepath.Join(root, "dev", ".state")
	err = os.MkdirAll(state, 0777)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", state, err)
	}
	return filepath.Join(state, strings.TrimPrefix(path, stateDir)), nil
}

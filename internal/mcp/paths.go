package mcp

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// pathGuard confines tool file access to a root directory. A guard with an
// empty root accepts any path.
type pathGuard struct {
	root     string
	realRoot string
}

func newPathGuard(root string) (*pathGuard, error) {
	if root == "" {
		return &pathGuard{}, nil
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve document root: %w", err)
	}
	g := &pathGuard{root: filepath.Clean(abs), realRoot: filepath.Clean(abs)}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		g.realRoot = real
	}
	return g, nil
}

// resolve returns the absolute, symlink-free form of path. Relative paths
// are taken relative to the root when one is set.
func (g *pathGuard) resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if g.root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(g.root, path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	abs = filepath.Clean(abs)

	if g.root == "" {
		return abs, nil
	}

	real := abs
	if _, err := os.Lstat(abs); err == nil {
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			real = resolved
		}
	}

	if !g.within(abs) || !g.within(real) {
		return "", fmt.Errorf("path is outside the document root: %s", path)
	}
	return real, nil
}

// within reports whether path lies under the root, as written or resolved
func (g *pathGuard) within(path string) bool {
	return isUnder(path, g.root) || isUnder(path, g.realRoot)
}

func isUnder(path, dir string) bool {
	if path == dir {
		return true
	}
	if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += string(filepath.Separator)
	}
	return strings.HasPrefix(path, dir)
}

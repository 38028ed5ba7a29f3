package filesystem

import (
	stderrors "errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/jmgilman/go/errors"
)

// errLinkOutsideRoot marks a symlink whose target leaves the root.
var errLinkOutsideRoot = stderrors.New("symlink target outside root")

// ResolvedPath is a canonical host path proven to lie within the root. The
// zero value is not usable; values come only from Resolver.Resolve.
type ResolvedPath struct {
	abs string
	rel string
}

// Abs returns the canonical absolute host path.
func (p ResolvedPath) Abs() string {
	return p.abs
}

// Rel returns the cleaned request path in slash form, "" for the root.
func (p ResolvedPath) Rel() string {
	return p.rel
}

// IsRoot reports whether the path is the root itself.
func (p ResolvedPath) IsRoot() bool {
	return p.rel == ""
}

// APIPath returns the path as clients address it: slash-separated and
// rooted at "/".
func (p ResolvedPath) APIPath() string {
	return "/" + p.rel
}

// Resolver turns untrusted request paths into paths contained by a root.
type Resolver struct {
	root string
}

// NewResolver canonicalizes root, creating it when absent.
func NewResolver(root string) (*Resolver, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("root directory must not be empty")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create root %s: %w", abs, err)
	}

	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize root %s: %w", abs, err)
	}

	info, err := os.Stat(canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root %s: %w", canonical, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", canonical)
	}

	return &Resolver{root: canonical}, nil
}

// Root returns the canonical root directory.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve joins requestPath onto the root, follows symlinks and verifies the
// result is the root or a descendant of it.
//
// Targets that do not exist yet resolve through their deepest existing
// ancestor, so a symlinked parent cannot be used to create outside the root.
func (r *Resolver) Resolve(requestPath string) (ResolvedPath, error) {
	rel, ok := cleanRequestPath(requestPath)
	if !ok {
		return ResolvedPath{}, errTraversal(requestPath)
	}

	joined := filepath.Join(r.root, filepath.FromSlash(rel))

	canonical, err := canonicalize(joined)
	if err != nil {
		return ResolvedPath{}, translate(OpResolve, rel, err)
	}

	if !r.contains(canonical) {
		return ResolvedPath{}, errTraversal(requestPath)
	}

	return ResolvedPath{abs: canonical, rel: rel}, nil
}

// ResolveEntry resolves the parent of requestPath and names the final
// component without following it, so a symlink is addressed as the link
// itself rather than its target.
func (r *Resolver) ResolveEntry(requestPath string) (ResolvedPath, error) {
	rel, ok := cleanRequestPath(requestPath)
	if !ok {
		return ResolvedPath{}, errTraversal(requestPath)
	}
	if rel == "" {
		return ResolvedPath{abs: r.root}, nil
	}

	parent, err := r.Resolve(path.Dir(rel))
	if err != nil {
		if errors.GetCode(err) == errors.CodeForbidden {
			return ResolvedPath{}, errTraversal(requestPath)
		}
		return ResolvedPath{}, err
	}

	return ResolvedPath{abs: filepath.Join(parent.Abs(), path.Base(rel)), rel: rel}, nil
}

// statEntry reads metadata for a directory child. A symlink is followed only
// when its target stays inside the root; otherwise errLinkOutsideRoot is
// returned and nothing about the target is disclosed.
func (r *Resolver) statEntry(abs string) (os.FileInfo, error) {
	info, err := os.Lstat(abs)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return info, err
	}

	target, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	if !r.contains(target) {
		return nil, errLinkOutsideRoot
	}
	return os.Stat(target)
}

// contains checks p against the root on whole path segments, so "/srv/files2"
// is not inside "/srv/files".
func (r *Resolver) contains(p string) bool {
	if p == r.root {
		return true
	}
	prefix := r.root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(p, prefix)
}

// cleanRequestPath normalizes a client path to a relative slash path. Leading
// slashes and backslashes are treated as separators. A path whose ".."
// segments climb above the root is rejected here, before touching the disk.
func cleanRequestPath(p string) (string, bool) {
	if strings.ContainsRune(p, 0) {
		return "", false
	}

	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimLeft(p, "/")
	if p == "" || p == "." {
		return "", true
	}

	cleaned := path.Clean(p)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", false
	}
	if cleaned == "." {
		return "", true
	}
	return cleaned, true
}

// canonicalize resolves symlinks in p. When p does not exist, the deepest
// existing ancestor is resolved and the missing tail re-appended.
func canonicalize(p string) (string, error) {
	resolved, err := filepath.EvalSymlinks(p)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}

	var tail []string
	current := p
	for {
		parent := filepath.Dir(current)
		tail = append([]string{filepath.Base(current)}, tail...)
		if parent == current {
			return "", err
		}

		resolved, perr := filepath.EvalSymlinks(parent)
		if perr == nil {
			return filepath.Join(append([]string{resolved}, tail...)...), nil
		}
		if !os.IsNotExist(perr) {
			return "", perr
		}
		current = parent
	}
}

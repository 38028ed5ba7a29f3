package filesystem

import (
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jmgilman/go/errors"
)

// Permission sets for entries created through the API.
const (
	DirMode  os.FileMode = 0o755
	FileMode os.FileMode = 0o644
)

// Mutator creates, writes and removes filesystem entries. Deletion never
// recurses: a non-empty directory is an error.
type Mutator struct{}

// NewMutator creates a mutator.
func NewMutator() *Mutator {
	return &Mutator{}
}

// CreateDirectory creates target along with any missing parents. An existing
// entry at target, of any kind, is reported as already existing.
func (m *Mutator) CreateDirectory(ctx context.Context, target ResolvedPath) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if target.IsRoot() {
		return errors.WithContextMap(
			errors.New(errors.CodeAlreadyExists, "folder already exists"),
			map[string]interface{}{"operation": OpMkdir, "path": target.Rel()},
		)
	}

	if _, err := os.Lstat(target.Abs()); err == nil {
		return errors.WithContextMap(
			errors.New(errors.CodeAlreadyExists, "folder already exists"),
			map[string]interface{}{"operation": OpMkdir, "path": target.Rel()},
		)
	} else if !stderrors.Is(err, fs.ErrNotExist) {
		return translate(OpMkdir, target.Rel(), err)
	}

	if err := os.MkdirAll(target.Abs(), DirMode); err != nil {
		return translate(OpMkdir, target.Rel(), err)
	}
	return nil
}

// WriteFile stores the contents of r at target, creating missing parent
// directories. The data lands in a temporary sibling first and is renamed
// into place, so readers never observe a partial file. An existing file is
// replaced; an existing directory is a conflict.
func (m *Mutator) WriteFile(ctx context.Context, target ResolvedPath, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if target.IsRoot() {
		return 0, errors.WithContextMap(
			errors.New(errors.CodeConflict, "target is a directory"),
			map[string]interface{}{"operation": OpUpload, "path": target.Rel()},
		)
	}

	if info, err := os.Lstat(target.Abs()); err == nil && info.IsDir() {
		return 0, errors.WithContextMap(
			errors.New(errors.CodeConflict, "target is a directory"),
			map[string]interface{}{"operation": OpUpload, "path": target.Rel()},
		)
	}

	dir := filepath.Dir(target.Abs())
	if err := os.MkdirAll(dir, DirMode); err != nil {
		return 0, translate(OpUpload, target.Rel(), err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return 0, translate(OpUpload, target.Rel(), err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	written, err := io.Copy(tmp, contextReader{ctx: ctx, r: r})
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, translate(OpUpload, target.Rel(), err)
	}

	if err := os.Chmod(tmpName, FileMode); err != nil {
		return 0, translate(OpUpload, target.Rel(), err)
	}
	if err := os.Rename(tmpName, target.Abs()); err != nil {
		return 0, translate(OpUpload, target.Rel(), err)
	}
	committed = true
	return written, nil
}

// contextReader stops a copy once its context is cancelled.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// Delete removes the file or empty directory at target and reports which
// kind it was. A symlink is removed as a file and its target left alone. The
// root itself can never be deleted.
func (m *Mutator) Delete(ctx context.Context, target ResolvedPath) (Kind, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if target.IsRoot() {
		return "", errors.WithContextMap(
			errors.New(errors.CodeForbidden, "cannot delete root directory"),
			map[string]interface{}{"operation": OpDelete, "path": target.Rel()},
		)
	}

	info, err := os.Lstat(target.Abs())
	if err != nil {
		return "", translate(OpDelete, target.Rel(), err)
	}

	kind := KindFile
	if info.IsDir() {
		kind = KindDirectory
	}

	// The target may vanish between Lstat and Remove; translate maps that
	// to not found like any other missing path.
	if err := os.Remove(target.Abs()); err != nil {
		return "", translate(OpDelete, target.Rel(), err)
	}
	return kind, nil
}

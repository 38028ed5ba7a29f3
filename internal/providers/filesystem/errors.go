package filesystem

import (
	stderrors "errors"
	"io/fs"
	"syscall"

	"github.com/jmgilman/go/errors"
)

// Operation names attached to error context and metrics.
const (
	OpResolve = "resolve"
	OpList    = "list"
	OpRead    = "read"
	OpMkdir   = "createdir"
	OpDelete  = "delete"
	OpSearch  = "search"
	OpUpload  = "upload"
)

// errTraversal reports a request path that resolves outside the root.
func errTraversal(requestPath string) errors.PlatformError {
	return errors.WithContextMap(
		errors.New(errors.CodeForbidden, "path escapes root"),
		map[string]interface{}{"operation": OpResolve, "path": requestPath},
	)
}

// errNotFound reports a missing target.
func errNotFound(op, rel string) errors.PlatformError {
	return errors.WithContextMap(
		errors.New(errors.CodeNotFound, "file or directory not found"),
		map[string]interface{}{"operation": op, "path": rel},
	)
}

// translate maps an OS-level failure onto the error taxonomy. Callers never
// see raw *fs.PathError values, which would carry absolute host paths.
func translate(op, rel string, err error) errors.PlatformError {
	if err == nil {
		return nil
	}

	ctx := map[string]interface{}{"operation": op, "path": rel}
	cause := stripPath(err)

	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		return errors.WrapWithContext(cause, errors.CodeNotFound, "file or directory not found", ctx)
	case stderrors.Is(err, fs.ErrExist) && op == OpMkdir:
		return errors.WrapWithContext(cause, errors.CodeAlreadyExists, "folder already exists", ctx)
	case isNotEmpty(err):
		return errors.WrapWithContext(cause, errors.CodeInternal, "directory not empty", ctx)
	case stderrors.Is(err, fs.ErrPermission):
		return errors.WrapWithContext(cause, errors.CodeInternal, "permission denied", ctx)
	default:
		return errors.WrapWithContext(cause, errors.CodeInternal, op+" failed", ctx)
	}
}

// isNotEmpty detects the "directory not empty" failure of a non-recursive
// remove. Some platforms report EEXIST instead of ENOTEMPTY.
func isNotEmpty(err error) bool {
	return stderrors.Is(err, syscall.ENOTEMPTY) || stderrors.Is(err, syscall.EEXIST)
}

// stripPath drops the absolute path from *fs.PathError and *os.LinkError-like
// values, keeping the underlying errno for errors.Is checks.
func stripPath(err error) error {
	var pathErr *fs.PathError
	if stderrors.As(err, &pathErr) {
		return pathErr.Err
	}
	return err
}

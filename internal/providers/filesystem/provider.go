package filesystem

import (
	"context"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/GriffinCanCode/fileserver/internal/infrastructure/logging"
	"github.com/jmgilman/go/errors"
	"go.uber.org/zap"
)

// Observer receives timing and outcome of every provider operation.
type Observer interface {
	ObserveOperation(op string, duration time.Duration, err error)
	ObserveBytesServed(n int64)
	ObserveBytesWritten(n int64)
}

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, time.Duration, error) {}
func (nopObserver) ObserveBytesServed(int64)                      {}
func (nopObserver) ObserveBytesWritten(int64)                     {}

// Options configures a Provider.
type Options struct {
	Logger           *logging.Logger
	Observer         Observer
	SniffContent     bool
	SearchMaxResults int
}

// Provider serves one root directory. Every request path is resolved once
// and the resulting ResolvedPath handed to a single operation.
type Provider struct {
	resolver *Resolver
	lister   *Lister
	mutator  *Mutator
	reader   *Reader
	searcher *Searcher
	logger   *logging.Logger
	observer Observer
}

// NewProvider creates a provider rooted at root, creating the directory if
// it does not exist.
func NewProvider(root string, opts Options) (*Provider, error) {
	resolver, err := NewResolver(root)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	observer := opts.Observer
	if observer == nil {
		observer = nopObserver{}
	}

	return &Provider{
		resolver: resolver,
		lister:   NewLister(resolver, logger),
		mutator:  NewMutator(),
		reader:   NewReader(opts.SniffContent),
		searcher: NewSearcher(resolver, logger, opts.SearchMaxResults),
		logger:   logger,
		observer: observer,
	}, nil
}

// Root returns the canonical root directory.
func (p *Provider) Root() string {
	return p.resolver.Root()
}

// Browse lists a directory or loads a file. Paths outside the root are
// reported as not found so their existence is not disclosed.
func (p *Provider) Browse(ctx context.Context, requestPath string) (result *BrowseResult, err error) {
	start := time.Now()
	op := OpList
	defer func() { p.finish(op, requestPath, start, err) }()

	target, err := p.resolver.Resolve(requestPath)
	if err != nil {
		if errors.GetCode(err) == errors.CodeForbidden {
			return nil, errNotFound(op, requestPath)
		}
		return nil, err
	}

	info, err := os.Stat(target.Abs())
	if err != nil {
		return nil, translate(op, target.Rel(), err)
	}

	if info.IsDir() {
		entries, err := p.lister.List(ctx, target)
		if err != nil {
			return nil, err
		}
		return &BrowseResult{Path: target.APIPath(), Entries: entries}, nil
	}

	op = OpRead
	content, err := p.reader.Read(ctx, target)
	if err != nil {
		return nil, err
	}
	p.observer.ObserveBytesServed(content.Length)
	return &BrowseResult{Path: target.APIPath(), Content: content}, nil
}

// CreateDirectory creates one directory and returns its resolved location.
func (p *Provider) CreateDirectory(ctx context.Context, requestPath string) (target ResolvedPath, err error) {
	start := time.Now()
	defer func() { p.finish(OpMkdir, requestPath, start, err) }()

	target, err = p.resolver.Resolve(requestPath)
	if err != nil {
		return ResolvedPath{}, err
	}
	if err := p.mutator.CreateDirectory(ctx, target); err != nil {
		return ResolvedPath{}, err
	}

	p.logger.Info("Directory created", zap.String("path", target.APIPath()))
	return target, nil
}

// Delete removes a file or empty directory and reports where and what it
// was. The final path component is not followed, so deleting a symlink
// removes the link.
func (p *Provider) Delete(ctx context.Context, requestPath string) (target ResolvedPath, kind Kind, err error) {
	start := time.Now()
	defer func() { p.finish(OpDelete, requestPath, start, err) }()

	target, err = p.resolver.ResolveEntry(requestPath)
	if err != nil {
		return ResolvedPath{}, "", err
	}
	kind, err = p.mutator.Delete(ctx, target)
	if err != nil {
		return ResolvedPath{}, "", err
	}

	p.logger.Info("Entry deleted",
		zap.String("path", target.APIPath()),
		zap.String("type", string(kind)))
	return target, kind, nil
}

// Upload writes r as the file name inside the directory dir, creating the
// directory when missing, and returns the stored location and size.
func (p *Provider) Upload(ctx context.Context, dir, name string, r io.Reader) (target ResolvedPath, size int64, err error) {
	start := time.Now()
	defer func() { p.finish(OpUpload, dir, start, err) }()

	if !validFileName(name) {
		return ResolvedPath{}, 0, errors.WithContextMap(
			errors.New(errors.CodeInvalidInput, "invalid file name"),
			map[string]interface{}{"operation": OpUpload, "path": dir, "name": name},
		)
	}

	target, err = p.resolver.Resolve(path.Join(dir, name))
	if err != nil {
		return ResolvedPath{}, 0, err
	}
	size, err = p.mutator.WriteFile(ctx, target, r)
	if err != nil {
		return ResolvedPath{}, 0, err
	}

	p.observer.ObserveBytesWritten(size)
	p.logger.Info("File uploaded",
		zap.String("path", target.APIPath()),
		zap.Int64("size", size))
	return target, size, nil
}

// validFileName accepts a single path segment.
func validFileName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\\x00")
}

// Search finds entries beneath requestPath matching pattern.
func (p *Provider) Search(ctx context.Context, requestPath, pattern string, limit int) (result *SearchResult, err error) {
	start := time.Now()
	defer func() { p.finish(OpSearch, requestPath, start, err) }()

	target, err := p.resolver.Resolve(requestPath)
	if err != nil {
		if errors.GetCode(err) == errors.CodeForbidden {
			return nil, errNotFound(OpSearch, requestPath)
		}
		return nil, err
	}
	return p.searcher.Search(ctx, target, pattern, limit)
}

// finish records the outcome of an operation. Expected client errors are
// logged at debug, everything else at error.
func (p *Provider) finish(op, requestPath string, start time.Time, err error) {
	p.observer.ObserveOperation(op, time.Since(start), err)
	if err == nil {
		return
	}

	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("path", requestPath),
		zap.String("code", string(errors.GetCode(err))),
		zap.Error(err),
	}
	switch errors.GetCode(err) {
	case errors.CodeNotFound, errors.CodeAlreadyExists, errors.CodeConflict, errors.CodeInvalidInput:
		p.logger.Debug("Filesystem operation rejected", fields...)
	case errors.CodeForbidden:
		p.logger.Warn("Path outside root rejected", fields...)
	default:
		p.logger.Error("Filesystem operation failed", fields...)
	}
}

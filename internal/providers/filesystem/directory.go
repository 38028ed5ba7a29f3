package filesystem

import (
	"context"
	stderrors "errors"
	"os"
	"path"
	"path/filepath"

	"github.com/GriffinCanCode/fileserver/internal/infrastructure/logging"
	"go.uber.org/zap"
)

// Lister enumerates the immediate children of a directory.
type Lister struct {
	resolver *Resolver
	logger   *logging.Logger
}

// NewLister creates a lister whose symlinked children are followed only
// within the resolver's root. A nil logger discards warnings.
func NewLister(resolver *Resolver, logger *logging.Logger) *Lister {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Lister{resolver: resolver, logger: logger}
}

// List returns one entry per child of dir, in the order the OS enumerates
// them. Children whose metadata cannot be read are reported as zero-size
// files instead of failing the whole listing.
func (l *Lister) List(ctx context.Context, dir ResolvedPath) ([]FileEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	children, err := os.ReadDir(dir.Abs())
	if err != nil {
		return nil, translate(OpList, dir.Rel(), err)
	}

	entries := make([]FileEntry, 0, len(children))
	for _, child := range children {
		entries = append(entries, l.entry(dir, child))
	}
	return entries, nil
}

// entry builds the listing record for one child.
func (l *Lister) entry(dir ResolvedPath, child os.DirEntry) FileEntry {
	name := child.Name()
	return describe(l.resolver, l.logger, filepath.Join(dir.Abs(), name), "/"+path.Join(dir.Rel(), name))
}

// describe stats abs and fills a FileEntry addressed as apiPath. A symlink
// to a directory inside the root lists as a directory. A link leaving the
// root, or an entry whose metadata cannot be read, is a zero-size file.
func describe(resolver *Resolver, logger *logging.Logger, abs, apiPath string) FileEntry {
	name := path.Base(apiPath)
	entry := FileEntry{
		Name: name,
		Type: KindFile,
		Path: apiPath,
	}

	info, err := resolver.statEntry(abs)
	if err == nil && info.IsDir() {
		entry.Type = KindDirectory
		return entry
	}

	var size int64
	switch {
	case stderrors.Is(err, errLinkOutsideRoot):
		logger.Debug("Symlink leaves root, not followed", zap.String("path", apiPath))
	case err != nil:
		logger.Warn("Failed to read entry metadata",
			zap.String("path", apiPath),
			zap.Error(stripPath(err)))
	default:
		size = info.Size()
	}

	mimeType := Classify(name)
	entry.Size = &size
	entry.MimeType = &mimeType
	entry.Extension = Extension(name)
	return entry
}

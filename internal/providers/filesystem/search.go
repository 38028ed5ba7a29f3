package filesystem

import (
	"context"
	stderrors "errors"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/GriffinCanCode/fileserver/internal/infrastructure/logging"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/jmgilman/go/errors"
)

// DefaultSearchLimit bounds a search when the caller gives no limit.
const DefaultSearchLimit = 200

var errLimitReached = stderrors.New("search limit reached")

// SearchResult holds the matches of one search.
type SearchResult struct {
	Entries   []FileEntry
	Truncated bool
}

// Searcher finds entries beneath a directory whose path matches a glob.
type Searcher struct {
	resolver *Resolver
	logger   *logging.Logger
	maxLimit int
}

// NewSearcher creates a searcher that never returns more than maxLimit
// entries. A non-positive maxLimit disables the cap.
func NewSearcher(resolver *Resolver, logger *logging.Logger, maxLimit int) *Searcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Searcher{resolver: resolver, logger: logger, maxLimit: maxLimit}
}

// Search walks dir without following symlinks and returns entries whose
// slash path relative to dir matches pattern. Patterns without a "/" match
// the base name at any depth. Results are sorted by path.
func (s *Searcher) Search(ctx context.Context, dir ResolvedPath, pattern string, limit int) (*SearchResult, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, errors.WithContextMap(
			errors.New(errors.CodeInvalidInput, "search pattern required"),
			map[string]interface{}{"operation": OpSearch, "path": dir.Rel()},
		)
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, errors.WithContextMap(
			errors.New(errors.CodeInvalidInput, "invalid search pattern"),
			map[string]interface{}{"operation": OpSearch, "path": dir.Rel(), "pattern": pattern},
		)
	}

	limit = s.clamp(limit)
	matchBase := !strings.Contains(pattern, "/")

	info, err := os.Stat(dir.Abs())
	if err != nil {
		return nil, translate(OpSearch, dir.Rel(), err)
	}
	if !info.IsDir() {
		return nil, errors.WithContextMap(
			errors.New(errors.CodeInvalidInput, "search path is not a directory"),
			map[string]interface{}{"operation": OpSearch, "path": dir.Rel()},
		)
	}

	var (
		mu        sync.Mutex
		matches   []string
		truncated bool
	)

	conf := fastwalk.Config{Follow: false}
	err = fastwalk.Walk(&conf, dir.Abs(), func(p string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil || p == dir.Abs() {
			return nil
		}

		rel, relErr := filepath.Rel(dir.Abs(), p)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		subject := rel
		if matchBase {
			subject = path.Base(rel)
		}
		if ok, _ := doublestar.Match(pattern, subject); !ok {
			return nil
		}

		mu.Lock()
		defer mu.Unlock()
		if len(matches) >= limit {
			truncated = true
			return errLimitReached
		}
		matches = append(matches, rel)
		return nil
	})
	if err != nil && !stderrors.Is(err, errLimitReached) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.Wrap(ctxErr, errors.CodeTimeout, "search cancelled")
		}
		return nil, translate(OpSearch, dir.Rel(), err)
	}

	sort.Strings(matches)

	entries := make([]FileEntry, 0, len(matches))
	for _, rel := range matches {
		abs := filepath.Join(dir.Abs(), filepath.FromSlash(rel))
		entries = append(entries, describe(s.resolver, s.logger, abs, "/"+path.Join(dir.Rel(), rel)))
	}

	return &SearchResult{Entries: entries, Truncated: truncated}, nil
}

func (s *Searcher) clamp(limit int) int {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if s.maxLimit > 0 && limit > s.maxLimit {
		limit = s.maxLimit
	}
	return limit
}

package middleware

import (
	"fmt"
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// compressMinSize skips responses too small to benefit.
const compressMinSize = 1024

// Compress wraps h so JSON responses are gzipped for clients that accept it.
// Other content types, served file bytes included, pass through untouched
// and keep their exact Content-Length.
func Compress(h http.Handler) (http.Handler, error) {
	wrapper, err := gzhttp.NewWrapper(
		gzhttp.MinSize(compressMinSize),
		gzhttp.ContentTypes([]string{"application/json"}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip wrapper: %w", err)
	}
	return wrapper(h), nil
}

package filesystem

import (
	"context"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/jmgilman/go/errors"
	"github.com/saintfish/chardet"
)

// Reader loads whole files for delivery.
type Reader struct {
	sniff bool
}

// NewReader creates a reader. With sniff enabled, files whose name gives no
// type are identified from their leading bytes.
func NewReader(sniff bool) *Reader {
	return &Reader{sniff: sniff}
}

// Read returns the full content of the file at target.
func (r *Reader) Read(ctx context.Context, target ResolvedPath) (*Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(target.Abs())
	if err != nil {
		return nil, translate(OpRead, target.Rel(), err)
	}
	if info.IsDir() {
		return nil, errors.WithContextMap(
			errors.New(errors.CodeInvalidInput, "path is a directory"),
			map[string]interface{}{"operation": OpRead, "path": target.Rel()},
		)
	}

	data, err := os.ReadFile(target.Abs())
	if err != nil {
		return nil, translate(OpRead, target.Rel(), err)
	}

	name := info.Name()
	return &Content{
		Name:     name,
		Data:     data,
		Length:   int64(len(data)),
		MimeType: r.contentType(name, data),
	}, nil
}

// contentType picks the response type: the name-based guess first, then a
// sniff of the bytes, then a charset for textual types.
func (r *Reader) contentType(name string, data []byte) string {
	mimeType := Classify(name)
	if mimeType == DefaultMimeType && r.sniff && len(data) > 0 {
		detected := mimetype.Detect(data)
		mimeType = detected.String()
	}

	if strings.Contains(mimeType, "charset=") || !isTextType(baseType(mimeType)) {
		return mimeType
	}
	return mimeType + "; charset=" + DetectCharset(data)
}

// DetectCharset names the encoding of text data, defaulting to utf-8.
func DetectCharset(data []byte) string {
	if utf8.Valid(data) {
		return "utf-8"
	}
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil || result.Charset == "" {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

func baseType(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		return strings.TrimSpace(mimeType[:i])
	}
	return mimeType
}

package filesystem

// Kind distinguishes files from directories in listings and delete results.
type Kind string

const (
	KindFile      Kind = "file"
	KindDirectory Kind = "directory"
)

// DefaultMimeType is reported for files whose type cannot be determined.
const DefaultMimeType = "application/octet-stream"

// FileEntry describes one child of a listed directory.
//
// Size, MimeType and Extension are nil for directories. Extension is also nil
// for files without one.
type FileEntry struct {
	Name      string  `json:"name"`
	Type      Kind    `json:"type"`
	Size      *int64  `json:"size"`
	MimeType  *string `json:"mimeType"`
	Extension *string `json:"extension"`
	Path      string  `json:"path"`
}

// IsDir reports whether the entry is a directory.
func (e FileEntry) IsDir() bool {
	return e.Type == KindDirectory
}

// Content is a file read fully into memory, ready to be written as a
// response body.
type Content struct {
	Name     string
	Data     []byte
	Length   int64
	MimeType string
}

// BrowseResult is either a directory listing or a file's content, never both.
type BrowseResult struct {
	Path    string
	Entries []FileEntry
	Content *Content
}

// IsListing reports whether the result holds directory entries.
func (r *BrowseResult) IsListing() bool {
	return r.Content == nil
}

package filesystem

import (
	"mime"
	"path/filepath"
	"strings"
)

// knownTypes pins the answers for common extensions so results do not vary
// with the host's mime.types files.
var knownTypes = map[string]string{
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".htm":  "text/html",
	".html": "text/html",
	".css":  "text/css",
	".js":   "text/javascript",
	".mjs":  "text/javascript",
	".json": "application/json",
	".xml":  "application/xml",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
	".toml": "application/toml",
	".pdf":  "application/pdf",
	".zip":  "application/zip",
	".gz":   "application/gzip",
	".tar":  "application/x-tar",
	".wasm": "application/wasm",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".ico":  "image/vnd.microsoft.icon",
	".bmp":  "image/bmp",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".mov":  "video/quicktime",
	".go":   "text/x-go",
	".py":   "text/x-python",
	".sh":   "application/x-sh",
}

// Classify guesses a MIME type from the file name's extension alone. It never
// touches the filesystem and falls back to DefaultMimeType.
func Classify(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return DefaultMimeType
	}
	if t, ok := knownTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		// Parameters such as "; charset=utf-8" are left to the reader.
		return baseType(t)
	}
	return DefaultMimeType
}

// Extension returns the file's extension including the dot, or nil when the
// name has none.
func Extension(name string) *string {
	ext := filepath.Ext(name)
	if ext == "" || ext == name {
		return nil
	}
	return &ext
}

// isTextType reports whether a MIME type carries text that may need a
// charset parameter.
func isTextType(mimeType string) bool {
	if strings.HasPrefix(mimeType, "text/") {
		return true
	}
	switch mimeType {
	case "application/json", "application/xml", "application/yaml",
		"application/toml", "application/x-sh", "image/svg+xml":
		return true
	}
	return false
}

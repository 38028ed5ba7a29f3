package client

import (
	"context"
	"encoding/json"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/fileserver/internal/providers/filesystem"
	"github.com/go-resty/resty/v2"
	"github.com/jmgilman/go/errors"
)

// Health is the server's health report.
type Health struct {
	Status         string `json:"status"`
	Timestamp      string `json:"timestamp"`
	Environment    string `json:"environment"`
	FilesDirectory string `json:"filesDirectory"`
}

// Health fetches the server's health report.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	resp, err := c.call(ctx, "health", "", func(r *resty.Request) (*resty.Response, error) {
		return r.Get(apiPrefix + "/health")
	})
	if err != nil {
		return nil, err
	}

	var health Health
	if err := decodeContent(resp, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// ValidateToken asks the server whether the configured token is accepted
// and returns its message.
func (c *Client) ValidateToken(ctx context.Context) (string, error) {
	resp, err := c.call(ctx, "validate", "", func(r *resty.Request) (*resty.Response, error) {
		return r.Post(apiPrefix + "/auth/validate")
	})
	if err != nil {
		return "", err
	}
	return decodeMessage(resp)
}

// List returns the entries of a directory.
func (c *Client) List(ctx context.Context, dir string) ([]filesystem.FileEntry, error) {
	resp, err := c.call(ctx, "list", dir, func(r *resty.Request) (*resty.Response, error) {
		return r.Get(browseURL(dir))
	})
	if err != nil {
		return nil, err
	}

	notDir := errors.WithContext(errors.New(errors.CodeInvalidInput, "not a directory"), "path", dir)
	if !isJSON(resp) {
		return nil, notDir
	}

	var body envelope
	if err := json.Unmarshal(resp.Body(), &body); err != nil || body.Files == nil {
		return nil, notDir
	}

	entries := []filesystem.FileEntry{}
	if err := json.Unmarshal(body.Files, &entries); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "malformed listing")
	}
	return entries, nil
}

// Get downloads a file. For a directory the body is the JSON listing.
func (c *Client) Get(ctx context.Context, file string) (*filesystem.Content, error) {
	resp, err := c.call(ctx, "get", file, func(r *resty.Request) (*resty.Response, error) {
		return r.Get(browseURL(file))
	})
	if err != nil {
		return nil, err
	}

	data := resp.Body()
	length := int64(len(data))
	if header := resp.Header().Get("Content-Length"); header != "" {
		if n, err := strconv.ParseInt(header, 10, 64); err == nil {
			length = n
		}
	}

	return &filesystem.Content{
		Name:     path.Base("/" + strings.Trim(file, "/")),
		Data:     data,
		Length:   length,
		MimeType: resp.Header().Get("Content-Type"),
	}, nil
}

// CreateDir creates a directory and returns its root-relative location.
func (c *Client) CreateDir(ctx context.Context, dir string) (string, error) {
	resp, err := c.call(ctx, "createdir", dir, func(r *resty.Request) (*resty.Response, error) {
		return r.SetQueryParam("path", dir).Post(apiPrefix + "/createdir")
	})
	if err != nil {
		return "", err
	}

	var created struct {
		Message  string `json:"message"`
		Location string `json:"location"`
	}
	if err := decodeContent(resp, &created); err != nil {
		return "", err
	}
	return created.Location, nil
}

// Delete removes a file or an empty directory and returns the server's
// message.
func (c *Client) Delete(ctx context.Context, target string) (string, error) {
	resp, err := c.call(ctx, "delete", target, func(r *resty.Request) (*resty.Response, error) {
		return r.SetQueryParam("path", target).Post(apiPrefix + "/delete")
	})
	if err != nil {
		return "", err
	}
	return decodeMessage(resp)
}

// UploadedFile describes one file stored by Upload.
type UploadedFile struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Upload stores data as name inside dir, creating dir on the server when it
// does not exist.
func (c *Client) Upload(ctx context.Context, dir, name string, data io.Reader) (*UploadedFile, error) {
	resp, err := c.call(ctx, "upload", path.Join(dir, name), func(r *resty.Request) (*resty.Response, error) {
		return r.SetQueryParam("path", dir).
			SetFileReader("files", name, data).
			Post(apiPrefix + "/upload")
	})
	if err != nil {
		return nil, err
	}

	var body struct {
		Files []UploadedFile `json:"files"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil || len(body.Files) != 1 {
		return nil, errors.New(errors.CodeInternal, "malformed upload response")
	}
	return &body.Files[0], nil
}

// Search finds entries under dir whose names match pattern. A limit of
// zero uses the server default.
func (c *Client) Search(ctx context.Context, dir, pattern string, limit int) (*filesystem.SearchResult, error) {
	resp, err := c.call(ctx, "search", dir, func(r *resty.Request) (*resty.Response, error) {
		r.SetQueryParam("q", pattern)
		if dir != "" {
			r.SetQueryParam("path", dir)
		}
		if limit > 0 {
			r.SetQueryParam("limit", strconv.Itoa(limit))
		}
		return r.Get(apiPrefix + "/search")
	})
	if err != nil {
		return nil, err
	}

	var body struct {
		Files     []filesystem.FileEntry `json:"files"`
		Truncated bool                   `json:"truncated"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "malformed search response")
	}
	if body.Files == nil {
		body.Files = []filesystem.FileEntry{}
	}
	return &filesystem.SearchResult{Entries: body.Files, Truncated: body.Truncated}, nil
}

func isJSON(resp *resty.Response) bool {
	return strings.HasPrefix(resp.Header().Get("Content-Type"), "application/json")
}

func decodeContent(resp *resty.Response, v any) error {
	var body envelope
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "malformed response")
	}
	if err := json.Unmarshal(body.Content, v); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "malformed response content")
	}
	return nil
}

func decodeMessage(resp *resty.Response) (string, error) {
	var body envelope
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "malformed response")
	}
	return body.Message, nil
}

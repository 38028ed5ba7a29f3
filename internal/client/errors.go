package client

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/jmgilman/go/errors"
)

// envelope is the JSON shape every non-content response shares.
type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Content json.RawMessage `json:"content,omitempty"`
	Files   json.RawMessage `json:"files,omitempty"`
}

// codeFor maps an HTTP status onto an error code.
func codeFor(status int) errors.ErrorCode {
	switch status {
	case http.StatusBadRequest:
		return errors.CodeInvalidInput
	case http.StatusUnauthorized:
		return errors.CodeUnauthorized
	case http.StatusForbidden:
		return errors.CodeForbidden
	case http.StatusNotFound:
		return errors.CodeNotFound
	case http.StatusConflict:
		return errors.CodeAlreadyExists
	case http.StatusTooManyRequests:
		return errors.CodeRateLimit
	case http.StatusServiceUnavailable:
		return errors.CodeUnavailable
	case http.StatusInternalServerError:
		return errors.CodeInternal
	default:
		return errors.CodeUnknown
	}
}

func responseError(op, target string, resp *resty.Response) error {
	var body envelope
	_ = json.Unmarshal(resp.Body(), &body)

	message := body.Message
	if message == "" {
		message = body.Error
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode())
	}

	return errors.WithContextMap(errors.New(codeFor(resp.StatusCode()), message), map[string]interface{}{
		"operation": op,
		"path":      target,
		"status":    resp.StatusCode(),
	})
}

func transportError(ctx context.Context, op, target string, err error) error {
	code := errors.CodeNetwork
	message := "request failed"
	if ctx.Err() != nil {
		code = errors.CodeTimeout
		message = "request cancelled"
	}
	return errors.WrapWithContext(err, code, message, map[string]interface{}{
		"operation": op,
		"path":      target,
	})
}

package http

import (
	"net/http"

	"github.com/jmgilman/go/errors"
)

// Client-facing messages. Raw OS error text never reaches a response.
const (
	MsgWelcome        = "Success, Welcome to your file server API!"
	MsgKeyValid       = "API Key validated successfully"
	MsgFolderCreated  = "Folder created successfully"
	MsgFolderExists   = "Folder already exists"
	MsgNotExist       = "Folder or File does not exist"
	MsgOutsideRoot    = "Path is outside the files directory"
	MsgNotFound       = "File or directory not found"
	MsgInternal       = "Internal Server Error"
	MsgInternalBrowse = "Internal server error"
	MsgBadLimit       = "limit must be a positive integer"
	MsgNoFiles        = "No files uploaded"
)

// UploadField is the multipart field carrying uploaded files.
const UploadField = "files"

// statusFor maps an error code onto the HTTP status the API reports.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeUnauthorized:
		return http.StatusUnauthorized
	case errors.CodeForbidden:
		return http.StatusForbidden
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeAlreadyExists, errors.CodeConflict:
		return http.StatusConflict
	case errors.CodeInvalidInput:
		return http.StatusBadRequest
	case errors.CodeTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// messageOf returns the PlatformError message for client-safe errors, or
// fallback for anything else.
func messageOf(err error, fallback string) string {
	var platformErr errors.PlatformError
	if errors.As(err, &platformErr) && platformErr.Message() != "" {
		return platformErr.Message()
	}
	return fallback
}

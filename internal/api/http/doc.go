// Package http holds the gin handlers for the file server API.
//
// Every JSON response is an envelope whose "status" field mirrors the HTTP
// status code, plus one of "message", "content", "error" or "files".
// Successful browses of a file skip the envelope and return the raw bytes.
package http

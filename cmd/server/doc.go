// Package main is the entry point for the file server.
//
// The server exposes one directory tree over HTTP: anyone may browse,
// download and search; creating and deleting require the API key.
//
// Configuration:
//   - Environment variables (PORT, BASE_DIR, API_KEY, ENVIRONMENT, LOG_LEVEL, ...)
//   - An optional YAML or TOML file via -config or CONFIG_FILE
//   - CLI flags (override both)
//
// Usage:
//
//	API_KEY=secret ./server -dir ./files -port 5000
//	./server -config fileserver.yaml
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main

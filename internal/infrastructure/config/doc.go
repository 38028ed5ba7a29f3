// Package config provides 12-factor configuration management for the file server.
//
// Configuration is loaded from environment variables with sensible defaults.
// An optional YAML or TOML file (CONFIG_FILE) overrides environment values,
// and CLI flags override both.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, timeouts)
//   - Files: served root directory, API key, environment label
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - Compression: gzip for JSON responses
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Serving %s on %s\n", cfg.Files.BaseDir, cfg.Address())
//
// Environment Variables:
//   - PORT, HOST, READ_TIMEOUT, WRITE_TIMEOUT, SHUTDOWN_TIMEOUT
//   - API_KEY, API_KEY_BCRYPT, ENVIRONMENT, BASE_DIR
//   - SNIFF_CONTENT, SEARCH_MAX_RESULTS
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - COMPRESSION_ENABLED, CONFIG_FILE
package config

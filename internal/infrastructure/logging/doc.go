// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Example Usage:
//
//	logger := logging.NewFromLevel("info", false)
//	logger.Info("Server starting", zap.String("port", "5000"))
//	logger.Error("Delete failed", zap.String("path", rel), zap.Error(err))
package logging

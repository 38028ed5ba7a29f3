// Package middleware provides the HTTP middleware for the file server.
//
// Middleware stack includes:
//   - CORS: Cross-origin resource sharing with configurable origins
//   - RateLimit: Per-IP token bucket rate limiting with idle eviction
//   - RequireToken: Bearer token check guarding mutating routes
//   - SecurityHeaders: nosniff, frame denial and no-store
//   - Compress: gzip for JSON responses only
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
//	protected := router.Group("/", middleware.RequireToken(gate, metrics, logger))
//	handler, err := middleware.Compress(router)
package middleware

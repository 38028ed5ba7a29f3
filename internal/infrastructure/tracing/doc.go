/*
Package tracing provides lightweight request tracing.

# Overview

Each HTTP request gets a span with a ULID-based trace and span id. Incoming
X-Trace-ID and X-Span-ID headers continue an existing trace, and the ids
are echoed on the response so clients can correlate logs. Finished spans
are buffered and written to the structured log by a single collector
goroutine.

# Usage

	tracer := tracing.New("fileserver", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	// Propagate to an outgoing request
	headers := map[string]string{}
	tracing.InjectTraceContext(ctx, headers)

# Trace Format

- X-Trace-ID: identifier for the whole request flow
- X-Span-ID: identifier for the current operation
*/
package tracing

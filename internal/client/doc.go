/*
Package client is a Go client for the file server API.

Requests go through resty with retries for idempotent reads and a circuit
breaker that trips on transport failures and 503s. Non-2xx responses become
errors carrying a code from github.com/jmgilman/go/errors, so callers can
branch on errors.GetCode(err) == errors.CodeNotFound and the like. Trace ids
in the request context are forwarded as X-Trace-ID and X-Span-ID headers.

	c := client.New("http://localhost:5000", client.Options{Token: key})
	entries, err := c.List(ctx, "photos")
*/
package client

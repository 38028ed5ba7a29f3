package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/GriffinCanCode/fileserver/internal/infrastructure/logging"
	"github.com/GriffinCanCode/fileserver/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/fileserver/internal/infrastructure/tracing"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/jmgilman/go/errors"
	"go.uber.org/zap"
)

const (
	apiPrefix      = "/api/v1"
	defaultTimeout = 30 * time.Second
	userAgent      = "fileserver-client/1.0"
)

// Options configures a Client. The zero value sends no token, never retries
// and uses DefaultBreaker.
type Options struct {
	Token      string
	Timeout    time.Duration
	RetryCount int
	Logger     *logging.Logger
	Breaker    *resilience.Breaker
	Transport  http.RoundTripper
}

// Client calls a file server over HTTP.
type Client struct {
	http    *resty.Client
	breaker *resilience.Breaker
	logger  *logging.Logger
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RetryCount < 0 {
		opts.RetryCount = 0
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Breaker == nil {
		opts.Breaker = DefaultBreaker()
	}
	if opts.Transport == nil {
		// Pooled transport with sane dial and idle timeouts.
		opts.Transport = retryablehttp.NewClient().HTTPClient.Transport
	}

	r := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(opts.Timeout).
		SetTransport(opts.Transport).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(retryable).
		SetHeader("User-Agent", userAgent)

	if opts.Token != "" {
		r.SetAuthToken(opts.Token)
	}

	r.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		headers := make(map[string]string, 2)
		tracing.InjectTraceContext(req.Context(), headers)
		req.SetHeaders(headers)
		return nil
	})

	return &Client{
		http:    r,
		breaker: opts.Breaker,
		logger:  opts.Logger,
	}
}

// DefaultBreaker trips after five consecutive transport failures or 503s.
// Client errors such as 404 never count against the server.
func DefaultBreaker() *resilience.Breaker {
	return resilience.New("fileserver", resilience.Settings{
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: serverHealthy,
	})
}

// BreakerState reports the state of the client's circuit breaker.
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// retryable retries reads on transport errors, 429 and 503. Mutations are
// never retried.
func retryable(resp *resty.Response, err error) bool {
	if resp == nil || resp.Request == nil || resp.Request.Method != http.MethodGet {
		return false
	}
	if err != nil {
		return resp.Request.Context().Err() == nil
	}
	switch resp.StatusCode() {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return true
	}
	return false
}

func serverHealthy(err error) bool {
	switch errors.GetCode(err) {
	case errors.CodeNetwork, errors.CodeUnavailable:
		return false
	}
	return true
}

// call runs one request through the breaker and turns transport failures
// and non-2xx responses into coded errors.
func (c *Client) call(ctx context.Context, op, target string, send func(*resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	start := time.Now()

	resp, err := resilience.Do(c.breaker, func() (*resty.Response, error) {
		resp, err := send(c.http.R().SetContext(ctx))
		if err != nil {
			return nil, transportError(ctx, op, target, err)
		}
		if resp.IsError() {
			return resp, responseError(op, target, resp)
		}
		return resp, nil
	})

	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("path", target),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		c.logger.Debug("File server request failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	c.logger.Debug("File server request", append(fields, zap.Int("status", resp.StatusCode()))...)
	return resp, nil
}

// browseURL maps a root-relative path onto the browse route, escaping each
// segment.
func browseURL(target string) string {
	target = strings.Trim(strings.ReplaceAll(target, "\\", "/"), "/")
	if target == "" {
		return apiPrefix + "/browse"
	}
	segments := strings.Split(target, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return apiPrefix + "/browse/" + strings.Join(segments, "/")
}

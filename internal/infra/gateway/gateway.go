// Package gateway is the hub's thin HTTP client boundary (C9): verification
// GETs, topic content GETs, and subscriber delivery POSTs, each wrapped in
// retry-with-backoff and a named circuit breaker so a single flaky origin or
// subscriber cannot cascade into hub-wide latency.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"

	"pushhub/internal/resilience/circuitbreaker"
	"pushhub/internal/resilience/retry"
)

// Client is the hub's outbound HTTP gateway.
type Client struct {
	http *http.Client

	fetchBreaker  *circuitbreaker.CircuitBreaker
	verifyBreaker *circuitbreaker.CircuitBreaker

	fetchRetry  retry.Config
	verifyRetry retry.Config
	deliverRetry retry.Config
}

// New builds a Client around httpClient, wiring a named circuit breaker and
// retry policy for each of the three outbound call shapes the hub makes.
// Delivery circuit breakers are created lazily per callback host by the
// notify worker (see internal/usecase/notify), since "one flaky subscriber"
// must not trip delivery to every other subscriber.
func New(httpClient *http.Client) *Client {
	return &Client{
		http:          httpClient,
		fetchBreaker:  circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		verifyBreaker: circuitbreaker.New(circuitbreaker.VerificationConfig()),
		fetchRetry:    retry.FeedFetchConfig(),
		verifyRetry:   retry.VerificationConfig(),
		deliverRetry:  retry.DeliveryConfig(),
	}
}

// ErrTransportFailure wraps a could-not-connect error from FetchContent; the
// caller (Topic.fetch) absorbs it into the Failed flag rather than raising.
var ErrTransportFailure = errors.New("transport failure")

// FetchContent performs the topic content GET with the given User-Agent
// header, retrying and circuit-breaking transient failures. It returns
// ErrTransportFailure-wrapped errors when the origin could not be reached at
// all; any received HTTP response (including non-2xx) is returned as a body
// with a nil error, since the feed parser alone decides whether the content
// was usable.
func (c *Client) FetchContent(ctx context.Context, topicURL, userAgent string) ([]byte, error) {
	var body []byte

	err := retry.WithBackoff(ctx, c.fetchRetry, func() error {
		result, cbErr := c.fetchBreaker.Execute(func() (interface{}, error) {
			return c.doGet(ctx, topicURL, userAgent)
		})
		if cbErr != nil {
			if errors.Is(cbErr, gobreaker.ErrOpenState) {
				slog.Warn("feed fetch circuit breaker open", slog.String("url", topicURL))
			}
			return cbErr
		}
		body = result.([]byte)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransportFailure, err)
	}
	return body, nil
}

func (c *Client) doGet(ctx context.Context, rawURL, userAgent string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}

// VerificationResult is the outcome of a subscription verification GET.
type VerificationResult struct {
	Status int
	Body   string
}

// Verify performs the subscription intent-verification GET: hub.mode,
// hub.topic and hub.challenge as query parameters. Any transport failure is
// treated exactly like a non-matching response — verification never raises,
// it just fails to verify.
func (c *Client) Verify(ctx context.Context, callbackURL, mode, topicURL, challenge string) VerificationResult {
	var result VerificationResult

	err := retry.WithBackoff(ctx, c.verifyRetry, func() error {
		r, cbErr := c.verifyBreaker.Execute(func() (interface{}, error) {
			return c.doVerify(ctx, callbackURL, mode, topicURL, challenge)
		})
		if cbErr != nil {
			return cbErr
		}
		result = r.(VerificationResult)
		return nil
	})
	if err != nil {
		slog.Warn("subscription verification request failed",
			slog.String("callback", callbackURL), slog.Any("error", err))
		return VerificationResult{}
	}
	return result
}

func (c *Client) doVerify(ctx context.Context, callbackURL, mode, topicURL, challenge string) (VerificationResult, error) {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return VerificationResult{}, err
	}
	q := u.Query()
	q.Set("hub.mode", mode)
	q.Set("hub.topic", topicURL)
	q.Set("hub.challenge", challenge)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return VerificationResult{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return VerificationResult{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return VerificationResult{}, err
	}
	return VerificationResult{Status: resp.StatusCode, Body: string(body)}, nil
}

// Deliver POSTs content to a subscriber callback as the form field "feed",
// with the caller-supplied headers, through the given circuit breaker (one
// per callback host, owned by the notify worker). It returns the HTTP status
// code; a non-2xx status is the caller's signal to retry per the job's
// max_tries budget, not an error from this call.
func (c *Client) Deliver(ctx context.Context, breaker *circuitbreaker.CircuitBreaker, callbackURL string, headers map[string]string, body []byte) (int, error) {
	var status int

	err := retry.WithBackoff(ctx, c.deliverRetry, func() error {
		r, cbErr := breaker.Execute(func() (interface{}, error) {
			return c.doDeliver(ctx, callbackURL, headers, body)
		})
		if cbErr != nil {
			return cbErr
		}
		status = r.(int)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return status, nil
}

func (c *Client) doDeliver(ctx context.Context, callbackURL string, headers map[string]string, body []byte) (int, error) {
	form := url.Values{}
	form.Set("feed", string(body))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// NotifyListener performs the listener "here is a new topic" GET.
func (c *Client) NotifyListener(ctx context.Context, callbackURL, topicURL string) error {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return err
	}
	q := u.Query()
	q.Set("topic", topicURL)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

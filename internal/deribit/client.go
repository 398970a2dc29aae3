package deribit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public Deribit JSON API.
const DefaultBaseURL = "https://www.deribit.com/api/v2"

const (
	maxRetries      = 3
	maxRedirects    = 5
	requestTimeout  = 30 * time.Second
	requestInterval = 200 * time.Millisecond
	retryWait       = time.Second
)

// ErrTooManyRedirects is returned (wrapped) when a request bounces through
// more than maxRedirects Location headers.
var ErrTooManyRedirects = errors.New("deribit: too many redirects")

// Client issues rate-limited GET requests against the Deribit public API
// with retry on transient failures and exponential backoff on HTTP 429.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	chunkPause time.Duration
}

// NewClient builds a client for the given base endpoint; an empty baseURL
// selects the production API.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: requestTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return ErrTooManyRedirects
				}
				return nil
			},
		},
		limiter:    rate.NewLimiter(rate.Every(requestInterval), 1),
		chunkPause: 300 * time.Millisecond,
	}
}

// get issues a GET against path and returns the JSON "result" field of the
// response, or the raw payload when no result wrapper exists. It retries up
// to maxRetries times: HTTP 429 waits 2^attempt seconds, any other failure
// waits one second. The last error is propagated once retries are exhausted.
func (c *Client) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, status, err := c.do(ctx, path, params)
		switch {
		case err != nil:
			lastErr = err
		case status == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("deribit: rate limited on %s", path)
			// No point backing off when no retry remains.
			if attempt < maxRetries-1 {
				wait := time.Duration(1<<attempt) * time.Second
				log.Warn().Str("path", path).Dur("wait", wait).Msg("rate limited, backing off")
				if err := sleep(ctx, wait); err != nil {
					return nil, err
				}
			}
			continue
		case status < 200 || status >= 300:
			lastErr = fmt.Errorf("deribit: unexpected status %d on %s", status, path)
		default:
			var envelope struct {
				Result json.RawMessage `json:"result"`
			}
			if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Result) > 0 {
				return envelope.Result, nil
			}
			return json.RawMessage(body), nil
		}

		log.Warn().Err(lastErr).Str("path", path).Int("attempt", attempt+1).Msg("request failed")
		if attempt < maxRetries-1 {
			if err := sleep(ctx, retryWait); err != nil {
				return nil, err
			}
		}
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, path string, params url.Values) ([]byte, int, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("deribit: failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("deribit: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("deribit: failed to read response body: %w", err)
	}
	return body, resp.StatusCode, nil
}

// sleep waits for d unless the context ends first.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package feedhttp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/fire-danger-service/internal/domain"
	"github.com/couchcryptid/fire-danger-service/internal/observability"
)

// maxBodyBytes caps a feed body. The RFS feed is a few tens of kilobytes.
const maxBodyBytes = 4 << 20

// Client implements domain.Fetcher with a plain HTTP GET.
type Client struct {
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a feed client. TLS certificates are verified unless
// verifyTLS is false.
func NewClient(timeout time.Duration, verifyTLS bool, metrics *observability.Metrics, logger *slog.Logger) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !verifyTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via FEED_VERIFY_TLS=false
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Fetch GETs feedURL and returns the body. Every failure is a
// *domain.TransportError.
func (c *Client) Fetch(ctx context.Context, feedURL string) ([]byte, error) {
	host := hostLabel(feedURL)
	start := time.Now()

	body, err := c.doRequest(ctx, feedURL)

	c.metrics.FeedRequestDuration.WithLabelValues(host).Observe(time.Since(start).Seconds())
	switch {
	case err != nil:
		c.metrics.FeedRequests.WithLabelValues(host, "error").Inc()
	case len(body) == 0:
		c.metrics.FeedRequests.WithLabelValues(host, "empty").Inc()
	default:
		c.metrics.FeedRequests.WithLabelValues(host, "success").Inc()
	}
	if err == nil {
		c.logger.Debug("feed fetched", "url", feedURL, "bytes", len(body), "duration", time.Since(start))
	}
	return body, err
}

func (c *Client) doRequest(ctx context.Context, feedURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, &domain.TransportError{URL: feedURL, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/xml, text/xml;q=0.9, */*;q=0.5")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.TransportError{URL: feedURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &domain.TransportError{
			URL:        feedURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", snippet),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, &domain.TransportError{URL: feedURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if len(body) > maxBodyBytes {
		return nil, &domain.TransportError{URL: feedURL, StatusCode: resp.StatusCode, Err: errors.New("body exceeds size limit")}
	}
	return body, nil
}

func hostLabel(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Host == "" {
		return "invalid"
	}
	return u.Host
}

package feedhttp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/fire-danger-service/internal/domain"
	"github.com/couchcryptid/fire-danger-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testFeed          = `<FireDangerMap><District><Name>ACT</Name></District></FireDangerMap>`
	contentTypeXML    = "application/xml"
	headerContentType = "Content-Type"
)

func testClient(timeout time.Duration) (*Client, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, metrics
}

func TestClient_Fetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/feeds/fdrToban.xml", r.URL.Path)
		w.Header().Set(headerContentType, contentTypeXML)
		_, _ = w.Write([]byte(testFeed))
	}))
	defer srv.Close()

	c, metrics := testClient(5 * time.Second)
	body, err := c.Fetch(context.Background(), srv.URL+"/feeds/fdrToban.xml")
	require.NoError(t, err)
	assert.Equal(t, testFeed, string(body))

	host := strings.TrimPrefix(srv.URL, "http://")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FeedRequests.WithLabelValues(host, "success")))
}

func TestClient_Fetch_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, metrics := testClient(5 * time.Second)
	body, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err, "an empty body is not a transport failure")
	assert.Empty(t, body)

	host := strings.TrimPrefix(srv.URL, "http://")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FeedRequests.WithLabelValues(host, "empty")))
}

func TestClient_Fetch_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	c, metrics := testClient(5 * time.Second)
	_, err := c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	var transportErr *domain.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, http.StatusBadGateway, transportErr.StatusCode)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream down")

	host := strings.TrimPrefix(srv.URL, "http://")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FeedRequests.WithLabelValues(host, "error")))
}

func TestClient_Fetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, _ := testClient(50 * time.Millisecond)
	_, err := c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	var transportErr *domain.TransportError
	assert.ErrorAs(t, err, &transportErr)
	assert.Zero(t, transportErr.StatusCode)
}

func TestClient_Fetch_InvalidURL(t *testing.T) {
	c, _ := testClient(time.Second)
	_, err := c.Fetch(context.Background(), "://not a url")
	require.Error(t, err)

	var transportErr *domain.TransportError
	assert.ErrorAs(t, err, &transportErr)
}

func TestNewClient_TLSVerification(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(testFeed))
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	verifying := NewClient(5*time.Second, true, observability.NewMetricsForTesting(), logger)
	_, err := verifying.Fetch(context.Background(), srv.URL)
	require.Error(t, err, "self-signed certificate must be rejected by default")

	insecure := NewClient(5*time.Second, false, observability.NewMetricsForTesting(), logger)
	body, err := insecure.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, testFeed, string(body))

	transport, ok := insecure.httpClient.Transport.(*http.Transport)
	require.True(t, ok)
	require.NotNil(t, transport.TLSClientConfig)
	assert.True(t, transport.TLSClientConfig.InsecureSkipVerify)
}

func TestHostLabel(t *testing.T) {
	assert.Equal(t, "www.rfs.nsw.gov.au", hostLabel(domain.RFS.URL))
	assert.Equal(t, "esa.act.gov.au", hostLabel(domain.ESA.URL))
	assert.Equal(t, "invalid", hostLabel("not-a-url"))
}

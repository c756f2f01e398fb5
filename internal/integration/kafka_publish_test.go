//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/fire-danger-service/internal/adapter/feedhttp"
	"github.com/couchcryptid/fire-danger-service/internal/adapter/kafka"
	"github.com/couchcryptid/fire-danger-service/internal/config"
	"github.com/couchcryptid/fire-danger-service/internal/domain"
	"github.com/couchcryptid/fire-danger-service/internal/observability"
	"github.com/couchcryptid/fire-danger-service/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTopic = "test-fire-danger"
	district  = "Greater Sydney Region"
)

// publishedReading holds a deserialized message read from the reading topic.
type publishedReading struct {
	Reading domain.Reading
	Key     string
	Headers map[string]string
}

func readPublished(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedReading {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from reading topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var reading domain.Reading
	require.NoError(t, json.Unmarshal(msg.Value, &reading), "unmarshal reading")

	return publishedReading{Reading: reading, Key: string(msg.Key), Headers: headers}
}

func newConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// feedHandler serves a replaceable feed body.
type feedHandler struct {
	mu   sync.Mutex
	body string
}

func (h *feedHandler) set(body string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.body = body
}

func (h *feedHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write([]byte(h.body))
}

func districtFeed(level string) string {
	return `<FireDangerMap><District>
		<Name>` + district + `</Name>
		<RegionNumber>4</RegionNumber>
		<Councils>Bayside;Blacktown</Councils>
		<DangerLevelToday>` + level + `</DangerLevelToday>
		<FireBanToday>No</FireBanToday>
	</District></FireDangerMap>`
}

// TestKafkaWriter verifies a reading round-trips through Kafka with its key
// and headers.
func TestKafkaWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	refreshed := time.Date(2024, time.October, 16, 6, 0, 0, 0, time.UTC)
	reading := domain.Reading{
		Name:      domain.ReadingName(district),
		State:     "Very high",
		Icon:      domain.Icon,
		Available: true,
		Attributes: domain.Attributes{
			domain.AttrDistrict:     district,
			domain.AttrAttribution:  domain.RFS.Attribution,
			domain.AttrRegionNumber: 4,
		},
		RefreshedAt: refreshed,
	}
	require.NoError(t, writer.Publish(ctx, reading))

	got := readPublished(ctx, t, newConsumer(t, broker))
	assert.Equal(t, district, got.Key)
	assert.Equal(t, "Very high", got.Headers["state"])
	assert.Equal(t, "true", got.Headers["available"])
	assert.Equal(t, refreshed.Format(time.RFC3339), got.Headers["refreshed_at"])

	assert.Equal(t, "Fire Danger in Greater Sydney Region", got.Reading.Name)
	assert.Equal(t, "Very high", got.Reading.State)
	// JSON numbers decode as float64.
	assert.Equal(t, 4.0, got.Reading.Attributes[domain.AttrRegionNumber])
}

// TestPipelineEndToEnd wires the feed client, sensor and Kafka writer against a
// local feed server and verifies each refresh lands on the topic.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	handler := &feedHandler{}
	handler.set(districtFeed("HIGH"))
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	jurisdiction := domain.Jurisdiction{
		Key:         "local",
		URL:         srv.URL + "/feeds/fdrToban.xml",
		Attribution: domain.RFS.Attribution,
	}

	metrics := observability.NewMetricsForTesting()
	client := feedhttp.NewClient(5*time.Second, true, metrics, discardLogger())
	sensor := pipeline.NewSensor(domain.NewSource(jurisdiction, client, discardLogger()), district, true, discardLogger())

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(sensor, writer, discardLogger(), metrics, time.Hour)
	consumer := newConsumer(t, broker)

	first := p.RefreshOnce(ctx)
	require.Equal(t, "High", first.State)

	handler.set(districtFeed("EXTREME"))
	p.RefreshOnce(ctx)

	handler.set("")
	p.RefreshOnce(ctx)

	var states []string
	for range 3 {
		got := readPublished(ctx, t, consumer)
		assert.Equal(t, district, got.Key)
		states = append(states, got.Reading.State)
	}
	assert.Equal(t, []string{"High", "Extreme", domain.StateUnknown}, states)

	last := p.Current()
	assert.False(t, last.Available)
	assert.True(t, strings.HasPrefix(last.Name, "Fire Danger in"))
}

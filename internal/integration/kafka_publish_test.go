//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/couchcryptid/flood-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/flood-risk-service/internal/classifier"
	"github.com/couchcryptid/flood-risk-service/internal/config"
	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/observability"
	"github.com/couchcryptid/flood-risk-service/internal/pipeline"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testReportTopic = "test-flood-risk-reports"

type publishedReport struct {
	Key     string
	Headers map[string]string
	Body    struct {
		Center   domain.Coordinate    `json:"center"`
		Pattern  string               `json:"pattern"`
		Degraded int                  `json:"degraded_points"`
		Data     []domain.ReportEntry `json:"data"`
	}
}

func readReport(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedReport {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from report topic")

	var pr publishedReport
	pr.Key = string(msg.Key)
	pr.Headers = make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		pr.Headers[h.Key] = string(h.Value)
	}
	require.NoError(t, json.Unmarshal(msg.Value, &pr.Body), "unmarshal report")
	return pr
}

// TestAssessAndPublish runs a degraded assessment end to end and reads the
// published report back from a real broker.
func TestAssessAndPublish(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testReportTopic)

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaReportTopic: testReportTopic,
	}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	model, err := classifier.Load("../../models/flood_model.json", nil)
	require.NoError(t, err)

	metrics := observability.NewMetricsForTesting()
	center := domain.Coordinate{Lat: 28.6139, Lon: 77.2090}
	assessor := pipeline.New(pipeline.Deps{
		Locator:    pipeline.NewLocator(center, nil, nil, nil, discardLogger(), metrics),
		Fetcher:    pipeline.NewFetcher(nil, time.Second, discardLogger(), metrics),
		Classifier: model,
		Publisher:  writer,
		Clock:      clockwork.NewFakeClockAt(time.Date(2026, 7, 14, 9, 30, 0, 0, time.UTC)),
	}, pipeline.Options{Pattern: domain.PatternCross5, Offset: 0.01, FanoutLimit: 5, DefaultCovariates: domain.DefaultCovariates},
		discardLogger(), metrics)

	report, err := assessor.Assess(ctx, pipeline.Request{})
	require.NoError(t, err)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testReportTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	got := readReport(ctx, t, consumer)
	assert.Equal(t, "28.613900,77.209000", got.Key)
	assert.Equal(t, "cross5", got.Headers["pattern"])
	assert.Equal(t, "2026-07-14T09:30:00Z", got.Headers["generated_at"])
	assert.Equal(t, "5", got.Headers["degraded_points"])
	assert.Equal(t, 5, got.Body.Degraded)
	assert.Equal(t, report.Data(), got.Body.Data)
}

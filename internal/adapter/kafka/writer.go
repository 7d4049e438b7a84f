package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/flood-risk-service/internal/config"
	"github.com/couchcryptid/flood-risk-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces finished risk reports to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured report topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaReportTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Writer{writer: w, logger: logger}
}

// reportMessage is the published form of a report. Data matches the API
// response entries.
type reportMessage struct {
	Center      domain.Coordinate    `json:"center"`
	Zone        string               `json:"zone,omitempty"`
	Pattern     domain.Pattern       `json:"pattern"`
	GeneratedAt time.Time            `json:"generated_at"`
	Degraded    int                  `json:"degraded_points"`
	Data        []domain.ReportEntry `json:"data"`
}

// Publish serializes and writes one report. Reports for the same center share
// a key and so land on the same partition in order.
func (w *Writer) Publish(ctx context.Context, report domain.RiskReport) error {
	msg, err := serializeToMessage(report)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	w.logger.Debug("report published", "key", string(msg.Key), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a RiskReport into a Kafka message.
func serializeToMessage(report domain.RiskReport) (kafkago.Message, error) {
	center := report.Center.Rounded()
	data, err := json.Marshal(reportMessage{
		Center:      center,
		Zone:        report.Zone,
		Pattern:     report.Pattern,
		GeneratedAt: report.GeneratedAt,
		Degraded:    report.DegradedCount(),
		Data:        report.Data(),
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize risk report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(center.String()),
		Value: data,
		Time:  report.GeneratedAt,
		Headers: []kafkago.Header{
			{Key: "pattern", Value: []byte(report.Pattern)},
			{Key: "generated_at", Value: []byte(report.GeneratedAt.Format(time.RFC3339))},
			{Key: "degraded_points", Value: []byte(strconv.Itoa(report.DegradedCount()))},
		},
	}, nil
}

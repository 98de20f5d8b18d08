package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/vetbcn/clinic-directory/internal/config"
	"github.com/vetbcn/clinic-directory/internal/domain"
)

// Writer publishes imported clinics to the catalog topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer    *kafkago.Writer
	batchSize int
	clock     clockwork.Clock
	logger    *slog.Logger
}

// NewWriter creates a Kafka producer for the configured catalog topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaCatalogTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchFlushInterval,
	}
	batchSize := cfg.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}
	return &Writer{writer: w, batchSize: batchSize, clock: clockwork.NewRealClock(), logger: logger}
}

// PublishBatch serializes every clinic and writes them in chunks of the
// configured batch size. Messages are keyed by clinic ID so a compacted topic
// keeps the latest version of each clinic.
func (w *Writer) PublishBatch(ctx context.Context, clinics []domain.Clinic) error {
	if len(clinics) == 0 {
		return nil
	}
	publishedAt := w.clock.Now().UTC()

	msgs := make([]kafkago.Message, len(clinics))
	for i := range clinics {
		msg, err := serializeToMessage(clinics[i], publishedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}

	for start := 0; start < len(msgs); start += w.batchSize {
		end := min(start+w.batchSize, len(msgs))
		if err := w.writer.WriteMessages(ctx, msgs[start:end]...); err != nil {
			return fmt.Errorf("write clinics %d-%d: %w", start, end-1, err)
		}
	}
	w.logger.Info("published clinic catalog", "topic", w.writer.Topic, "clinics", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Clinic into a Kafka message.
func serializeToMessage(c domain.Clinic, publishedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize clinic %s: %w", c.Slug, err)
	}
	return kafkago.Message{
		Key:   []byte(c.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "slug", Value: []byte(c.Slug)},
			{Key: "barrio", Value: []byte(c.Barrio)},
			{Key: "published_at", Value: []byte(publishedAt.Format(time.RFC3339))},
		},
	}, nil
}

package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/climakit/climate-debias/internal/config"
	"github.com/climakit/climate-debias/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Reader consumes chunk jobs from the source topic.
// It implements pipeline.BatchExtractor.
type Reader struct {
	reader        *kafkago.Reader
	logger        *slog.Logger
	flushInterval time.Duration
}

// NewReader creates a Kafka consumer for the configured source topic.
// Offsets are committed explicitly, per message, after a chunk has been
// adjusted and loaded.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.KafkaSourceTopic,
		GroupID:     cfg.KafkaGroupID,
		StartOffset: kafkago.FirstOffset,
		MinBytes:    1,
		MaxBytes:    64 << 20,
	})
	return &Reader{
		reader:        r,
		logger:        logger,
		flushInterval: cfg.BatchFlushInterval,
	}
}

// ExtractBatch fetches up to batchSize messages, returning early with a
// partial (possibly empty) batch when no message arrives within the flush
// interval. An empty batch with a nil error means "nothing to do right now".
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawChunk, error) {
	batch := make([]domain.RawChunk, 0, batchSize)
	for len(batch) < batchSize {
		fetchCtx, cancel := context.WithTimeout(ctx, r.flushInterval)
		msg, err := r.reader.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return batch, ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				return batch, nil
			}
			return batch, err
		}
		batch = append(batch, r.mapMessageToRawChunk(msg))
	}
	return batch, nil
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

// mapMessageToRawChunk converts a Kafka message into the transport-neutral
// form the pipeline works with, wiring a commit callback for the message.
func (r *Reader) mapMessageToRawChunk(msg kafkago.Message) domain.RawChunk {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return domain.RawChunk{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
		Commit: func(ctx context.Context) error {
			return r.reader.CommitMessages(ctx, msg)
		},
	}
}

package kafka

import (
	"context"
	"log/slog"

	"github.com/climakit/climate-debias/internal/config"
	"github.com/climakit/climate-debias/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces adjusted chunks to the sink topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
		// Chunk payloads can run to tens of megabytes for large grids.
		BatchBytes: 64 << 20,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes multiple adjusted chunks to the sink topic in a single
// WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, chunks []domain.OutputChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(chunks))
	for i := range chunks {
		msgs[i] = mapOutputChunkToMessage(chunks[i])
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// mapOutputChunkToMessage converts an already-serialized chunk into a Kafka
// message, with headers in a stable order.
func mapOutputChunkToMessage(chunk domain.OutputChunk) kafkago.Message {
	headers := make([]kafkago.Header, 0, len(chunk.Headers))
	for _, key := range []string{"variable", "method", "processed_at"} {
		if v, ok := chunk.Headers[key]; ok {
			headers = append(headers, kafkago.Header{Key: key, Value: []byte(v)})
		}
	}
	return kafkago.Message{
		Key:     chunk.Key,
		Value:   chunk.Value,
		Headers: headers,
	}
}

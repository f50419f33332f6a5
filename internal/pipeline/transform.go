package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/climakit/climate-debias/internal/debias"
	"github.com/climakit/climate-debias/internal/domain"
	"github.com/climakit/climate-debias/internal/observability"
)

// ChunkTransformer implements Transformer: it parses a chunk job, builds
// the configured adjustment method, runs the debiaser over the chunk, and
// serializes the result.
type ChunkTransformer struct {
	logger     *slog.Logger
	metrics    *observability.Metrics
	debiasOpts []debias.Option
}

// NewTransformer creates a ChunkTransformer. The debias options come from
// service configuration and apply to every job; when the service runs as a
// unit function of an external chunk scheduler, leave parallelism out of
// them so the schedulers do not compete.
func NewTransformer(logger *slog.Logger, metrics *observability.Metrics, opts ...debias.Option) *ChunkTransformer {
	return &ChunkTransformer{
		logger:     logger,
		metrics:    metrics,
		debiasOpts: append(opts, debias.WithLogger(logger)),
	}
}

func (t *ChunkTransformer) Transform(ctx context.Context, raw domain.RawChunk) (domain.OutputChunk, error) {
	job, err := domain.ParseChunkJob(raw)
	if err != nil {
		return domain.OutputChunk{}, err
	}

	d, err := domain.NewDebiaserForJob(job, t.logger, t.debiasOpts...)
	if err != nil {
		return domain.OutputChunk{}, err
	}

	obs, err := job.Obs.Field()
	if err != nil {
		return domain.OutputChunk{}, err
	}
	cmHist, err := job.CMHist.Field()
	if err != nil {
		return domain.OutputChunk{}, err
	}
	cmFuture, err := job.CMFuture.Field()
	if err != nil {
		return domain.OutputChunk{}, err
	}

	start := time.Now()
	res, err := d.Apply(ctx, obs, cmHist, cmFuture)
	if err != nil {
		return domain.OutputChunk{}, err
	}
	t.observe(cmFuture.NX()*cmFuture.NY(), len(res.Failed), time.Since(start))

	return domain.SerializeChunkResult(domain.NewChunkResult(job, res))
}

func (t *ChunkTransformer) observe(locations, failed int, d time.Duration) {
	if t.metrics == nil {
		return
	}
	t.metrics.ChunkLocations.Observe(float64(locations))
	t.metrics.LocationsAdjusted.Add(float64(locations - failed))
	t.metrics.LocationsFailed.Add(float64(failed))
	t.metrics.AdjustDuration.Observe(d.Seconds())
}

package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/climakit/climate-debias/internal/debias"
	"github.com/ctessum/sparse"
)

// Grid is the wire form of one 3-D field chunk. Values are row-major over
// [time, x, y]; Dates, when present, carry one RFC3339 timestamp per time
// step.
type Grid struct {
	Shape  [3]int    `json:"shape"`
	Values []float64 `json:"values"`
	Dates  []string  `json:"dates,omitempty"`
}

// Validate checks internal consistency of a grid.
func (g Grid) Validate() error {
	for i, n := range g.Shape {
		if n <= 0 {
			return fmt.Errorf("grid axis %d has extent %d", i, n)
		}
	}
	if want := g.Shape[0] * g.Shape[1] * g.Shape[2]; len(g.Values) != want {
		return fmt.Errorf("grid has %d values, shape %v needs %d", len(g.Values), g.Shape, want)
	}
	if len(g.Dates) != 0 && len(g.Dates) != g.Shape[0] {
		return fmt.Errorf("grid has %d dates for %d time steps", len(g.Dates), g.Shape[0])
	}
	return nil
}

// Field converts a grid into a debias.Field, parsing the date index.
func (g Grid) Field() (debias.Field, error) {
	if err := g.Validate(); err != nil {
		return debias.Field{}, err
	}
	arr := sparse.ZerosDense(g.Shape[0], g.Shape[1], g.Shape[2])
	copy(arr.Elements, g.Values)

	var dates []time.Time
	if len(g.Dates) > 0 {
		dates = make([]time.Time, len(g.Dates))
		for i, d := range g.Dates {
			ts, err := time.Parse(time.RFC3339, d)
			if err != nil {
				return debias.Field{}, fmt.Errorf("parse date %d: %w", i, err)
			}
			dates[i] = ts
		}
	}
	return debias.NewField(arr, dates)
}

// GridFromDense converts a dense array back into its wire form.
func GridFromDense(arr *sparse.DenseArray) Grid {
	values := make([]float64, len(arr.Elements))
	copy(values, arr.Elements)
	return Grid{
		Shape:  [3]int{arr.Shape[0], arr.Shape[1], arr.Shape[2]},
		Values: values,
	}
}

// MethodParams carries the optional per-method overrides of a chunk job.
// Zero values mean "use the variable's defaults".
type MethodParams struct {
	DeltaType    string `json:"delta_type,omitempty"`
	WindowLength int    `json:"window_length,omitempty"`
	WindowStep   int    `json:"window_step,omitempty"`
}

// ChunkJob is one unit of work produced by the chunking driver: a spatial
// sub-block of the full domain with everything needed to adjust it. XOffset
// and YOffset locate the chunk in the global grid; they are carried through
// untouched so the driver can reassemble results.
type ChunkJob struct {
	ID       string       `json:"id"`
	Variable string       `json:"variable"`
	Method   string       `json:"method"`
	Params   MethodParams `json:"params,omitempty"`
	XOffset  int          `json:"x_offset"`
	YOffset  int          `json:"y_offset"`

	Obs      Grid `json:"obs"`
	CMHist   Grid `json:"cm_hist"`
	CMFuture Grid `json:"cm_future"`
}

// Validate checks a job's own invariants. Method and variable names are
// resolved later, against the method registry.
func (j ChunkJob) Validate() error {
	if j.ID == "" {
		return fmt.Errorf("chunk job has no id")
	}
	if j.Variable == "" {
		return fmt.Errorf("chunk job %s has no variable", j.ID)
	}
	if j.Method == "" {
		return fmt.Errorf("chunk job %s has no method", j.ID)
	}
	for _, g := range []struct {
		name string
		grid Grid
	}{
		{"obs", j.Obs},
		{"cm_hist", j.CMHist},
		{"cm_future", j.CMFuture},
	} {
		if err := g.grid.Validate(); err != nil {
			return fmt.Errorf("chunk job %s %s: %w", j.ID, g.name, err)
		}
	}
	if j.Obs.Shape[1] != j.CMFuture.Shape[1] || j.Obs.Shape[2] != j.CMFuture.Shape[2] ||
		j.CMHist.Shape[1] != j.CMFuture.Shape[1] || j.CMHist.Shape[2] != j.CMFuture.Shape[2] {
		return fmt.Errorf("chunk job %s grids disagree on spatial extents", j.ID)
	}
	return nil
}

// ChunkResult is the adjusted counterpart of a ChunkJob.
type ChunkResult struct {
	ID       string `json:"id"`
	Variable string `json:"variable"`
	Method   string `json:"method"`
	XOffset  int    `json:"x_offset"`
	YOffset  int    `json:"y_offset"`

	Data Grid `json:"data"`

	// FailedLocations lists chunk-local (x, y) coordinates that were
	// sentinel-filled in failsafe mode.
	FailedLocations [][2]int  `json:"failed_locations,omitempty"`
	ProcessedAt     time.Time `json:"processed_at"`
}

// RawChunk represents an unprocessed message from the source topic.
type RawChunk struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputChunk is the serialized form destined for the sink topic.
type OutputChunk struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// ParseChunkJob deserializes and validates a raw message's payload.
func ParseChunkJob(raw RawChunk) (ChunkJob, error) {
	var job ChunkJob
	if err := json.Unmarshal(raw.Value, &job); err != nil {
		return ChunkJob{}, fmt.Errorf("parse chunk job: %w", err)
	}
	if err := job.Validate(); err != nil {
		return ChunkJob{}, err
	}
	return job, nil
}

// NewChunkResult assembles a result from a job and its adjusted field,
// stamping the processing time from the package clock.
func NewChunkResult(job ChunkJob, res *debias.Result) ChunkResult {
	return ChunkResult{
		ID:              job.ID,
		Variable:        job.Variable,
		Method:          job.Method,
		XOffset:         job.XOffset,
		YOffset:         job.YOffset,
		Data:            GridFromDense(res.Field),
		FailedLocations: res.Failed,
		ProcessedAt:     clock.Now(),
	}
}

// SerializeChunkResult marshals a result into its output message form.
func SerializeChunkResult(res ChunkResult) (OutputChunk, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return OutputChunk{}, fmt.Errorf("serialize chunk result: %w", err)
	}
	return OutputChunk{
		Key:   []byte(res.ID),
		Value: data,
		Headers: map[string]string{
			"variable":     res.Variable,
			"method":       res.Method,
			"processed_at": res.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}

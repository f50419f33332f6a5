// Command genchunk generates synthetic chunk-job fixtures for testing the
// debias pipeline without a chunking driver. Each job carries a spatial
// sub-block with seeded pseudo-climate series: observations drawn around a
// base value, a biased model run over the same period, and a future run with
// an added trend.
//
// Usage:
//
//	go run ./cmd/genchunk \
//	  -out data/mock/chunk_jobs.json \
//	  -chunks 8 -nx 4 -ny 4 -nt 365 -seed 42 \
//	  -variable tas -method linear_scaling
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/climakit/climate-debias/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the chunk-job JSON fixture")
	chunks := flag.Int("chunks", 8, "number of chunk jobs to generate")
	nx := flag.Int("nx", 4, "chunk width in grid cells")
	ny := flag.Int("ny", 4, "chunk height in grid cells")
	nt := flag.Int("nt", 365, "time steps per calibration series")
	seed := flag.Int64("seed", 42, "random seed for reproducible fixtures")
	variable := flag.String("variable", "tas", "climate variable name")
	method := flag.String("method", domain.MethodLinearScaling, "adjustment method")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	rng := rand.New(rand.NewSource(*seed))

	jobs := make([]domain.ChunkJob, 0, *chunks)
	for i := 0; i < *chunks; i++ {
		job := makeJob(rng, i, *nx, *ny, *nt, *variable, *method)
		if err := job.Validate(); err != nil {
			return fmt.Errorf("generated job %d failed validation: %w", i, err)
		}
		jobs = append(jobs, job)
	}

	data, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return err
	}

	fmt.Printf("wrote %d chunk jobs (%dx%d cells, %d steps) to %s\n",
		len(jobs), *nx, *ny, *nt, *out)
	return nil
}

// makeJob builds one chunk. Observations sit around a base value, the model
// historical run carries a constant bias, and the future run adds a trend on
// top of the biased baseline.
func makeJob(rng *rand.Rand, idx, nx, ny, nt int, variable, method string) domain.ChunkJob {
	const (
		base  = 285.0 // K
		bias  = 2.5
		trend = 1.8
	)

	calStart := time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC)
	futStart := time.Date(2050, time.January, 1, 0, 0, 0, 0, time.UTC)

	obs := makeGrid(rng, nt, nx, ny, calStart, func(float64) float64 { return base })
	hist := makeGrid(rng, nt, nx, ny, calStart, func(float64) float64 { return base + bias })
	fut := makeGrid(rng, nt, nx, ny, futStart, func(frac float64) float64 {
		return base + bias + trend*frac
	})

	return domain.ChunkJob{
		ID:       fmt.Sprintf("chunk-%04d", idx),
		Variable: variable,
		Method:   method,
		XOffset:  idx * nx,
		YOffset:  0,
		Obs:      obs,
		CMHist:   hist,
		CMFuture: fut,
	}
}

// makeGrid fills a grid with mean(frac) + noise, where frac is the position
// in the series scaled to [0, 1).
func makeGrid(rng *rand.Rand, nt, nx, ny int, start time.Time, mean func(frac float64) float64) domain.Grid {
	values := make([]float64, nt*nx*ny)
	for ti := 0; ti < nt; ti++ {
		frac := float64(ti) / float64(nt)
		for xi := 0; xi < nx; xi++ {
			for yi := 0; yi < ny; yi++ {
				values[ti*nx*ny+xi*ny+yi] = mean(frac) + rng.NormFloat64()*0.8
			}
		}
	}
	dates := make([]string, nt)
	for ti := 0; ti < nt; ti++ {
		dates[ti] = start.AddDate(0, 0, ti).Format(time.RFC3339)
	}
	return domain.Grid{Shape: [3]int{nt, nx, ny}, Values: values, Dates: dates}
}

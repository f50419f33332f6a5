// Command validate performs offline integrity checks on chunk-job fixtures
// and, optionally, on adjusted-chunk results captured from the sink topic.
// It verifies grid shapes, date axes, method resolution, and replays the
// adjustment to confirm captured results match what the pipeline produces.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -jobs data/mock/chunk_jobs.json \
//	  -results data/mock/adjusted_chunks.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/climakit/climate-debias/internal/debias"
	"github.com/climakit/climate-debias/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	jobsPath := flag.String("jobs", "", "path to chunk-job JSON fixture")
	resultsPath := flag.String("results", "", "optional path to adjusted-chunk results JSON")
	flag.Parse()

	if *jobsPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*jobsPath, *resultsPath); code != 0 {
		os.Exit(code)
	}
}

func run(jobsPath, resultsPath string) int {
	fmt.Println("=== Chunk Fixture Integrity Validation ===")
	fmt.Println()

	jobs, err := loadJSON[domain.ChunkJob](jobsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load chunk jobs: %v\n", err)
		return 1
	}

	var results []domain.ChunkResult
	if resultsPath != "" {
		results, err = loadJSON[domain.ChunkResult](resultsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load results: %v\n", err)
			return 1
		}
	}

	phases := []*phase{
		validateJobIntegrity(jobs),
		validateMethodResolution(jobs),
	}
	replayed, replayPhase := validateAdjustmentReplay(jobs)
	phases = append(phases, replayPhase)
	if results != nil {
		phases = append(phases, validateResultAlignment(jobs, replayed, results))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d chunk jobs, %d results\n", len(jobs), len(results))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ── Phase 1: Job Integrity ──
// Validates each job's own invariants: grid shapes, value counts, date axes.

func validateJobIntegrity(jobs []domain.ChunkJob) *phase {
	p := &phase{name: "Phase 1: Job Integrity (shapes, dates)"}

	seen := map[string]bool{}
	for i := range jobs {
		if jobs[i].ID == "" {
			p.errorf("job %d: missing id", i)
		} else if seen[jobs[i].ID] {
			p.errorf("job %d: duplicate id %q", i, jobs[i].ID)
		}
		seen[jobs[i].ID] = true

		if err := jobs[i].Validate(); err != nil {
			p.errorf("job %d (%s): %v", i, jobs[i].ID, err)
			continue
		}
		checkDates(p, i, jobs[i].ID, "obs", jobs[i].Obs)
		checkDates(p, i, jobs[i].ID, "cm_hist", jobs[i].CMHist)
		checkDates(p, i, jobs[i].ID, "cm_future", jobs[i].CMFuture)
	}
	return p
}

func checkDates(p *phase, i int, id, label string, g domain.Grid) {
	var prev time.Time
	for di, d := range g.Dates {
		ts, err := time.Parse(time.RFC3339, d)
		if err != nil {
			p.errorf("job %d (%s): %s date %d: %v", i, id, label, di, err)
			return
		}
		if di > 0 && !ts.After(prev) {
			p.errorf("job %d (%s): %s dates not strictly increasing at %d", i, id, label, di)
			return
		}
		prev = ts
	}
}

// ── Phase 2: Method Resolution ──
// Validates that each job's variable and method resolve into a debiaser.

func validateMethodResolution(jobs []domain.ChunkJob) *phase {
	p := &phase{name: "Phase 2: Method Resolution"}

	logger := discardLogger()
	for i := range jobs {
		if _, err := domain.NewDebiaserForJob(jobs[i], logger); err != nil {
			p.errorf("job %d (%s): method %q variable %q: %v",
				i, jobs[i].ID, jobs[i].Method, jobs[i].Variable, err)
		}
	}
	return p
}

// ── Phase 3: Adjustment Replay ──
// Runs the adjustment on every job and checks the output is well formed.

func validateAdjustmentReplay(jobs []domain.ChunkJob) (map[string]*debias.Result, *phase) {
	p := &phase{name: "Phase 3: Adjustment Replay"}

	logger := discardLogger()
	replayed := make(map[string]*debias.Result, len(jobs))
	for i := range jobs {
		d, err := domain.NewDebiaserForJob(jobs[i], logger)
		if err != nil {
			continue // reported in phase 2
		}
		obs, err := jobs[i].Obs.Field()
		if err != nil {
			p.errorf("job %d (%s): obs: %v", i, jobs[i].ID, err)
			continue
		}
		hist, err := jobs[i].CMHist.Field()
		if err != nil {
			p.errorf("job %d (%s): cm_hist: %v", i, jobs[i].ID, err)
			continue
		}
		fut, err := jobs[i].CMFuture.Field()
		if err != nil {
			p.errorf("job %d (%s): cm_future: %v", i, jobs[i].ID, err)
			continue
		}

		res, err := d.Apply(context.Background(), obs, hist, fut)
		if err != nil {
			p.errorf("job %d (%s): apply: %v", i, jobs[i].ID, err)
			continue
		}
		replayed[jobs[i].ID] = res

		for vi, v := range res.Field.Elements {
			if math.IsInf(v, 0) {
				p.errorf("job %d (%s): non-finite value at element %d", i, jobs[i].ID, vi)
				break
			}
		}
	}
	return replayed, p
}

// ── Phase 4: Result Alignment ──
// Cross-references captured sink results against jobs and the replay.

func validateResultAlignment(jobs []domain.ChunkJob, replayed map[string]*debias.Result, results []domain.ChunkResult) *phase {
	p := &phase{name: "Phase 4: Result Alignment (sink capture)"}

	jobsByID := make(map[string]*domain.ChunkJob, len(jobs))
	for i := range jobs {
		jobsByID[jobs[i].ID] = &jobs[i]
	}

	for i := range results {
		r := &results[i]
		job, ok := jobsByID[r.ID]
		if !ok {
			p.errorf("result %d: id %q has no matching job", i, r.ID)
			continue
		}

		if r.XOffset != job.XOffset || r.YOffset != job.YOffset {
			p.errorf("result %s: offsets (%d,%d) differ from job (%d,%d)",
				r.ID, r.XOffset, r.YOffset, job.XOffset, job.YOffset)
		}
		if r.Data.Shape != job.CMFuture.Shape {
			p.errorf("result %s: shape %v differs from cm_future %v", r.ID, r.Data.Shape, job.CMFuture.Shape)
		}
		if r.ProcessedAt.IsZero() {
			p.errorf("result %s: processed_at is zero", r.ID)
		}
		for _, loc := range r.FailedLocations {
			if loc[0] < 0 || loc[0] >= job.CMFuture.Shape[1] || loc[1] < 0 || loc[1] >= job.CMFuture.Shape[2] {
				p.errorf("result %s: failed location (%d,%d) outside chunk bounds", r.ID, loc[0], loc[1])
			}
		}

		rep, ok := replayed[r.ID]
		if !ok {
			continue
		}
		if len(r.Data.Values) != len(rep.Field.Elements) {
			p.errorf("result %s: %d values, replay produced %d", r.ID, len(r.Data.Values), len(rep.Field.Elements))
			continue
		}
		for vi := range r.Data.Values {
			if !floatEq(r.Data.Values[vi], rep.Field.Elements[vi]) {
				p.errorf("result %s: value %d: captured %g, replay %g", r.ID, vi, r.Data.Values[vi], rep.Field.Elements[vi])
				break
			}
		}
	}
	return p
}

// floatEq treats two NaNs as equal so sentinel-filled cells compare clean.
func floatEq(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return math.Abs(a-b) < 1e-9
}

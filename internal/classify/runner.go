package classify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/insightdelivered/statement-extractor/internal/logging"
	"github.com/insightdelivered/statement-extractor/internal/models"
)

// Options bound a classification run.
type Options struct {
	Concurrency int
	BatchSize   int
	Timeout     time.Duration
	Fallback    string
}

// DefaultFallback labels records no classifier answered for.
const DefaultFallback = "uncategorized"

// Runner fans batches out to a Func under a concurrency limit and an overall
// deadline.
type Runner struct {
	fn   Func
	opts Options
}

// NewRunner builds a Runner. Non-positive limits default to one worker, 25
// records per batch and no deadline.
func NewRunner(fn Func, opts Options) *Runner {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = 25
	}
	if opts.Fallback == "" {
		opts.Fallback = DefaultFallback
	}
	return &Runner{fn: fn, opts: opts}
}

// Result is the labelled copy of the records plus any alerts raised while
// classifying.
type Result struct {
	Records []models.LabeledRecord
	Alerts  []string
}

type batchResult struct {
	done   bool
	labels Labels
	err    error
}

// Run labels records in order. It never fails: batches that error, panic or
// miss the deadline get the fallback category and an alert. The input
// records are not modified.
func (r *Runner) Run(ctx context.Context, bank string, records []models.TransactionRecord) Result {
	res := Result{Records: make([]models.LabeledRecord, 0, len(records))}
	if len(records) == 0 {
		return res
	}

	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	var batches [][]Candidate
	for start := 0; start < len(records); start += r.opts.BatchSize {
		end := min(start+r.opts.BatchSize, len(records))
		batch := make([]Candidate, 0, end-start)
		for _, rec := range records[start:end] {
			batch = append(batch, NewCandidate(rec))
		}
		batches = append(batches, batch)
	}

	var (
		mu      sync.Mutex
		results = make([]batchResult, len(batches))
		sealed  bool
		wg      sync.WaitGroup
	)
	store := func(i int, br batchResult) {
		mu.Lock()
		defer mu.Unlock()
		if !sealed {
			results[i] = br
		}
	}

	sem := semaphore.NewWeighted(int64(r.opts.Concurrency))
	for i, batch := range batches {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			labels, err := r.call(ctx, bank, batch)
			store(i, batchResult{done: true, labels: labels, err: err})
		}()
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-ctx.Done():
	}

	mu.Lock()
	sealed = true
	snapshot := make([]batchResult, len(results))
	copy(snapshot, results)
	mu.Unlock()

	log := logging.Logger().With(slog.String("bank", bank))
	timedOut, missing := 0, 0
	for i, batch := range batches {
		br := snapshot[i]
		switch {
		case !br.done:
			timedOut += len(batch)
		case br.err != nil:
			log.Warn("classification batch failed", slog.Int("batch", i), slog.Any("error", br.err))
			res.Alerts = append(res.Alerts, fmt.Sprintf("classification batch %d failed: %v", i, br.err))
		}
		answered := br.done && br.err == nil
		for _, c := range batch {
			var label string
			if answered {
				if label = br.labels[c.ID]; label == "" {
					missing++
				}
			}
			rec := models.LabeledRecord{Category: label}
			if label == "" {
				rec.Category = r.opts.Fallback
				rec.Fallback = true
			}
			res.Records = append(res.Records, rec)
		}
	}
	for i := range res.Records {
		res.Records[i].Record = records[i]
	}

	if timedOut > 0 {
		log.Warn("classification deadline exceeded", slog.Int("records", timedOut))
		res.Alerts = append(res.Alerts, fmt.Sprintf("classification timed out: %d records use the fallback category", timedOut))
	}
	if missing > 0 {
		res.Alerts = append(res.Alerts, fmt.Sprintf("classifier returned no label for %d records", missing))
	}
	return res
}

// call runs the collaborator and turns a panic into an error.
func (r *Runner) call(ctx context.Context, bank string, batch []Candidate) (labels Labels, err error) {
	defer func() {
		if p := recover(); p != nil {
			labels, err = nil, fmt.Errorf("classifier panicked: %v", p)
		}
	}()
	return r.fn(ctx, bank, batch)
}

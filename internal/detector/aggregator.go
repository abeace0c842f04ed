package detector

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// defaultWorkers bounds RecordAll's fan-out.
const defaultWorkers = 4

// Aggregator accumulates language confidence over many strings and reports
// the strongest language. It is safe for concurrent use.
type Aggregator struct {
	id      Identifier
	workers int

	mu     sync.Mutex
	totals map[string]float64
	order  []string
}

// NewAggregator returns an empty Aggregator backed by id.
func NewAggregator(id Identifier) *Aggregator {
	return &Aggregator{id: id, workers: defaultWorkers, totals: make(map[string]float64)}
}

// SetWorkers changes the RecordAll concurrency limit. n < 1 is ignored.
func (a *Aggregator) SetWorkers(n int) {
	if n >= 1 {
		a.workers = n
	}
}

// Record adds the confidence of text's language. Text without a confident
// guess is ignored.
func (a *Aggregator) Record(text string) {
	tag, conf, ok := a.id.Identify(text)
	if !ok {
		return
	}
	a.add(tag, conf)
}

func (a *Aggregator) add(tag string, conf float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, seen := a.totals[tag]; !seen {
		a.order = append(a.order, tag)
	}
	a.totals[tag] += conf
}

// RecordAll identifies texts concurrently and records every confident guess.
// Guesses are accumulated in input order so the result does not depend on
// scheduling.
func (a *Aggregator) RecordAll(ctx context.Context, texts []string) error {
	type guess struct {
		tag  string
		conf float64
		ok   bool
	}
	guesses := make([]guess, len(texts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, text := range texts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tag, conf, ok := a.id.Identify(text)
			guesses[i] = guess{tag: tag, conf: conf, ok: ok}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, gs := range guesses {
		if gs.ok {
			a.add(gs.tag, gs.conf)
		}
	}
	return nil
}

// ConsumeBest returns the tag with the highest accumulated confidence and
// resets the accumulator. On equal totals the tag recorded first wins.
func (a *Aggregator) ConsumeBest() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	best, bestScore := "", 0.0
	for _, tag := range a.order {
		if score := a.totals[tag]; best == "" || score > bestScore {
			best, bestScore = tag, score
		}
	}

	a.totals = make(map[string]float64)
	a.order = nil
	return best, best != ""
}

// Snapshot copies the current totals without resetting them.
func (a *Aggregator) Snapshot() map[string]float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]float64, len(a.totals))
	for tag, score := range a.totals {
		out[tag] = score
	}
	return out
}

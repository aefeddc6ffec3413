// Package fanout resolves an ordered batch of references concurrently and
// joins the results back into input order.
package fanout

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"

	"github.com/Sternrassler/pokedex-web/pkg/logging"
)

var logger = logging.Component("fanout")

// Policy decides what a failed item does to its batch.
type Policy string

const (
	// PolicyStrict fails the whole batch on the first failed item.
	PolicyStrict Policy = "strict"

	// PolicyTolerant drops failed items and keeps the order of the rest.
	PolicyTolerant Policy = "tolerant"

	// PolicyPlaceholder keeps failed items as empty slots in position.
	PolicyPlaceholder Policy = "placeholder"
)

var (
	fanoutItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokedex_fanout_items_total",
		Help: "Total fan-out items resolved by policy and outcome",
	}, []string{"policy", "outcome"})

	fanoutBatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pokedex_fanout_batch_duration_seconds",
		Help:    "Fan-out batch duration in seconds by policy",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"policy"})
)

// Config holds batch configuration.
type Config struct {
	// Name labels the batch in logs, e.g. "listing" or "related".
	Name string

	// Cap truncates the input before dispatch so at most Cap resolver
	// calls are issued. Zero means no cap.
	Cap int

	// MaxConcurrency bounds in-flight resolver calls. Zero means one
	// goroutine per item.
	MaxConcurrency int

	// Timeout bounds each resolver call. Zero means none.
	Timeout time.Duration
}

// Resolver maps one reference to its detail record.
type Resolver[T, R any] func(ctx context.Context, item T) (R, error)

// Slot is one resolved position of a placeholder batch.
type Slot[R any] struct {
	Value R
	Err   error
}

// OK reports whether the item resolved.
func (s Slot[R]) OK() bool {
	return s.Err == nil
}

// Strict resolves every item or none: the first failure cancels the calls
// still in flight and is returned without a partial result.
func Strict[T, R any](ctx context.Context, cfg Config, items []T, resolve Resolver[T, R]) ([]R, error) {
	slots, err := run(ctx, cfg, PolicyStrict, items, resolve)
	if err != nil {
		return nil, err
	}

	out := make([]R, len(slots))
	for i, s := range slots {
		out[i] = s.Value
	}
	return out, nil
}

// Tolerant resolves every item and drops the failures. The survivors keep
// their relative input order. The only error returned is the context's.
func Tolerant[T, R any](ctx context.Context, cfg Config, items []T, resolve Resolver[T, R]) ([]R, error) {
	slots, err := run(ctx, cfg, PolicyTolerant, items, resolve)
	if err != nil {
		return nil, err
	}

	out := make([]R, 0, len(slots))
	for _, s := range slots {
		if s.OK() {
			out = append(out, s.Value)
		}
	}
	return out, nil
}

// Placeholder resolves every item and reports each outcome in its input
// position, so len(result) == len(capped input). The only error returned is
// the context's.
func Placeholder[T, R any](ctx context.Context, cfg Config, items []T, resolve Resolver[T, R]) ([]Slot[R], error) {
	return run(ctx, cfg, PolicyPlaceholder, items, resolve)
}

func run[T, R any](ctx context.Context, cfg Config, policy Policy, items []T, resolve Resolver[T, R]) ([]Slot[R], error) {
	start := time.Now()
	defer func() {
		fanoutBatchDuration.WithLabelValues(string(policy)).Observe(time.Since(start).Seconds())
	}()

	if cfg.Cap > 0 && len(items) > cfg.Cap {
		items = items[:cfg.Cap]
	}

	slots := make([]Slot[R], len(items))
	if len(items) == 0 {
		return slots, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.MaxConcurrency > 0 {
		g.SetLimit(cfg.MaxConcurrency)
	}

	for i, item := range items {
		g.Go(func() error {
			ictx := gctx
			if cfg.Timeout > 0 {
				var cancel context.CancelFunc
				ictx, cancel = context.WithTimeout(gctx, cfg.Timeout)
				defer cancel()
			}

			v, err := resolve(ictx, item)
			// each goroutine owns slot i; Wait orders these writes before the reads below
			slots[i] = Slot[R]{Value: v, Err: err}
			if err == nil {
				return nil
			}

			if policy == PolicyStrict {
				return fmt.Errorf("%s item %d: %w", batchName(cfg), i, err)
			}
			if ctx.Err() == nil {
				logger.Logger().Warn().
					Err(err).
					Str("batch", batchName(cfg)).
					Int("index", i).
					Str("policy", string(policy)).
					Msg("Fan-out item failed")
			}
			return nil
		})
	}

	err := g.Wait()

	failed := 0
	for _, s := range slots {
		if !s.OK() {
			failed++
		}
	}
	fanoutItemsTotal.WithLabelValues(string(policy), "ok").Add(float64(len(slots) - failed))
	fanoutItemsTotal.WithLabelValues(string(policy), "failed").Add(float64(failed))

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		logger.Logger().Warn().
			Err(err).
			Str("batch", batchName(cfg)).
			Int("items", len(items)).
			Msg("Strict fan-out failed")
		return nil, err
	}

	logger.Logger().Debug().
		Str("batch", batchName(cfg)).
		Str("policy", string(policy)).
		Int("items", len(items)).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Fan-out complete")

	return slots, nil
}

func batchName(cfg Config) string {
	if cfg.Name == "" {
		return "batch"
	}
	return cfg.Name
}

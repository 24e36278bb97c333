// Package batch implements the building-level worker pool of spec.md §5:
// a fixed pool of workers sized to ¾ of runtime.NumCPU(), each building
// processed independently with no shared mutable state, a single
// building's failure never aborting the batch. It follows the teacher's
// gateway connection-pool/rate-limiter shape
// (arx-backend/gateway/middleware/rate_limit.go) for the optional
// throughput throttle, and uses golang.org/x/sync/errgroup purely for its
// wait/goroutine-limit mechanics rather than its error short-circuit.
package batch

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/arx-os/roofpv/internal/logging"
	"github.com/arx-os/roofpv/internal/pipeline"
	"github.com/arx-os/roofpv/internal/roofmodel"
)

// Config controls the batch orchestrator's concurrency and throttling.
type Config struct {
	// Workers is the pool size; 0 selects spec §5's ¾·NumCPU() default.
	Workers int

	// RateLimit, when > 0, caps sustained building throughput (buildings
	// per second) via golang.org/x/time/rate — meant for running this core
	// as a long-lived service rather than a one-shot batch CLI (SPEC_FULL
	// §5). 0 disables throttling entirely.
	RateLimit rate.Limit
	Burst     int

	Pipeline pipeline.Config
}

// DefaultConfig returns spec §5's worker-count default and an unthrottled
// pipeline configuration.
func DefaultConfig() Config {
	return Config{
		Workers:  defaultWorkers(),
		Pipeline: pipeline.DefaultConfig(),
	}
}

func defaultWorkers() int {
	n := runtime.NumCPU() * 3 / 4
	if n < 1 {
		n = 1
	}
	return n
}

// Result is one building's pipeline outcome. Err is non-nil for the fatal
// classes spec §7 defines (merger invariant violation, or a recovered
// panic), and also when the building never started because the context
// was cancelled or the rate limiter's Wait failed; every ordinary
// exclusion is carried in Reason with a nil Err.
type Result struct {
	BuildingID string
	Polygons   []roofmodel.RoofPolygon
	Reason     pipeline.ExcludeReason
	Err        error
}

// Run processes buildings through the per-building pipeline across a
// bounded worker pool. Results are returned in the same order as
// buildings, regardless of completion order. ctx cancellation stops
// dispatching new work at the next batch boundary (spec §5); buildings
// already in flight still finish, since the core holds no resources
// across a building call that would need early release.
func Run(ctx context.Context, buildings []*roofmodel.Building, cfg Config, logger *zap.Logger) []Result {
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = defaultWorkers()
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(cfg.RateLimit, cfg.Burst)
	}

	results := make([]Result, len(buildings))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, b := range buildings {
		i, b := i, b
		g.Go(func() error {
			if gctx.Err() != nil {
				results[i] = Result{BuildingID: b.ID, Err: gctx.Err()}
				return nil
			}
			if limiter != nil {
				if err := limiter.Wait(gctx); err != nil {
					results[i] = Result{BuildingID: b.ID, Err: err}
					return nil
				}
			}
			results[i] = runOne(b, cfg.Pipeline, logger)
			// Per spec §7, a single building's failure must never abort
			// the batch: errgroup.Go is used only for its wait/limit
			// mechanics, never for error propagation, so this always
			// returns nil.
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// runOne runs one building's pipeline, recovering a panic into a Result
// instead of letting it escape and take down the whole batch.
func runOne(b *roofmodel.Building, cfg pipeline.Config, logger *zap.Logger) (res Result) {
	buildingLogger := logging.ForBuilding(logger, b.ID)
	defer func() {
		if r := recover(); r != nil {
			buildingLogger.Warn("building panicked", zap.Any("panic", r))
			res = Result{BuildingID: b.ID, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	polys, reason, err := pipeline.Run(b, cfg, buildingLogger)
	return Result{BuildingID: b.ID, Polygons: polys, Reason: reason, Err: err}
}

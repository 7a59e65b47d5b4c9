package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dbcore/ccstore/internal/ccids"
)

// attemptFactor caps the attempts per logical transaction slot: a slot
// that has not committed after this many attempts is given up. bench
// reports the largest attempt count observed against
// workers * attemptFactor as the starvation bound.
const attemptFactor = 8

func newBenchCommand() *cobra.Command {
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Runs a fixed transaction mix under N workers for a duration and reports the starvation bound",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log, err := loggerFor(cfg)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			runID := uuid.New()
			log.Infow("bench starting", "run_id", runID, "workers", cfg.Workers, "strategy", cfg.Strategy)

			st, err := newStore(cfg, log)
			if err != nil {
				return err
			}

			pool, err := ants.NewPool(cfg.Workers)
			if err != nil {
				return fmt.Errorf("build worker pool: %w", err)
			}
			defer pool.Release()

			ctx, cancel := context.WithTimeout(cmd.Context(), duration)
			defer cancel()

			eg, ctx := errgroup.WithContext(ctx)
			results := make([]workerStats, cfg.Workers)

			for i := 0; i < cfg.Workers; i++ {
				i := i
				eg.Go(func() error {
					done := make(chan struct{})
					err := pool.Submit(func() {
						defer close(done)
						results[i] = runWorkerMix(ctx, st, uint8(i+1))
					})
					if err != nil {
						return fmt.Errorf("submit worker %d: %w", i, err)
					}
					<-done
					return nil
				})
			}

			if err := eg.Wait(); err != nil {
				return err
			}

			var commits, aborts, maxAttempts int
			for _, r := range results {
				commits += r.commits
				aborts += r.aborts
				if r.maxAttempts > maxAttempts {
					maxAttempts = r.maxAttempts
				}
			}
			bound := cfg.Workers * attemptFactor
			log.Infow("bench finished",
				"run_id", runID, "commits", commits, "aborts", aborts,
				"max_attempts_observed", maxAttempts, "starvation_bound", bound)
			fmt.Printf("commits=%d aborts=%d max_attempts=%d bound=%d within_bound=%v\n",
				commits, aborts, maxAttempts, bound, maxAttempts <= bound)
			return nil
		},
	}
	cmd.Flags().DurationVar(&duration, "duration", 2*time.Second, "how long to run the mix")
	return cmd
}

type workerStats struct {
	commits, aborts, maxAttempts int
}

// runWorkerMix repeatedly starts a small read-then-write transaction
// against a random cell in column 0, retrying with a fresh tx id (as
// spec.md §7 requires: no internal retry of a dead tx) up to
// attemptFactor times per slot before giving up on that slot and moving
// to the next.
func runWorkerMix(ctx context.Context, st *store, core uint8) workerStats {
	worker := st.newWorker(core)
	col := st.column(0)
	rng := rand.New(rand.NewSource(int64(core)))

	var stats workerStats
	for ctx.Err() == nil {
		attempts := 0
		for attempts < attemptFactor {
			attempts++
			cell := ccids.Cell{Offset: uint64(rng.Intn(4))}

			tx := worker.Start()
			_, ok := worker.Read(tx, col, cell)
			if ok {
				ok = worker.Write(tx, col, cell, rng.Intn(100))
			}
			if !ok {
				stats.aborts++
				continue
			}

			if committed, _ := worker.Commit(tx); committed {
				stats.commits++
				break
			}
			stats.aborts++
		}
		if attempts > stats.maxAttempts {
			stats.maxAttempts = attempts
		}
	}
	return stats
}

// Package batch rescans previously-ingested analysis runs — for example
// after a legitimacy keyword list changes — re-running detection over each
// run's stored transaction batch and reporting any newly-found rings.
package batch

import (
	"context"
	"log"
	"sync/atomic"

	"github.com/rawblock/fraudnet-engine/internal/alerting"
	"github.com/rawblock/fraudnet-engine/internal/graph"
	"github.com/rawblock/fraudnet-engine/pkg/models"
)

// FetchFunc loads the stored transaction batch for one analysis run.
type FetchFunc func(ctx context.Context, runID string) ([]models.Transaction, error)

// PersistFunc stores a freshly recomputed result for one run, e.g.
// overwriting the run's rings/suspicious-accounts rows.
type PersistFunc func(ctx context.Context, runID string, result models.AnalysisResult) error

// Rescanner replays detection over a batch of stored runs, tracking progress
// with atomic counters the same way the teacher's BlockScanner tracks block
// height — generalized from block heights to run IDs.
type Rescanner struct {
	fetch   FetchFunc
	persist PersistFunc
	alerts  *alerting.Manager

	currentIndex   atomic.Int64
	totalRuns      atomic.Int64
	totalRescanned atomic.Int64
	totalNewRings  atomic.Int64
	isRunning      atomic.Bool
}

// NewRescanner builds a rescanner. persist and alerts may be nil to skip
// persistence and alert emission respectively.
func NewRescanner(fetch FetchFunc, persist PersistFunc, alerts *alerting.Manager) *Rescanner {
	return &Rescanner{fetch: fetch, persist: persist, alerts: alerts}
}

// Progress is the rescanner's current state, safe to read concurrently.
type Progress struct {
	IsRunning      bool  `json:"isRunning"`
	CurrentIndex   int64 `json:"currentIndex"`
	TotalRuns      int64 `json:"totalRuns"`
	TotalRescanned int64 `json:"totalRescanned"`
	TotalNewRings  int64 `json:"totalNewRings"`
}

// GetProgress returns a snapshot of rescan progress.
func (r *Rescanner) GetProgress() Progress {
	return Progress{
		IsRunning:      r.isRunning.Load(),
		CurrentIndex:   r.currentIndex.Load(),
		TotalRuns:      r.totalRuns.Load(),
		TotalRescanned: r.totalRescanned.Load(),
		TotalNewRings:  r.totalNewRings.Load(),
	}
}

// ScanRuns rescans every run in runIDs asynchronously under cfg, comparing
// each run's ring count against its previous count (from previousRingCounts,
// which may be nil) to decide whether to fire alerts for newly-discovered
// rings.
func (r *Rescanner) ScanRuns(ctx context.Context, runIDs []string, cfg graph.LegitimacyConfig, previousRingCounts map[string]int) {
	if r.isRunning.Load() {
		log.Println("[batch] rescan already in progress, ignoring duplicate request")
		return
	}

	r.isRunning.Store(true)
	r.totalRuns.Store(int64(len(runIDs)))
	r.totalRescanned.Store(0)
	r.totalNewRings.Store(0)

	go func() {
		defer r.isRunning.Store(false)

		log.Printf("[batch] starting rescan of %d runs", len(runIDs))

		for i, runID := range runIDs {
			select {
			case <-ctx.Done():
				log.Printf("[batch] rescan cancelled at run %s (%d/%d)", runID, i, len(runIDs))
				return
			default:
			}

			r.currentIndex.Store(int64(i))
			r.rescanOne(ctx, runID, cfg, previousRingCounts[runID])

			if scanned := r.totalRescanned.Load(); scanned%50 == 0 && scanned > 0 {
				log.Printf("[batch] progress: %d/%d runs rescanned, %d new rings found",
					scanned, len(runIDs), r.totalNewRings.Load())
			}
		}

		log.Printf("[batch] rescan complete: %d runs rescanned, %d new rings found",
			r.totalRescanned.Load(), r.totalNewRings.Load())
	}()
}

func (r *Rescanner) rescanOne(ctx context.Context, runID string, cfg graph.LegitimacyConfig, previousRingCount int) {
	txns, err := r.fetch(ctx, runID)
	if err != nil {
		log.Printf("[batch] failed to fetch run %s: %v", runID, err)
		return
	}

	result := graph.AnalyzeWithConfig(txns, cfg)
	r.totalRescanned.Add(1)

	if len(result.FraudRings) > previousRingCount {
		r.totalNewRings.Add(int64(len(result.FraudRings) - previousRingCount))
		if r.alerts != nil {
			for _, ring := range result.FraudRings[previousRingCount:] {
				r.alerts.EmitForRing(ring)
			}
		}
	}

	if r.persist != nil {
		if err := r.persist(ctx, runID, result); err != nil {
			log.Printf("[batch] failed to persist rescanned run %s: %v", runID, err)
		}
	}
}

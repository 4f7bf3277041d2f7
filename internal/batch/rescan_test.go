package batch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rawblock/fraudnet-engine/internal/alerting"
	"github.com/rawblock/fraudnet-engine/internal/graph"
	"github.com/rawblock/fraudnet-engine/pkg/models"
	"github.com/shopspring/decimal"
)

func TestRescanner_ScanRuns_EmitsAlertsForNewRings(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	batches := map[string][]models.Transaction{
		"RUN_A": {
			{TransactionID: "T1", SenderID: "A", ReceiverID: "B", Amount: decimal.NewFromInt(100), Timestamp: base, TimestampValid: true},
			{TransactionID: "T2", SenderID: "B", ReceiverID: "C", Amount: decimal.NewFromInt(100), Timestamp: base.Add(time.Hour), TimestampValid: true},
			{TransactionID: "T3", SenderID: "C", ReceiverID: "A", Amount: decimal.NewFromInt(100), Timestamp: base.Add(2 * time.Hour), TimestampValid: true},
		},
	}

	fetch := func(ctx context.Context, runID string) ([]models.Transaction, error) {
		return batches[runID], nil
	}

	var mu sync.Mutex
	var alertedRings []string

	alertMgr := alerting.NewManager(func(a models.Alert) {
		mu.Lock()
		alertedRings = append(alertedRings, a.RingID)
		mu.Unlock()
	})

	var persistedRuns []string
	persist := func(ctx context.Context, runID string, result models.AnalysisResult) error {
		mu.Lock()
		persistedRuns = append(persistedRuns, runID)
		mu.Unlock()
		return nil
	}

	r := NewRescanner(fetch, persist, alertMgr)
	r.ScanRuns(context.Background(), []string{"RUN_A"}, graph.DefaultLegitimacyConfig(), map[string]int{"RUN_A": 0})

	deadline := time.Now().Add(2 * time.Second)
	for r.GetProgress().IsRunning && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	progress := r.GetProgress()
	if progress.TotalRescanned != 1 {
		t.Fatalf("expected 1 run rescanned, got %d", progress.TotalRescanned)
	}
	if progress.TotalNewRings != 1 {
		t.Fatalf("expected 1 new ring found, got %d", progress.TotalNewRings)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(alertedRings) != 1 {
		t.Fatalf("expected 1 alert emitted, got %d", len(alertedRings))
	}
	if len(persistedRuns) != 1 || persistedRuns[0] != "RUN_A" {
		t.Fatalf("expected RUN_A to be persisted, got %v", persistedRuns)
	}
}

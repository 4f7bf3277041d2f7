package graph

import (
	"testing"
	"time"
)

func TestTraceFundFlow_HopBoundAndLegitimateStop(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	txns := []struct {
		id, from, to string
		amt          int64
	}{
		{"T1", "SEED", "A", 100},
		{"T2", "A", "B", 100},
		{"T3", "B", "BIZ", 100},
		{"T4", "BIZ", "C", 100},
	}

	idx := NewAdjacencyIndex()
	for i, tx := range txns {
		idx.Add(mustTx(tx.id, tx.from, tx.to, tx.amt, base.Add(time.Duration(i)*time.Hour)))
	}

	legitimate := map[string]bool{"BIZ": true}
	graph := TraceFundFlow([]string{"SEED"}, idx, nil, legitimate, TraceConfig{MaxHops: 6})

	visited := make(map[string]bool)
	for _, n := range graph.Nodes {
		visited[n.AccountID] = true
	}
	if !visited["BIZ"] {
		t.Errorf("expected BIZ node to be reached, got %+v", graph.Nodes)
	}
	if visited["C"] {
		t.Errorf("expected tracing to stop at legitimate_business BIZ, but reached C")
	}
	if graph.MaxHopReached != 3 {
		t.Errorf("expected max hop 3 (SEED->A->B->BIZ), got %d", graph.MaxHopReached)
	}
}

func TestTraceFundFlow_RespectsMaxHops(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	idx := NewAdjacencyIndex()
	idx.Add(mustTx("T1", "S", "A", 10, base))
	idx.Add(mustTx("T2", "A", "B", 10, base.Add(time.Hour)))
	idx.Add(mustTx("T3", "B", "C", 10, base.Add(2*time.Hour)))

	graph := TraceFundFlow([]string{"S"}, idx, nil, map[string]bool{}, TraceConfig{MaxHops: 1})

	if graph.MaxHopReached != 1 {
		t.Errorf("expected max hop 1, got %d", graph.MaxHopReached)
	}
	for _, n := range graph.Nodes {
		if n.AccountID == "B" || n.AccountID == "C" {
			t.Errorf("expected tracing to stop after 1 hop, but reached %s", n.AccountID)
		}
	}
}

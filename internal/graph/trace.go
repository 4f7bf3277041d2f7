package graph

import (
	"time"

	"github.com/rawblock/fraudnet-engine/pkg/models"
	"github.com/shopspring/decimal"
)

// TraceConfig controls fund-flow tracing depth.
type TraceConfig struct {
	MaxHops int // default 6
}

// DefaultTraceConfig returns the default hop bound used when none is given.
func DefaultTraceConfig() TraceConfig {
	return TraceConfig{MaxHops: 6}
}

// TraceFundFlow walks the given adjacency index breadth-first from seeds
// (the API passes the run's unfiltered index, so legitimate accounts can be
// reached and recorded as exit points),
// stopping a branch at MaxHops, at a node with no further outgoing edges, or
// at a node tagged legitimate_business (treated as a cash-out analogue).
// This stage is read-only: it never re-derives ring membership.
func TraceFundFlow(seeds []string, adj *AdjacencyIndex, stats map[string]*models.AccountStats, legitimate map[string]bool, cfg TraceConfig) models.FlowGraph {
	graph := models.FlowGraph{
		SeedAccounts: append([]string(nil), seeds...),
		CreatedAt:    time.Now(),
	}

	visited := make(map[string]bool)

	addNode := func(account string, hop int, role string) {
		if visited[account] {
			return
		}
		visited[account] = true
		node := models.FlowNode{
			AccountID: account,
			HopNumber: hop,
			Role:      role,
			RiskScore: decayRisk(hop),
			IsFlagged: hop == 0,
		}
		if s := stats[account]; s != nil {
			node.ValueReceived = s.TotalReceived
		}
		graph.Nodes = append(graph.Nodes, node)
	}

	for _, seed := range seeds {
		addNode(seed, 0, "seed")
	}

	frontier := append([]string(nil), seeds...)
	for hop := 1; hop <= cfg.MaxHops && len(frontier) > 0; hop++ {
		var next []string
		for _, from := range frontier {
			if legitimate[from] {
				continue // treated as a cash-out point, do not expand further
			}
			for _, to := range adj.Receivers(from) {
				// An edge is followed only when its destination has not yet
				// been visited by an earlier (or same-hop) branch.
				if visited[to] {
					continue
				}

				hopTxns := adj.Transactions(from, to)
				for _, tx := range hopTxns {
					graph.Edges = append(graph.Edges, models.FlowEdge{
						FromAccount: from,
						ToAccount:   to,
						TxID:        tx.TransactionID,
						Value:       tx.Amount,
						HopNumber:   hop,
						Timestamp:   tx.Timestamp,
					})
				}
				graph.TotalTracked = graph.TotalTracked.Add(txSum(hopTxns))
				if hop > graph.MaxHopReached {
					graph.MaxHopReached = hop
				}

				role := "intermediate"
				if legitimate[to] {
					role = "legitimate_business"
				} else if len(adj.Receivers(to)) == 0 {
					role = "terminal"
				}

				addNode(to, hop, role)
				next = append(next, to)
			}
		}
		frontier = next
	}

	return graph
}

func txSum(txns []models.Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range txns {
		sum = sum.Add(tx.Amount)
	}
	return sum
}

// decayRisk returns the 0.85^hop decay factor (1.0 at a seed); it is not
// scaled by any ring or account score.
func decayRisk(hop int) float64 {
	risk := 1.0
	for i := 0; i < hop; i++ {
		risk *= 0.85
	}
	return risk
}

// Package graph implements the fraud-ring detection pipeline: a single pure
// function that ingests a batch of transactions and emits suspicious
// accounts, fraud rings, per-account statistics, and a summary — the entire
// stage sequence is deterministic, single-threaded, and does no I/O.
package graph

import (
	"sort"
	"time"

	"github.com/rawblock/fraudnet-engine/pkg/models"
)

// Analyze runs the full nine-stage detection pipeline over transactions and
// returns the complete result. Given the same input, two calls to Analyze
// produce bit-identical output except for Summary.ProcessingTimeSeconds.
func Analyze(transactions []models.Transaction) models.AnalysisResult {
	return AnalyzeWithConfig(transactions, DefaultLegitimacyConfig())
}

// AnalyzeWithConfig runs the pipeline with a caller-supplied legitimacy
// configuration — used directly by the shadow-comparison stage to run two
// configs over one batch without duplicating pipeline wiring.
func AnalyzeWithConfig(transactions []models.Transaction, legitCfg LegitimacyConfig) models.AnalysisResult {
	started := time.Now()

	// STEP 1: ingestion snapshot — the pre-filter universe of every account.
	universe := accountInsertionOrder(transactions)

	// Unfiltered index is needed for: legitimacy behavioral signatures,
	// smurfing detection (runs unfiltered), and node/edge projection.
	unfiltered := BuildIndex(transactions)

	// STEP 2: legitimacy filter.
	legit := FilterLegitimate(legitCfg, transactions, unfiltered.Stats)

	if len(legit.FilteredTxns) == 0 {
		return emptyResult(universe, legit.LegitimateAccounts, unfiltered.Stats, transactions, started)
	}

	// STEP 3: indexing over filtered transactions.
	filtered := BuildIndex(legit.FilteredTxns)
	filteredUniverse := accountInsertionOrder(legit.FilteredTxns)

	// STEP 4: cycle detection.
	cycles := DetectCycles(filtered.Adjacency, filteredUniverse)

	cycleNodes := make(map[string]bool)
	for _, c := range cycles {
		for _, m := range c.Members {
			cycleNodes[m] = true
		}
	}

	// STEP 5: smurfing detection — unfiltered transactions, by design.
	smurf := DetectSmurfing(transactions)

	// STEP 6: shell-network detection.
	shells := DetectShellNetworks(filtered.Adjacency, filteredUniverse, filtered.Stats, cycleNodes)

	// STEP 7: ring assembly & dedup. Fan-in/fan-out hubs come from the
	// unfiltered batch (STEP 5), so legitimate accounts are excluded here
	// rather than upstream — a legitimate-business account never appears in
	// any ring, whether as hub or counterparty.
	assembly := AssembleRings(cycles, smurf, shells, legit.LegitimateAccounts)

	// STEP 8: suspicion scoring.
	scores := ScoreAccounts(assembly, unfiltered.Stats, smurf)

	// STEP 9: projection.
	return project(universe, legit.LegitimateAccounts, unfiltered.Stats, assembly, scores, transactions, started)
}

func emptyResult(universe []string, legitimate map[string]bool, stats map[string]*models.AccountStats, txns []models.Transaction, started time.Time) models.AnalysisResult {
	nodes := make([]models.Node, 0, len(universe))
	for _, acct := range universe {
		s := stats[acct]
		node := models.Node{ID: acct}
		if s != nil {
			node.TotalSent = s.TotalSent
			node.TotalReceived = s.TotalReceived
			node.TransactionCount = s.TotalTransactions()
		}
		if legitimate[acct] {
			node.Patterns = []string{models.LabelLegitimate}
		}
		nodes = append(nodes, node)
	}

	edges := make([]models.Edge, 0, len(txns))
	for _, tx := range txns {
		edges = append(edges, models.Edge{
			Source: tx.SenderID, Target: tx.ReceiverID, Amount: tx.Amount,
			Timestamp: tx.Timestamp, TransactionID: tx.TransactionID,
		})
	}

	return models.AnalysisResult{
		SuspiciousAccounts: []models.SuspiciousAccount{},
		FraudRings:         []models.Ring{},
		Nodes:              nodes,
		Edges:              edges,
		Summary: models.Summary{
			TotalAccountsAnalyzed:      len(universe),
			LegitimateAccountsFiltered: len(legitimate),
			ProcessingTimeSeconds:      round3(time.Since(started).Seconds()),
		},
	}
}

func project(universe []string, legitimate map[string]bool, unfilteredStats map[string]*models.AccountStats, assembly AssemblyResult, scores map[string]float64, txns []models.Transaction, started time.Time) models.AnalysisResult {
	// suspicious_accounts: every ring-bearing account, stable-sorted by score desc.
	var suspicious []models.SuspiciousAccount
	suspiciousOrder := accountOrderFromPatterns(assembly)
	for _, acct := range suspiciousOrder {
		ringID := ""
		if ids := assembly.AccountRings[acct]; len(ids) > 0 {
			ringID = ids[0]
		}
		suspicious = append(suspicious, models.SuspiciousAccount{
			AccountID:        acct,
			SuspicionScore:   scores[acct],
			DetectedPatterns: append([]string(nil), assembly.AccountPatterns[acct]...),
			RingID:           ringID,
		})
	}
	sort.SliceStable(suspicious, func(i, j int) bool {
		return suspicious[i].SuspicionScore > suspicious[j].SuspicionScore
	})

	suspiciousSet := make(map[string]bool, len(suspicious))
	for _, s := range suspicious {
		suspiciousSet[s.AccountID] = true
	}

	nodes := make([]models.Node, 0, len(universe))
	for _, acct := range universe {
		s := unfilteredStats[acct]
		node := models.Node{ID: acct, Suspicious: suspiciousSet[acct]}
		if s != nil {
			node.TotalSent = s.TotalSent
			node.TotalReceived = s.TotalReceived
			node.TransactionCount = s.TotalTransactions()
		}
		if legitimate[acct] {
			node.Patterns = []string{models.LabelLegitimate}
		} else if patterns, ok := assembly.AccountPatterns[acct]; ok {
			node.Patterns = append([]string(nil), patterns...)
			node.RingIDs = append([]string(nil), assembly.AccountRings[acct]...)
			node.SuspicionScore = scores[acct]
		}
		nodes = append(nodes, node)
	}

	edges := make([]models.Edge, 0, len(txns))
	for _, tx := range txns {
		edges = append(edges, models.Edge{
			Source: tx.SenderID, Target: tx.ReceiverID, Amount: tx.Amount,
			Timestamp: tx.Timestamp, TransactionID: tx.TransactionID,
		})
	}

	return models.AnalysisResult{
		SuspiciousAccounts: suspicious,
		FraudRings:         assembly.Rings,
		Nodes:              nodes,
		Edges:              edges,
		Summary: models.Summary{
			TotalAccountsAnalyzed:      len(universe),
			SuspiciousAccountsFlagged:  len(suspicious),
			FraudRingsDetected:         len(assembly.Rings),
			LegitimateAccountsFiltered: len(legitimate),
			ProcessingTimeSeconds:      round3(time.Since(started).Seconds()),
		},
	}
}

// accountOrderFromPatterns returns accounts with >=1 ring membership, in the
// order AssembleRings first recorded a pattern label for them.
func accountOrderFromPatterns(assembly AssemblyResult) []string {
	var order []string
	seen := make(map[string]bool)
	for _, ring := range assembly.Rings {
		for _, m := range ring.MemberAccounts {
			if !seen[m] {
				seen[m] = true
				order = append(order, m)
			}
		}
	}
	return order
}

func round3(v float64) float64 {
	return float64(int64(v*1000+0.5)) / 1000
}

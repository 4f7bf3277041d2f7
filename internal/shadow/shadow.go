// Package shadow runs an experimental legitimacy configuration alongside the
// production one over the same transaction batch, without persisting or
// alerting on the shadow run's rings, and reports how far the two ring
// partitions have diverged.
package shadow

import (
	"log"
	"time"

	"github.com/rawblock/fraudnet-engine/internal/graph"
	"github.com/rawblock/fraudnet-engine/internal/metrics"
	"github.com/rawblock/fraudnet-engine/pkg/models"
)

// Run executes Analyze twice — once with prodCfg, once with shadowCfg — over
// the same batch and compares the resulting ring partitions.
func Run(runID string, transactions []models.Transaction, prodCfg, shadowCfg graph.LegitimacyConfig) models.ShadowResult {
	prod := graph.AnalyzeWithConfig(transactions, prodCfg)
	exp := graph.AnalyzeWithConfig(transactions, shadowCfg)

	universe := unionUniverse(prod, exp)
	prodLabels := partitionLabels(universe, prod)
	shadowLabels := partitionLabels(universe, exp)

	ari := metrics.AdjustedRandIndex(prodLabels, shadowLabels)
	vi := metrics.VariationOfInformation(prodLabels, shadowLabels)

	result := models.ShadowResult{
		RunID:                  runID,
		ProductionRingCount:    len(prod.FraudRings),
		ShadowRingCount:        len(exp.FraudRings),
		AdjustedRandIndex:      ari,
		VariationOfInformation: vi,
		CreatedAt:              time.Now(),
	}

	if ari < 0.9 {
		log.Printf("[shadow] run %s: divergence detected, ARI=%.3f VI=%.3f (prod rings=%d shadow rings=%d)",
			runID, ari, vi, result.ProductionRingCount, result.ShadowRingCount)
	}

	return result
}

// unionUniverse returns every account seen in either run's node list, in the
// order the production run first lists them, then any shadow-only accounts
// appended afterward.
func unionUniverse(prod, exp models.AnalysisResult) []string {
	seen := make(map[string]bool)
	var universe []string
	for _, n := range prod.Nodes {
		if !seen[n.ID] {
			seen[n.ID] = true
			universe = append(universe, n.ID)
		}
	}
	for _, n := range exp.Nodes {
		if !seen[n.ID] {
			seen[n.ID] = true
			universe = append(universe, n.ID)
		}
	}
	return universe
}

// partitionLabels assigns each account in universe an integer label equal to
// its first ring's index in result.FraudRings (unringed accounts each get
// their own singleton label, past the range used by ring indices).
func partitionLabels(universe []string, result models.AnalysisResult) []int {
	firstRing := make(map[string]int, len(universe))
	for i, ring := range result.FraudRings {
		for _, m := range ring.MemberAccounts {
			if _, exists := firstRing[m]; !exists {
				firstRing[m] = i
			}
		}
	}

	labels := make([]int, len(universe))
	nextSingleton := len(result.FraudRings)
	for i, acct := range universe {
		if ringIdx, ok := firstRing[acct]; ok {
			labels[i] = ringIdx
		} else {
			labels[i] = nextSingleton
			nextSingleton++
		}
	}
	return labels
}

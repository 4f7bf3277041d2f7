package graph

import (
	"math"
	"strings"

	"github.com/rawblock/fraudnet-engine/pkg/models"
)

// ScoreAccounts computes the composite suspicion score for every ring-bearing
// account, per the fixed formula (cycle base + multiplicity bonus, fan-in/out
// flat bonuses, shell bonus, temporal bonus, near-pass-through flow bonus).
func ScoreAccounts(assembly AssemblyResult, unfilteredStats map[string]*models.AccountStats, smurf SmurfingResult) map[string]float64 {
	scores := make(map[string]float64)

	for account, patterns := range assembly.AccountPatterns {
		score := 0.0

		cycleCount := 0
		hasCycle := false
		for _, p := range patterns {
			if strings.HasPrefix(p, "cycle_length_") {
				hasCycle = true
			}
		}
		if hasCycle {
			cycleCount = countCycleRings(assembly, account)
			score += 35
			bonus := cycleCount - 1
			if bonus > 3 {
				bonus = 3
			}
			if bonus > 0 {
				score += float64(bonus) * 10
			}
		}

		if hasLabel(patterns, models.LabelFanIn) {
			score += 25
		}
		if hasLabel(patterns, models.LabelFanOut) {
			score += 25
		}
		if hasLabel(patterns, models.LabelShellNetwork) {
			score += 20
		}

		if hub, ok := smurf.HubFor(account); ok && hub.Temporal {
			score += 15
		}

		if s := unfilteredStats[account]; s != nil {
			sent := s.TotalSent.InexactFloat64()
			received := s.TotalReceived.InexactFloat64()
			if sent > 0 && received > 0 {
				var ratio float64
				if sent < received {
					ratio = sent / received
				} else {
					ratio = received / sent
				}
				if ratio > 0.7 && ratio < 1.0 {
					score += 10
				}
			}
		}

		scores[account] = round1(math.Min(score, 100))
	}

	return scores
}

func hasLabel(patterns []string, label string) bool {
	for _, p := range patterns {
		if p == label {
			return true
		}
	}
	return false
}

// countCycleRingsFromRings counts how many of ringIDs are cycle-pattern rings.
func countCycleRingsFromRings(rings []models.Ring, ringIDs []string) int {
	byID := make(map[string]models.PatternType, len(rings))
	for _, r := range rings {
		byID[r.RingID] = r.PatternType
	}
	count := 0
	for _, id := range ringIDs {
		if byID[id] == models.PatternCycle {
			count++
		}
	}
	return count
}

func countCycleRings(assembly AssemblyResult, account string) int {
	return countCycleRingsFromRings(assembly.Rings, assembly.AccountRings[account])
}

package graph

import (
	"fmt"
	"math"
	"sort"

	"github.com/rawblock/fraudnet-engine/pkg/models"
)

// ringBuilder assigns sequential RING_NNN identifiers and suppresses
// duplicate (pattern_type, member-set) candidates. Local to one analysis run.
type ringBuilder struct {
	counter int
	seen    map[string]bool
	rings   []models.Ring
}

func newRingBuilder() *ringBuilder {
	return &ringBuilder{seen: make(map[string]bool)}
}

func (b *ringBuilder) dedupKey(patternType models.PatternType, members []string) string {
	sorted := append([]string(nil), members...)
	sort.Strings(sorted)
	key := string(patternType) + "::"
	for i, m := range sorted {
		if i > 0 {
			key += ","
		}
		key += m
	}
	return key
}

// accept registers a candidate ring if it is not a duplicate, returning the
// assigned ring and true, or the zero value and false if suppressed.
func (b *ringBuilder) accept(patternType models.PatternType, members []string, riskScore float64) (models.Ring, bool) {
	key := b.dedupKey(patternType, members)
	if b.seen[key] {
		return models.Ring{}, false
	}
	b.seen[key] = true
	b.counter++
	ring := models.Ring{
		RingID:         fmt.Sprintf("RING_%03d", b.counter),
		PatternType:    patternType,
		MemberAccounts: append([]string(nil), members...),
		RiskScore:      round1(math.Min(riskScore, 100.0)),
	}
	b.rings = append(b.rings, ring)
	return ring, true
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// AssembleRings runs the full acceptance order: cycles -> fan-in -> fan-out
// -> shell networks, and returns the accepted rings plus a per-account
// pattern-label map (insertion order preserved via patternOrder) and the set
// of accounts that belong to any cycle ring (needed by shell detection,
// which must have already excluded them, but is re-derived here too for the
// scoring/projection stages that run after both).
type AssemblyResult struct {
	Rings           []models.Ring
	AccountPatterns map[string][]string // account -> pattern labels, insertion order
	AccountRings    map[string][]string // account -> ring IDs, insertion order (first-join order)
	CycleNodes      map[string]bool
}

func AssembleRings(cycles []CycleResult, smurf SmurfingResult, shells []ShellChain, legitimate map[string]bool) AssemblyResult {
	b := newRingBuilder()
	result := AssemblyResult{
		AccountPatterns: make(map[string][]string),
		AccountRings:    make(map[string][]string),
		CycleNodes:      make(map[string]bool),
	}

	addPattern := func(account, label string) {
		for _, existing := range result.AccountPatterns[account] {
			if existing == label {
				return
			}
		}
		result.AccountPatterns[account] = append(result.AccountPatterns[account], label)
	}
	addRing := func(account, ringID string) {
		result.AccountRings[account] = append(result.AccountRings[account], ringID)
	}

	for _, c := range cycles {
		risk := 70 + 5*float64(len(c.Members))
		ring, ok := b.accept(models.PatternCycle, c.Members, risk)
		if !ok {
			continue
		}
		label := cycleLabelForLength(len(c.Members))
		for _, m := range c.Members {
			result.CycleNodes[m] = true
			addPattern(m, label)
			addRing(m, ring.RingID)
		}
	}

	for _, hub := range smurf.FanIn {
		if legitimate[hub.Hub] {
			continue
		}
		members := legitimateFilteredMembers(hub, legitimate)
		if len(members) < smurfingThreshold+1 {
			continue
		}
		risk := fanRiskScore(hub)
		ring, ok := b.accept(models.PatternFanIn, members, risk)
		if !ok {
			continue
		}
		for _, m := range members {
			addPattern(m, models.LabelFanIn)
			addRing(m, ring.RingID)
		}
	}

	for _, hub := range smurf.FanOut {
		if legitimate[hub.Hub] {
			continue
		}
		members := legitimateFilteredMembers(hub, legitimate)
		if len(members) < smurfingThreshold+1 {
			continue
		}
		risk := fanRiskScore(hub)
		ring, ok := b.accept(models.PatternFanOut, members, risk)
		if !ok {
			continue
		}
		for _, m := range members {
			addPattern(m, models.LabelFanOut)
			addRing(m, ring.RingID)
		}
	}

	for _, chain := range shells {
		risk := 50 + 8*float64(len(chain.Members))
		ring, ok := b.accept(models.PatternShellNetwork, chain.Members, risk)
		if !ok {
			continue
		}
		for _, m := range chain.Members {
			addPattern(m, models.LabelShellNetwork)
			addRing(m, ring.RingID)
		}
	}

	result.Rings = b.rings
	return result
}

// legitimateFilteredMembers returns hub.Hub followed by its non-legitimate
// counterparties, preserving detection order. A legitimate-business account
// never appears in any ring, whether as hub or counterparty.
func legitimateFilteredMembers(hub HubResult, legitimate map[string]bool) []string {
	members := make([]string, 0, len(hub.Counterparties)+1)
	members = append(members, hub.Hub)
	for _, c := range hub.Counterparties {
		if legitimate[c] {
			continue
		}
		members = append(members, c)
	}
	return members
}

func fanRiskScore(hub HubResult) float64 {
	base := 60.0
	if hub.Temporal {
		base += 25
	} else {
		base += 10
	}
	base += 0.5 * float64(len(hub.Counterparties))
	return base
}

package graph

import "github.com/rawblock/fraudnet-engine/pkg/models"

// ShellChain is one candidate directed layering chain, source-to-destination order.
type ShellChain struct {
	Members []string
}

func isInterior(stats map[string]*models.AccountStats, account string) bool {
	s := stats[account]
	if s == nil {
		return false
	}
	n := s.TotalTransactions()
	return n == 2 || n == 3
}

// DetectShellNetworks finds directed chains of length >= 3 whose interior
// nodes each have total_transactions in {2,3} and which avoid cycle members,
// then eliminates chains whose member set is a subset of a longer kept chain.
func DetectShellNetworks(adj *AdjacencyIndex, universe []string, stats map[string]*models.AccountStats, cycleNodes map[string]bool) []ShellChain {
	var candidates []ShellChain

	for _, start := range universe {
		if cycleNodes[start] {
			continue
		}
		path := []string{start}
		onPath := map[string]bool{start: true}
		var walk func()
		walk = func() {
			// Record the current path if it already holds >= 3 low-degree
			// interior nodes (i.e. every node past the source is interior).
			if len(path) >= 4 && allInterior(stats, path[1:]) {
				candidates = append(candidates, ShellChain{Members: append([]string(nil), path...)})
			}
			last := path[len(path)-1]
			for _, next := range adj.Receivers(last) {
				if onPath[next] || cycleNodes[next] {
					continue
				}
				if isInterior(stats, next) {
					path = append(path, next)
					onPath[next] = true

					// A terminal candidate: the appended node's own
					// non-visited, non-cycle, non-interior neighbor closes
					// a valid chain of >= 3 nodes.
					for _, terminal := range adj.Receivers(next) {
						if onPath[terminal] || cycleNodes[terminal] {
							continue
						}
						if !isInterior(stats, terminal) && len(path) >= 2 {
							chain := append(append([]string(nil), path...), terminal)
							candidates = append(candidates, ShellChain{Members: chain})
						}
					}

					walk()
					onPath[next] = false
					path = path[:len(path)-1]
				}
			}
		}
		walk()
	}

	return eliminateSubsetChains(candidates)
}

func allInterior(stats map[string]*models.AccountStats, members []string) bool {
	if len(members) < 3 {
		return false
	}
	for _, m := range members {
		if !isInterior(stats, m) {
			return false
		}
	}
	return true
}

// eliminateSubsetChains sorts by length descending and discards any chain
// whose member set is a subset of an already-kept chain's member set.
func eliminateSubsetChains(chains []ShellChain) []ShellChain {
	// stable sort by length descending
	sorted := append([]ShellChain(nil), chains...)
	for i := 1; i < len(sorted); i++ {
		j := i
		for j > 0 && len(sorted[j-1].Members) < len(sorted[j].Members) {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
			j--
		}
	}

	var kept []ShellChain
	var keptSets []map[string]bool
	for _, c := range sorted {
		set := toSet(c.Members)
		subset := false
		for _, ks := range keptSets {
			if isSubset(set, ks) {
				subset = true
				break
			}
		}
		if !subset {
			kept = append(kept, c)
			keptSets = append(keptSets, set)
		}
	}
	return kept
}

func toSet(members []string) map[string]bool {
	set := make(map[string]bool, len(members))
	for _, m := range members {
		set[m] = true
	}
	return set
}

func isSubset(a, b map[string]bool) bool {
	if len(a) > len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

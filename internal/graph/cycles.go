package graph

// CycleResult is one deduplicated, canonicalized simple directed cycle.
type CycleResult struct {
	Members []string // canonical rotation, lexicographically smallest member first
}

// DetectCycles enumerates every simple directed cycle of length 3-5 in adj,
// starting the DFS from each account in universe order, and returns them
// deduplicated in first-discovery order.
func DetectCycles(adj *AdjacencyIndex, universe []string) []CycleResult {
	seen := make(map[string]bool) // dedup key -> true
	var out []CycleResult

	for _, start := range universe {
		var path []string
		onPath := make(map[string]bool)
		var walk func(current string, depth int)
		walk = func(current string, depth int) {
			for _, next := range adj.Receivers(current) {
				if next == start && len(path) >= 3 {
					canon, key := canonicalizeCycle(path)
					if !seen[key] {
						seen[key] = true
						out = append(out, CycleResult{Members: canon})
					}
					continue
				}
				if onPath[next] || depth >= 5 {
					continue
				}
				path = append(path, next)
				onPath[next] = true
				walk(next, depth+1)
				onPath[next] = false
				path = path[:len(path)-1]
			}
		}
		path = append(path, start)
		onPath[start] = true
		walk(start, 1)
	}

	return out
}

// canonicalizeCycle rotates path so the lexicographically smallest member is
// first (ties broken by subsequent members) and returns both the rotated
// sequence and its dedup key. Direction is preserved — no reversal.
func canonicalizeCycle(path []string) ([]string, string) {
	n := len(path)
	best := 0
	for i := 1; i < n; i++ {
		if rotationLess(path, i, best) {
			best = i
		}
	}
	rotated := make([]string, n)
	for i := 0; i < n; i++ {
		rotated[i] = path[(best+i)%n]
	}
	return rotated, joinOrdered(rotated)
}

// rotationLess reports whether the rotation starting at index a is
// lexicographically smaller than the rotation starting at index b.
func rotationLess(path []string, a, b int) bool {
	n := len(path)
	for i := 0; i < n; i++ {
		va := path[(a+i)%n]
		vb := path[(b+i)%n]
		if va != vb {
			return va < vb
		}
	}
	return false
}

// joinOrdered joins members in the given (non-sorted) order — used as the
// cycle canonicalization dedup key, which must preserve traversal direction.
func joinOrdered(members []string) string {
	key := ""
	for i, m := range members {
		if i > 0 {
			key += ","
		}
		key += m
	}
	return key
}

// cycleLabelForLength maps a cycle's member count to its pattern label.
func cycleLabelForLength(n int) string {
	switch n {
	case 3:
		return "cycle_length_3"
	case 4:
		return "cycle_length_4"
	case 5:
		return "cycle_length_5"
	default:
		return "cycle_length_3"
	}
}

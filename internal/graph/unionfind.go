package graph

import (
	"fmt"
	"math"

	"github.com/rawblock/fraudnet-engine/pkg/models"
)

// clusterEngine is a weighted union-find over account IDs, path-compressed on
// Find and union-by-rank on Union. Adapted for merging ring members that
// co-occur in an accepted ring rather than transaction inputs sharing a
// spend.
type clusterEngine struct {
	parent map[string]string
	rank   map[string]int
	seen   map[string]bool
}

func newClusterEngine() *clusterEngine {
	return &clusterEngine{
		parent: make(map[string]string),
		rank:   make(map[string]int),
		seen:   make(map[string]bool),
	}
}

func (ce *clusterEngine) touch(account string) {
	if !ce.seen[account] {
		ce.seen[account] = true
		ce.parent[account] = account
		ce.rank[account] = 0
	}
}

func (ce *clusterEngine) find(account string) string {
	ce.touch(account)
	if ce.parent[account] != account {
		ce.parent[account] = ce.find(ce.parent[account])
	}
	return ce.parent[account]
}

func (ce *clusterEngine) union(a, b string) {
	rootA, rootB := ce.find(a), ce.find(b)
	if rootA == rootB {
		return
	}
	if ce.rank[rootA] < ce.rank[rootB] {
		rootA, rootB = rootB, rootA
	}
	ce.parent[rootB] = rootA
	if ce.rank[rootA] == ce.rank[rootB] {
		ce.rank[rootA]++
	}
}

// ClusterNetworks unions every ring's member accounts together, then groups
// rings by connected component. network_id is assigned in the order the
// first ring of each network was accepted, matching ring acceptance order.
// A network's combined risk score is the max of its member rings' risk
// scores.
func ClusterNetworks(rings []models.Ring) []models.FraudNetwork {
	ce := newClusterEngine()
	for _, r := range rings {
		if len(r.MemberAccounts) == 0 {
			continue
		}
		first := r.MemberAccounts[0]
		ce.touch(first)
		for _, m := range r.MemberAccounts[1:] {
			ce.union(first, m)
		}
	}

	rootOrder := make([]string, 0)
	rootSeen := make(map[string]bool)
	accountsByRoot := make(map[string][]string)
	ringsByRoot := make(map[string][]string)
	riskMaxByRoot := make(map[string]float64)

	for _, r := range rings {
		if len(r.MemberAccounts) == 0 {
			continue
		}
		root := ce.find(r.MemberAccounts[0])
		if !rootSeen[root] {
			rootSeen[root] = true
			rootOrder = append(rootOrder, root)
		}
		ringsByRoot[root] = append(ringsByRoot[root], r.RingID)
		riskMaxByRoot[root] = math.Max(riskMaxByRoot[root], r.RiskScore)
		for _, m := range r.MemberAccounts {
			if !contains(accountsByRoot[root], m) {
				accountsByRoot[root] = append(accountsByRoot[root], m)
			}
		}
	}

	networks := make([]models.FraudNetwork, 0, len(rootOrder))
	for i, root := range rootOrder {
		ringIDs := ringsByRoot[root]
		combined := riskMaxByRoot[root]
		networks = append(networks, models.FraudNetwork{
			NetworkID:         fmt.Sprintf("NET_%03d", i+1),
			RingIDs:           ringIDs,
			MemberAccounts:    accountsByRoot[root],
			CombinedRiskScore: round1(combined),
		})
	}
	return networks
}

func contains(members []string, target string) bool {
	for _, m := range members {
		if m == target {
			return true
		}
	}
	return false
}

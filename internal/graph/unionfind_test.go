package graph

import (
	"testing"

	"github.com/rawblock/fraudnet-engine/pkg/models"
)

func TestClusterNetworks_MergesSharedAccount(t *testing.T) {
	rings := []models.Ring{
		{RingID: "RING_001", PatternType: models.PatternCycle, MemberAccounts: []string{"A", "B", "C"}, RiskScore: 85},
		{RingID: "RING_002", PatternType: models.PatternFanIn, MemberAccounts: []string{"C", "D", "E"}, RiskScore: 90},
		{RingID: "RING_003", PatternType: models.PatternShellNetwork, MemberAccounts: []string{"X", "Y", "Z"}, RiskScore: 74},
	}

	networks := ClusterNetworks(rings)

	if len(networks) != 2 {
		t.Fatalf("expected 2 networks, got %d", len(networks))
	}
	if networks[0].NetworkID != "NET_001" {
		t.Errorf("expected NET_001, got %s", networks[0].NetworkID)
	}
	if len(networks[0].RingIDs) != 2 {
		t.Errorf("expected first network to merge 2 rings via shared account C, got %d", len(networks[0].RingIDs))
	}
	wantCombined := 90.0
	if networks[0].CombinedRiskScore != wantCombined {
		t.Errorf("expected combined score %v, got %v", wantCombined, networks[0].CombinedRiskScore)
	}
	if networks[1].NetworkID != "NET_002" {
		t.Errorf("expected NET_002, got %s", networks[1].NetworkID)
	}
	if len(networks[1].RingIDs) != 1 || networks[1].CombinedRiskScore != 74 {
		t.Errorf("expected isolated shell ring network, got %+v", networks[1])
	}
}

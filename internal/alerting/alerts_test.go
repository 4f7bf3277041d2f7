package alerting

import (
	"testing"

	"github.com/rawblock/fraudnet-engine/pkg/models"
)

func TestSeverityForRing(t *testing.T) {
	cases := []struct {
		risk float64
		want string
	}{
		{95, "critical"},
		{90, "critical"},
		{89.9, "high"},
		{75, "high"},
		{74.9, "medium"},
		{60, "medium"},
		{59.9, "low"},
		{0, "low"},
	}
	for _, c := range cases {
		if got := SeverityForRing(c.risk); got != c.want {
			t.Errorf("SeverityForRing(%v) = %s, want %s", c.risk, got, c.want)
		}
	}
}

func TestManager_EmitForRing_BroadcastsAndRecordsHistory(t *testing.T) {
	var broadcast []models.Alert
	m := NewManager(func(a models.Alert) { broadcast = append(broadcast, a) })

	m.EmitForRing(models.Ring{RingID: "RING_001", PatternType: models.PatternCycle, MemberAccounts: []string{"A", "B", "C"}, RiskScore: 85})
	m.EmitForRing(models.Ring{RingID: "RING_002", PatternType: models.PatternFanIn, MemberAccounts: []string{"HUB"}, RiskScore: 95})

	if len(broadcast) != 2 {
		t.Fatalf("expected 2 broadcast alerts, got %d", len(broadcast))
	}
	recent := m.RecentAlerts(0)
	if len(recent) != 2 {
		t.Fatalf("expected 2 recent alerts, got %d", len(recent))
	}
	if recent[0].RingID != "RING_002" {
		t.Errorf("expected most recent first (RING_002), got %s", recent[0].RingID)
	}
	if recent[0].Severity != "critical" {
		t.Errorf("expected critical severity for risk 95, got %s", recent[0].Severity)
	}
}

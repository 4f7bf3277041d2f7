package casework

import (
	"testing"
	"time"

	"github.com/rawblock/fraudnet-engine/pkg/models"
)

func TestManager_CreateAndGet(t *testing.T) {
	m := NewManager()
	inv := m.Create("CASE_1", "RUN_1", "Ring 3 investigation", "opened after alert", []string{"A", "B"})

	if inv.Status != "active" {
		t.Errorf("expected active status, got %s", inv.Status)
	}
	got := m.Get("CASE_1")
	if got == nil || got.ID != "CASE_1" {
		t.Fatalf("expected to retrieve CASE_1, got %+v", got)
	}
	if m.Get("missing") != nil {
		t.Errorf("expected nil for unknown case")
	}
}

func TestTagAccount_UpdatesExistingTag(t *testing.T) {
	inv := &models.Investigation{ID: "C1"}
	TagAccount(inv, "A", "Suspect", "suspect", "flagged by analyst", "alice")
	if len(inv.TaggedAccounts) != 1 {
		t.Fatalf("expected 1 tag, got %d", len(inv.TaggedAccounts))
	}
	TagAccount(inv, "A", "Confirmed Mule", "suspect", "confirmed via interview", "bob")
	if len(inv.TaggedAccounts) != 1 {
		t.Fatalf("expected tag to be replaced not duplicated, got %d", len(inv.TaggedAccounts))
	}
	if inv.TaggedAccounts[0].Label != "Confirmed Mule" {
		t.Errorf("expected updated label, got %s", inv.TaggedAccounts[0].Label)
	}
}

func TestTimeline_MergesRingAndTagEvents(t *testing.T) {
	now := time.Now()
	inv := &models.Investigation{
		ID:           "C1",
		SeedAccounts: []string{"A"},
		CreatedAt:    now,
	}
	rings := []models.Ring{
		{RingID: "RING_001", PatternType: models.PatternCycle, MemberAccounts: []string{"A", "B", "C"}},
	}
	TagAccount(inv, "A", "Suspect", "suspect", "", "alice")

	events := Timeline(inv, rings)

	var sawRing, sawTag bool
	for _, e := range events {
		if e.EventType == "ring_detected" && e.AccountID == "A" {
			sawRing = true
		}
		if e.EventType == "tagged" && e.AccountID == "A" {
			sawTag = true
		}
	}
	if !sawRing {
		t.Error("expected a ring_detected event for seed account A")
	}
	if !sawTag {
		t.Error("expected a tagged event for account A")
	}
}

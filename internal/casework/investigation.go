// Package casework manages fraud-ring investigations: an investigator opens
// a case scoped to one analysis run, requests a fund-flow trace from seed
// accounts, tags accounts with role/label/notes, and reviews a merged
// timeline of ring detections, traced transfers, and tagging events.
package casework

import (
	"sort"
	"sync"
	"time"

	"github.com/rawblock/fraudnet-engine/internal/graph"
	"github.com/rawblock/fraudnet-engine/pkg/models"
)

// Manager handles CRUD for investigations, guarded by a single RWMutex the
// way the teacher's InvestigationManager guards its case map.
type Manager struct {
	mu    sync.RWMutex
	cases map[string]*models.Investigation
}

// NewManager creates an empty case manager.
func NewManager() *Manager {
	return &Manager{cases: make(map[string]*models.Investigation)}
}

// Create opens a new investigation scoped to runID, seeded from seedAccounts
// (typically one ring's members).
func (m *Manager) Create(id, runID, name, description string, seedAccounts []string) *models.Investigation {
	now := time.Now()
	inv := &models.Investigation{
		ID:           id,
		RunID:        runID,
		Name:         name,
		Description:  description,
		Status:       "active",
		SeedAccounts: seedAccounts,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.mu.Lock()
	m.cases[id] = inv
	m.mu.Unlock()
	return inv
}

// Get retrieves a case by ID, or nil if unknown.
func (m *Manager) Get(id string) *models.Investigation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cases[id]
}

// List returns every open case, in no particular order — callers that need
// determinism should sort by ID themselves.
func (m *Manager) List() []*models.Investigation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := make([]*models.Investigation, 0, len(m.cases))
	for _, inv := range m.cases {
		list = append(list, inv)
	}
	return list
}

// RunTrace executes a fund-flow trace over the given adjacency/stats/
// legitimacy snapshot from the investigation's seed accounts and attaches
// the resulting FlowGraph to the case.
func RunTrace(inv *models.Investigation, adj *graph.AdjacencyIndex, stats map[string]*models.AccountStats, legitimate map[string]bool, cfg graph.TraceConfig) {
	fg := graph.TraceFundFlow(inv.SeedAccounts, adj, stats, legitimate, cfg)
	inv.FlowGraph = &fg
	inv.UpdatedAt = time.Now()
}

// TagAccount attaches or replaces investigator metadata for one account and
// mirrors the label/role onto the flow-graph node if one already exists.
func TagAccount(inv *models.Investigation, accountID, label, role, notes, taggedBy string) {
	tag := models.TaggedAccount{
		AccountID: accountID,
		Label:     label,
		Role:      role,
		Notes:     notes,
		TaggedAt:  time.Now(),
		TaggedBy:  taggedBy,
	}

	replaced := false
	for i, existing := range inv.TaggedAccounts {
		if existing.AccountID == accountID {
			inv.TaggedAccounts[i] = tag
			replaced = true
			break
		}
	}
	if !replaced {
		inv.TaggedAccounts = append(inv.TaggedAccounts, tag)
	}
	inv.UpdatedAt = time.Now()

	if inv.FlowGraph != nil {
		for i := range inv.FlowGraph.Nodes {
			if inv.FlowGraph.Nodes[i].AccountID == accountID {
				inv.FlowGraph.Nodes[i].Label = label
				inv.FlowGraph.Nodes[i].Role = role
				inv.FlowGraph.Nodes[i].IsFlagged = true
				break
			}
		}
	}
}

// Timeline merges seed-detection events, traced transfers, and tagging
// events into one chronologically-ordered slice.
func Timeline(inv *models.Investigation, rings []models.Ring) []models.TimelineEvent {
	var events []models.TimelineEvent

	ringByAccount := make(map[string]models.Ring)
	for _, r := range rings {
		for _, m := range r.MemberAccounts {
			if _, exists := ringByAccount[m]; !exists {
				ringByAccount[m] = r
			}
		}
	}
	for _, seed := range inv.SeedAccounts {
		if r, ok := ringByAccount[seed]; ok {
			events = append(events, models.TimelineEvent{
				Timestamp:   inv.CreatedAt,
				EventType:   "ring_detected",
				Description: "Account is a member of ring " + r.RingID,
				AccountID:   seed,
				HopNumber:   0,
			})
		}
	}

	if inv.FlowGraph != nil {
		for _, edge := range inv.FlowGraph.Edges {
			events = append(events, models.TimelineEvent{
				Timestamp:   edge.Timestamp,
				EventType:   "transfer",
				Description: "Fund transfer",
				AccountID:   edge.ToAccount,
				Value:       edge.Value,
				HopNumber:   edge.HopNumber,
			})
		}
		for _, node := range inv.FlowGraph.Nodes {
			if node.Role == "legitimate_business" {
				events = append(events, models.TimelineEvent{
					EventType:   "cash_out",
					Description: "Funds reached legitimate business " + node.AccountID,
					AccountID:   node.AccountID,
					Value:       node.ValueReceived,
					HopNumber:   node.HopNumber,
				})
			}
		}
	}

	for _, tag := range inv.TaggedAccounts {
		events = append(events, models.TimelineEvent{
			Timestamp:   tag.TaggedAt,
			EventType:   "tagged",
			Description: "Account tagged as: " + tag.Label,
			AccountID:   tag.AccountID,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events
}

// ExitPoints returns every flow-graph node reached at a legitimate business
// — the ledger analogue of the teacher's exchange cash-out points.
func ExitPoints(inv *models.Investigation) []models.FlowNode {
	if inv.FlowGraph == nil {
		return nil
	}
	var exits []models.FlowNode
	for _, node := range inv.FlowGraph.Nodes {
		if node.Role == "legitimate_business" {
			exits = append(exits, node)
		}
	}
	return exits
}

// SetStatus updates the investigation's lifecycle status.
func SetStatus(inv *models.Investigation, status string) {
	inv.Status = status
	inv.UpdatedAt = time.Now()
}

// Package models holds the wire-level and derived data types shared across
// the fraud graph engine: the raw transaction record, per-account statistics,
// detected rings, and the projected analysis result.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PatternType is the closed set of ring pattern classifications.
type PatternType string

const (
	PatternCycle        PatternType = "cycle"
	PatternFanIn        PatternType = "fan_in"
	PatternFanOut       PatternType = "fan_out"
	PatternShellNetwork PatternType = "shell_network"
)

// Pattern labels attached to individual accounts. Distinct from PatternType:
// a cycle ring contributes a length-specific label (cycle_length_3/4/5) to
// each of its members.
const (
	LabelCycleLength3 = "cycle_length_3"
	LabelCycleLength4 = "cycle_length_4"
	LabelCycleLength5 = "cycle_length_5"
	LabelFanIn        = "fan_in"
	LabelFanOut       = "fan_out"
	LabelShellNetwork = "shell_network"
	LabelLegitimate   = "legitimate_business"
)

// Transaction is an immutable input record: one directed transfer between
// two account identifiers. Amount is a decimal, never a binary float, so
// that sums feeding the legitimacy filter and scoring stages are exact.
type Transaction struct {
	TransactionID string          `json:"transaction_id"`
	SenderID      string          `json:"sender_id"`
	ReceiverID    string          `json:"receiver_id"`
	Amount        decimal.Decimal `json:"amount"`
	Timestamp     time.Time       `json:"timestamp"`
	// TimestampValid is false when the input timestamp failed to parse to a
	// finite epoch moment. Such a transaction still contributes to adjacency
	// and aggregate statistics but is excluded from temporal windowing.
	TimestampValid bool `json:"-"`
}

// AccountStats holds the derived per-account aggregate figures used by every
// detector and by the legitimacy filter's behavioral signatures.
type AccountStats struct {
	AccountID       string
	TotalSent       decimal.Decimal
	TotalReceived   decimal.Decimal
	SendCount       int
	ReceiveCount    int
	UniqueSenders   int
	UniqueReceivers int
	SentAmounts     []decimal.Decimal // outgoing amounts, insertion order — used for CV
	ReceivedAmounts []decimal.Decimal // incoming amounts, insertion order — used for CV
	senderSeen      map[string]bool
	receiverSeen    map[string]bool
}

// TotalTransactions returns send_count + receive_count.
func (a *AccountStats) TotalTransactions() int {
	return a.SendCount + a.ReceiveCount
}

// NewAccountStats returns a zeroed stats row ready for accumulation.
func NewAccountStats(accountID string) *AccountStats {
	return &AccountStats{
		AccountID:    accountID,
		senderSeen:   make(map[string]bool),
		receiverSeen: make(map[string]bool),
	}
}

// RecordSend accumulates one outgoing transaction against this account.
func (a *AccountStats) RecordSend(receiver string, amount decimal.Decimal) {
	a.SendCount++
	a.TotalSent = a.TotalSent.Add(amount)
	a.SentAmounts = append(a.SentAmounts, amount)
	if !a.receiverSeen[receiver] {
		a.receiverSeen[receiver] = true
		a.UniqueReceivers++
	}
}

// RecordReceive accumulates one incoming transaction against this account.
func (a *AccountStats) RecordReceive(sender string, amount decimal.Decimal) {
	a.ReceiveCount++
	a.TotalReceived = a.TotalReceived.Add(amount)
	a.ReceivedAmounts = append(a.ReceivedAmounts, amount)
	if !a.senderSeen[sender] {
		a.senderSeen[sender] = true
		a.UniqueSenders++
	}
}

// Ring is one detected pattern instance.
type Ring struct {
	RingID         string      `json:"ring_id"`
	PatternType    PatternType `json:"pattern_type"`
	MemberAccounts []string    `json:"member_accounts"`
	RiskScore      float64     `json:"risk_score"`
}

// SuspiciousAccount is a ring-bearing account with its composite score.
type SuspiciousAccount struct {
	AccountID        string   `json:"account_id"`
	SuspicionScore   float64  `json:"suspicion_score"`
	DetectedPatterns []string `json:"detected_patterns"`
	RingID           string   `json:"ring_id"`
}

// Node is the projected per-account record covering every account in the
// pre-filter universe, suspicious or not.
type Node struct {
	ID               string          `json:"id"`
	Suspicious       bool            `json:"suspicious"`
	RingIDs          []string        `json:"ring_ids"`
	Patterns         []string        `json:"patterns"`
	TotalSent        decimal.Decimal `json:"total_sent"`
	TotalReceived    decimal.Decimal `json:"total_received"`
	TransactionCount int             `json:"transaction_count"`
	SuspicionScore   float64         `json:"suspicion_score"`
}

// Edge echoes one original transaction, unchanged, in the projection.
type Edge struct {
	Source        string          `json:"source"`
	Target        string          `json:"target"`
	Amount        decimal.Decimal `json:"amount"`
	Timestamp     time.Time       `json:"timestamp"`
	TransactionID string          `json:"transaction_id"`
}

// Summary carries the run-level counters and elapsed wall-clock time.
type Summary struct {
	TotalAccountsAnalyzed      int     `json:"total_accounts_analyzed"`
	SuspiciousAccountsFlagged  int     `json:"suspicious_accounts_flagged"`
	FraudRingsDetected         int     `json:"fraud_rings_detected"`
	LegitimateAccountsFiltered int     `json:"legitimate_accounts_filtered"`
	ProcessingTimeSeconds      float64 `json:"processing_time_seconds"`
}

// AnalysisResult is the full JSON-compatible output of one Analyze call.
type AnalysisResult struct {
	SuspiciousAccounts []SuspiciousAccount `json:"suspicious_accounts"`
	FraudRings         []Ring              `json:"fraud_rings"`
	Summary            Summary             `json:"summary"`
	Nodes              []Node              `json:"nodes"`
	Edges              []Edge              `json:"edges"`
}

// FraudNetwork groups rings that share at least one member account.
type FraudNetwork struct {
	NetworkID         string   `json:"network_id"`
	RingIDs           []string `json:"ring_ids"`
	MemberAccounts    []string `json:"member_accounts"`
	CombinedRiskScore float64  `json:"combined_risk_score"`
}

// FlowNode is one account reached while tracing fund flow outward from a
// ring or investigation's seed accounts.
type FlowNode struct {
	AccountID     string          `json:"accountId"`
	HopNumber     int             `json:"hopNumber"`
	ValueReceived decimal.Decimal `json:"valueReceived"`
	Role          string          `json:"role"` // "seed"/"intermediate"/"legitimate_business"/"terminal"
	RiskScore     float64         `json:"riskScore"`
	IsFlagged     bool            `json:"isFlagged"`
	Label         string          `json:"label,omitempty"`
}

// FlowEdge is one traced transfer within a FlowGraph.
type FlowEdge struct {
	FromAccount string          `json:"fromAccount"`
	ToAccount   string          `json:"toAccount"`
	TxID        string          `json:"txid"`
	Value       decimal.Decimal `json:"value"`
	HopNumber   int             `json:"hopNumber"`
	Timestamp   time.Time       `json:"timestamp"`
}

// FlowGraph is the hop-indexed subgraph produced by tracing.
type FlowGraph struct {
	SeedAccounts  []string        `json:"seedAccounts"`
	Nodes         []FlowNode      `json:"nodes"`
	Edges         []FlowEdge      `json:"edges"`
	TotalTracked  decimal.Decimal `json:"totalTracked"`
	MaxHopReached int             `json:"maxHopReached"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// TaggedAccount is investigator-provided metadata attached to one account.
type TaggedAccount struct {
	AccountID string    `json:"accountId"`
	Label     string    `json:"label"`
	Role      string    `json:"role"` // "hub"/"suspect"/"legitimate"/"unknown"
	Notes     string    `json:"notes,omitempty"`
	TaggedAt  time.Time `json:"taggedAt"`
	TaggedBy  string    `json:"taggedBy,omitempty"`
}

// TimelineEvent is one chronological event in an investigation.
type TimelineEvent struct {
	Timestamp   time.Time       `json:"timestamp"`
	EventType   string          `json:"eventType"` // "ring_detected"/"transfer"/"cash_out"/"tagged"
	Description string          `json:"description"`
	AccountID   string          `json:"accountId,omitempty"`
	Value       decimal.Decimal `json:"value,omitempty"`
	HopNumber   int             `json:"hopNumber"`
}

// Investigation is a case scoped to one persisted analysis run.
type Investigation struct {
	ID             string          `json:"id"`
	RunID          string          `json:"runId"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Status         string          `json:"status"` // "active"/"paused"/"completed"/"archived"
	SeedAccounts   []string        `json:"seedAccounts"`
	TaggedAccounts []TaggedAccount `json:"taggedAccounts"`
	FlowGraph      *FlowGraph      `json:"flowGraph,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Alert is emitted for every non-duplicate ring assembled.
type Alert struct {
	ID             string      `json:"id"`
	Timestamp      time.Time   `json:"timestamp"`
	Severity       string      `json:"severity"` // info/low/medium/high/critical
	RingID         string      `json:"ringId"`
	PatternType    PatternType `json:"patternType"`
	MemberAccounts []string    `json:"memberAccounts"`
	RiskScore      float64     `json:"riskScore"`
}

// WebhookEndpoint is a registered webhook receiver for alert delivery.
type WebhookEndpoint struct {
	Name        string            `json:"name"`
	URL         string            `json:"url"`
	Enabled     bool              `json:"enabled"`
	Headers     map[string]string `json:"headers,omitempty"`
	MinSeverity string            `json:"minSeverity"`
}

// ShadowResult captures the divergence between a production and an
// experimental legitimacy-filter configuration run over the same batch.
type ShadowResult struct {
	RunID                  string    `json:"runId"`
	ProductionRingCount    int       `json:"productionRingCount"`
	ShadowRingCount        int       `json:"shadowRingCount"`
	AdjustedRandIndex      float64   `json:"adjustedRandIndex"`
	VariationOfInformation float64   `json:"variationOfInformation"`
	CreatedAt              time.Time `json:"createdAt"`
}

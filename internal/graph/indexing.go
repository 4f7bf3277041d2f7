package graph

import "github.com/rawblock/fraudnet-engine/pkg/models"

// AdjacencyIndex maps sender -> receiver -> ordered transactions, preserving
// every parallel edge. Iteration must always go through SenderOrder /
// ReceiverOrder(sender) — never range the underlying maps directly — to keep
// output deterministic.
type AdjacencyIndex struct {
	edges       map[string]map[string][]models.Transaction
	senderOrder []string
	senderSeen  map[string]bool
	recvOrder   map[string][]string
	recvSeen    map[string]map[string]bool
}

// NewAdjacencyIndex returns an empty index.
func NewAdjacencyIndex() *AdjacencyIndex {
	return &AdjacencyIndex{
		edges:      make(map[string]map[string][]models.Transaction),
		senderSeen: make(map[string]bool),
		recvOrder:  make(map[string][]string),
		recvSeen:   make(map[string]map[string]bool),
	}
}

// Add records one transaction in the index.
func (idx *AdjacencyIndex) Add(tx models.Transaction) {
	if !idx.senderSeen[tx.SenderID] {
		idx.senderSeen[tx.SenderID] = true
		idx.senderOrder = append(idx.senderOrder, tx.SenderID)
		idx.edges[tx.SenderID] = make(map[string][]models.Transaction)
		idx.recvSeen[tx.SenderID] = make(map[string]bool)
	}
	if !idx.recvSeen[tx.SenderID][tx.ReceiverID] {
		idx.recvSeen[tx.SenderID][tx.ReceiverID] = true
		idx.recvOrder[tx.SenderID] = append(idx.recvOrder[tx.SenderID], tx.ReceiverID)
	}
	idx.edges[tx.SenderID][tx.ReceiverID] = append(idx.edges[tx.SenderID][tx.ReceiverID], tx)
}

// Senders returns all senders in first-insertion order.
func (idx *AdjacencyIndex) Senders() []string {
	return idx.senderOrder
}

// Receivers returns the receivers reached from sender, in first-insertion order.
func (idx *AdjacencyIndex) Receivers(sender string) []string {
	return idx.recvOrder[sender]
}

// Transactions returns the parallel-edge transaction list for sender->receiver.
func (idx *AdjacencyIndex) Transactions(sender, receiver string) []models.Transaction {
	return idx.edges[sender][receiver]
}

// IndexResult bundles the adjacency index and account statistics built over
// one transaction batch.
type IndexResult struct {
	Adjacency  *AdjacencyIndex
	Stats      map[string]*models.AccountStats
	StatsOrder []string // account insertion order
}

// BuildIndex produces the adjacency index and per-account statistics in a
// single O(N) pass, driven entirely by insertion order.
func BuildIndex(txns []models.Transaction) IndexResult {
	adj := NewAdjacencyIndex()
	stats := make(map[string]*models.AccountStats)
	var order []string

	ensure := func(acct string) *models.AccountStats {
		if s, ok := stats[acct]; ok {
			return s
		}
		s := models.NewAccountStats(acct)
		stats[acct] = s
		order = append(order, acct)
		return s
	}

	for _, tx := range txns {
		adj.Add(tx)
		ensure(tx.SenderID).RecordSend(tx.ReceiverID, tx.Amount)
		ensure(tx.ReceiverID).RecordReceive(tx.SenderID, tx.Amount)
	}

	return IndexResult{Adjacency: adj, Stats: stats, StatsOrder: order}
}

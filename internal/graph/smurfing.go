package graph

import "github.com/rawblock/fraudnet-engine/pkg/models"

const smurfingThreshold = 10
const temporalWindowHours = 72

// HubResult is one fan-in or fan-out hub detection.
type HubResult struct {
	Hub            string   // receiver (fan-in) or sender (fan-out)
	Counterparties []string // senders (fan-in) or receivers (fan-out), first-seen order
	Temporal       bool
}

// SmurfingResult carries fan-in and fan-out hubs, each keyed by hub account
// for the scoring stage's temporal-flag lookup.
type SmurfingResult struct {
	FanIn      []HubResult
	FanOut     []HubResult
	byAccount  map[string]*HubResult // hub account -> its own result (fan-in or fan-out)
}

// DetectSmurfing runs on the unfiltered transaction batch (see the
// legitimacy-filter rationale in the design notes).
func DetectSmurfing(txns []models.Transaction) SmurfingResult {
	fanInCounterparties := make(map[string][]string)
	fanInSeen := make(map[string]map[string]bool)
	var fanInOrder []string
	fanInSeenAcct := make(map[string]bool)

	fanOutCounterparties := make(map[string][]string)
	fanOutSeen := make(map[string]map[string]bool)
	var fanOutOrder []string
	fanOutSeenAcct := make(map[string]bool)

	for _, tx := range txns {
		if !fanInSeenAcct[tx.ReceiverID] {
			fanInSeenAcct[tx.ReceiverID] = true
			fanInOrder = append(fanInOrder, tx.ReceiverID)
			fanInSeen[tx.ReceiverID] = make(map[string]bool)
		}
		if !fanInSeen[tx.ReceiverID][tx.SenderID] {
			fanInSeen[tx.ReceiverID][tx.SenderID] = true
			fanInCounterparties[tx.ReceiverID] = append(fanInCounterparties[tx.ReceiverID], tx.SenderID)
		}

		if !fanOutSeenAcct[tx.SenderID] {
			fanOutSeenAcct[tx.SenderID] = true
			fanOutOrder = append(fanOutOrder, tx.SenderID)
			fanOutSeen[tx.SenderID] = make(map[string]bool)
		}
		if !fanOutSeen[tx.SenderID][tx.ReceiverID] {
			fanOutSeen[tx.SenderID][tx.ReceiverID] = true
			fanOutCounterparties[tx.SenderID] = append(fanOutCounterparties[tx.SenderID], tx.ReceiverID)
		}
	}

	result := SmurfingResult{byAccount: make(map[string]*HubResult)}

	for _, receiver := range fanInOrder {
		counterparties := fanInCounterparties[receiver]
		if len(counterparties) < smurfingThreshold {
			continue
		}
		hub := HubResult{
			Hub:            receiver,
			Counterparties: counterparties,
			Temporal:       hasTemporalCluster(txns, receiver, true),
		}
		result.FanIn = append(result.FanIn, hub)
	}
	for i := range result.FanIn {
		result.byAccount[result.FanIn[i].Hub] = &result.FanIn[i]
	}

	for _, sender := range fanOutOrder {
		counterparties := fanOutCounterparties[sender]
		if len(counterparties) < smurfingThreshold {
			continue
		}
		hub := HubResult{
			Hub:            sender,
			Counterparties: counterparties,
			Temporal:       hasTemporalCluster(txns, sender, false),
		}
		result.FanOut = append(result.FanOut, hub)
	}
	for i := range result.FanOut {
		result.byAccount[result.FanOut[i].Hub] = &result.FanOut[i]
	}

	return result
}

// HubFor returns the fan-in/fan-out entry for account, if any.
func (s SmurfingResult) HubFor(account string) (*HubResult, bool) {
	h, ok := s.byAccount[account]
	return h, ok
}

// hasTemporalCluster scans hub's counterparty transactions (as receiver if
// isFanIn, else as sender) sorted by timestamp; true if any 72h window
// contains >= 10 distinct counterparties. Transactions with an invalid
// timestamp are excluded from windowing entirely.
func hasTemporalCluster(txns []models.Transaction, hub string, isFanIn bool) bool {
	type event struct {
		t       int64
		counter string
	}
	var events []event
	for _, tx := range txns {
		if !tx.TimestampValid {
			continue
		}
		if isFanIn && tx.ReceiverID == hub {
			events = append(events, event{t: tx.Timestamp.UnixMilli(), counter: tx.SenderID})
		} else if !isFanIn && tx.SenderID == hub {
			events = append(events, event{t: tx.Timestamp.UnixMilli(), counter: tx.ReceiverID})
		}
	}
	if len(events) == 0 {
		return false
	}
	// stable sort by timestamp, insertion order preserved for ties
	for i := 1; i < len(events); i++ {
		j := i
		for j > 0 && events[j-1].t > events[j].t {
			events[j-1], events[j] = events[j], events[j-1]
			j--
		}
	}

	windowMillis := int64(temporalWindowHours) * 60 * 60 * 1000
	for i := range events {
		windowEnd := events[i].t + windowMillis
		seen := make(map[string]bool)
		for j := i; j < len(events) && events[j].t <= windowEnd; j++ {
			seen[events[j].counter] = true
		}
		if len(seen) >= smurfingThreshold {
			return true
		}
	}
	return false
}

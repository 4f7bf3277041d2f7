package graph

import (
	"testing"
	"time"

	"github.com/rawblock/fraudnet-engine/pkg/models"
	"github.com/shopspring/decimal"
)

func mustTx(id, sender, receiver string, amount int64, ts time.Time) models.Transaction {
	return models.Transaction{
		TransactionID:  id,
		SenderID:       sender,
		ReceiverID:     receiver,
		Amount:         decimal.NewFromInt(amount),
		Timestamp:      ts,
		TimestampValid: true,
	}
}

func TestAnalyze_ThreeCycle(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	txns := []models.Transaction{
		mustTx("T1", "A", "B", 100, base),
		mustTx("T2", "B", "C", 100, base.Add(1*time.Hour)),
		mustTx("T3", "C", "A", 100, base.Add(2*time.Hour)),
	}

	result := Analyze(txns)

	if len(result.FraudRings) != 1 {
		t.Fatalf("expected 1 ring, got %d", len(result.FraudRings))
	}
	ring := result.FraudRings[0]
	if ring.RingID != "RING_001" {
		t.Errorf("expected RING_001, got %s", ring.RingID)
	}
	if ring.PatternType != models.PatternCycle {
		t.Errorf("expected cycle pattern, got %s", ring.PatternType)
	}
	if len(ring.MemberAccounts) != 3 || ring.MemberAccounts[0] != "A" {
		t.Errorf("expected members starting with A, got %v", ring.MemberAccounts)
	}
	if ring.RiskScore != 85.0 {
		t.Errorf("expected risk 85.0, got %v", ring.RiskScore)
	}

	if len(result.SuspiciousAccounts) != 3 {
		t.Fatalf("expected 3 suspicious accounts, got %d", len(result.SuspiciousAccounts))
	}
	for _, sa := range result.SuspiciousAccounts {
		if sa.SuspicionScore != 45.0 && sa.SuspicionScore != 35.0 {
			t.Errorf("unexpected score for %s: %v", sa.AccountID, sa.SuspicionScore)
		}
	}
	// Ratio is exactly 1.0 (all amounts equal) so the flow-ratio bonus must
	// NOT apply: score should be exactly 35.0 for every member.
	for _, sa := range result.SuspiciousAccounts {
		if sa.SuspicionScore != 35.0 {
			t.Errorf("expected 35.0 (no flow-ratio bonus at ratio==1.0), got %v for %s", sa.SuspicionScore, sa.AccountID)
		}
	}

	if len(result.Nodes) != 3 {
		t.Errorf("expected 3 nodes, got %d", len(result.Nodes))
	}
	if len(result.Edges) != 3 {
		t.Errorf("expected 3 edges, got %d", len(result.Edges))
	}
}

func TestAnalyze_FanInHub(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var txns []models.Transaction
	for i := 0; i < 10; i++ {
		sender := string(rune('A' + i))
		txns = append(txns, mustTx("T"+sender, sender, "HUB", 50, base.Add(time.Duration(i)*time.Hour)))
	}

	result := Analyze(txns)

	if len(result.FraudRings) != 1 {
		t.Fatalf("expected 1 ring, got %d", len(result.FraudRings))
	}
	ring := result.FraudRings[0]
	if ring.PatternType != models.PatternFanIn {
		t.Errorf("expected fan_in, got %s", ring.PatternType)
	}
	wantRisk := 60 + 25 + 0.5*10
	if ring.RiskScore != wantRisk {
		t.Errorf("expected risk %v, got %v", wantRisk, ring.RiskScore)
	}
	if ring.MemberAccounts[0] != "HUB" {
		t.Errorf("expected HUB first, got %v", ring.MemberAccounts)
	}
}

func TestAnalyze_LegitimateBusinessFiltered(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var txns []models.Transaction
	for i := 0; i < 10; i++ {
		receiver := string(rune('E' + i))
		txns = append(txns, mustTx("T"+receiver, "ACME_CORP_PAYROLL", receiver, 2000, base.Add(time.Duration(i)*time.Hour)))
	}

	result := Analyze(txns)

	if result.Summary.FraudRingsDetected != 0 {
		t.Errorf("expected 0 rings, got %d", result.Summary.FraudRingsDetected)
	}
	if result.Summary.SuspiciousAccountsFlagged != 0 {
		t.Errorf("expected 0 suspicious accounts, got %d", result.Summary.SuspiciousAccountsFlagged)
	}
	if len(result.Nodes) != 11 {
		t.Errorf("expected 11 nodes, got %d", len(result.Nodes))
	}
	if len(result.Edges) != 10 {
		t.Errorf("expected 10 edges, got %d", len(result.Edges))
	}

	var payrollNode *models.Node
	for i := range result.Nodes {
		if result.Nodes[i].ID == "ACME_CORP_PAYROLL" {
			payrollNode = &result.Nodes[i]
		}
	}
	if payrollNode == nil {
		t.Fatal("expected payroll node to be present")
	}
	if len(payrollNode.Patterns) != 1 || payrollNode.Patterns[0] != models.LabelLegitimate {
		t.Errorf("expected legitimate_business pattern, got %v", payrollNode.Patterns)
	}
}

func TestAnalyze_LegitimateFanOutHubExcludedWithSurvivingCycle(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var txns []models.Transaction
	txns = append(txns,
		mustTx("C1", "A", "B", 100, base),
		mustTx("C2", "B", "C", 100, base.Add(time.Hour)),
		mustTx("C3", "C", "A", 100, base.Add(2*time.Hour)),
	)
	for i := 0; i < 10; i++ {
		receiver := "E" + string(rune('0'+i))
		txns = append(txns, mustTx("P"+receiver, "ACME_CORP_PAYROLL", receiver, 2000, base.Add(time.Duration(i)*time.Hour)))
	}

	result := Analyze(txns)

	for _, ring := range result.FraudRings {
		for _, m := range ring.MemberAccounts {
			if m == "ACME_CORP_PAYROLL" {
				t.Fatalf("legitimate account ACME_CORP_PAYROLL must never appear in a ring, got %+v", ring)
			}
		}
	}
	for _, sa := range result.SuspiciousAccounts {
		if sa.AccountID == "ACME_CORP_PAYROLL" {
			t.Fatalf("legitimate account ACME_CORP_PAYROLL must never be flagged suspicious")
		}
	}
	if len(result.FraudRings) != 1 || result.FraudRings[0].PatternType != models.PatternCycle {
		t.Fatalf("expected only the A->B->C cycle to survive, got %+v", result.FraudRings)
	}
}

func TestAnalyze_ShellChain(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var txns []models.Transaction
	// SRC -> M1 -> M2 -> M3 -> DST, each Mi has exactly 2 transactions.
	// DST gets no other activity so its total_transactions stays at 1,
	// keeping it outside the {2,3} interior band that would otherwise
	// make it look like another mid-chain shell account.
	txns = append(txns, mustTx("T1", "SRC", "M1", 500, base))
	txns = append(txns, mustTx("T2", "M1", "M2", 500, base.Add(time.Hour)))
	txns = append(txns, mustTx("T3", "M2", "M3", 500, base.Add(2*time.Hour)))
	txns = append(txns, mustTx("T4", "M3", "DST", 500, base.Add(3*time.Hour)))
	// SRC gets a second, unrelated transfer (total 2); as the chain's start it
	// is exempt from the interior degree bound, so the chain still begins at SRC.
	txns = append(txns, mustTx("T5", "SRC", "OTHER1", 10, base.Add(4*time.Hour)))

	result := Analyze(txns)

	var shellRing *models.Ring
	for i := range result.FraudRings {
		if result.FraudRings[i].PatternType == models.PatternShellNetwork {
			shellRing = &result.FraudRings[i]
		}
	}
	if shellRing == nil {
		t.Fatal("expected a shell_network ring")
	}
	if len(shellRing.MemberAccounts) != 5 {
		t.Errorf("expected 5 members, got %v", shellRing.MemberAccounts)
	}
	wantRisk := 50 + 8*5.0
	if shellRing.RiskScore != wantRisk {
		t.Errorf("expected risk %v, got %v", wantRisk, shellRing.RiskScore)
	}
}

func TestAnalyze_DedupSameCycleFromDifferentStarts(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	txns := []models.Transaction{
		mustTx("T1", "A", "B", 100, base),
		mustTx("T2", "B", "C", 100, base.Add(time.Hour)),
		mustTx("T3", "C", "A", 100, base.Add(2*time.Hour)),
	}

	result := Analyze(txns)

	cycleCount := 0
	for _, r := range result.FraudRings {
		if r.PatternType == models.PatternCycle {
			cycleCount++
		}
	}
	if cycleCount != 1 {
		t.Errorf("expected exactly 1 cycle ring after dedup, got %d", cycleCount)
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	txns := []models.Transaction{
		mustTx("T1", "A", "B", 100, base),
		mustTx("T2", "B", "C", 100, base.Add(time.Hour)),
		mustTx("T3", "C", "A", 100, base.Add(2*time.Hour)),
	}

	r1 := Analyze(txns)
	r2 := Analyze(txns)

	if len(r1.FraudRings) != len(r2.FraudRings) {
		t.Fatalf("ring count differs across runs: %d vs %d", len(r1.FraudRings), len(r2.FraudRings))
	}
	for i := range r1.FraudRings {
		if r1.FraudRings[i].RingID != r2.FraudRings[i].RingID {
			t.Errorf("ring id mismatch at %d: %s vs %s", i, r1.FraudRings[i].RingID, r2.FraudRings[i].RingID)
		}
	}
}

func TestAnalyze_EmptyAfterFilter(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	txns := []models.Transaction{
		mustTx("T1", "ACME_CORP", "VENDOR_SUPPLY", 100, base),
	}

	result := Analyze(txns)

	if result.Summary.FraudRingsDetected != 0 {
		t.Errorf("expected 0 rings when all txns filtered, got %d", result.Summary.FraudRingsDetected)
	}
	if len(result.Nodes) != 2 {
		t.Errorf("expected 2 nodes, got %d", len(result.Nodes))
	}
}

func TestInvariant_RingIDsContiguous(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var txns []models.Transaction
	txns = append(txns,
		mustTx("T1", "A", "B", 100, base),
		mustTx("T2", "B", "C", 100, base.Add(time.Hour)),
		mustTx("T3", "C", "A", 100, base.Add(2*time.Hour)),
	)
	for i := 0; i < 10; i++ {
		sender := "S" + string(rune('0'+i))
		txns = append(txns, mustTx("F"+sender, sender, "HUB2", 50, base.Add(time.Duration(i)*time.Hour)))
	}

	result := Analyze(txns)

	for i, r := range result.FraudRings {
		want := "RING_00" + string(rune('1'+i))
		if len(result.FraudRings) >= 10 {
			t.Skip("id-format check assumes < 10 rings")
		}
		if r.RingID != want {
			t.Errorf("ring %d: expected id %s, got %s", i, want, r.RingID)
		}
	}
}

func TestInvariant_ScoresWithinRange(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var txns []models.Transaction
	for i := 0; i < 10; i++ {
		sender := string(rune('A' + i))
		txns = append(txns, mustTx("T"+sender, sender, "HUB", 50, base.Add(time.Duration(i)*time.Hour)))
	}
	result := Analyze(txns)
	for _, sa := range result.SuspiciousAccounts {
		if sa.SuspicionScore < 0 || sa.SuspicionScore > 100 {
			t.Errorf("score out of range: %v", sa.SuspicionScore)
		}
	}
	for _, r := range result.FraudRings {
		if r.RiskScore < 0 || r.RiskScore > 100 {
			t.Errorf("risk score out of range: %v", r.RiskScore)
		}
	}
}

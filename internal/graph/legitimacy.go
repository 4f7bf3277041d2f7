package graph

import (
	"math"
	"strings"

	"github.com/rawblock/fraudnet-engine/pkg/models"
	"github.com/shopspring/decimal"
)

// LegitimacyConfig parameterizes the keyword list used to classify an
// account as legitimate business traffic. The behavioral-signature
// thresholds are fixed in the signature functions below and are not part of
// the config. The default config (DefaultLegitimacyConfig) reproduces the
// fixed rules exactly; a second config lets the shadow-comparison stage run
// the filter twice over one batch without duplicating this logic.
type LegitimacyConfig struct {
	Keywords []string
}

// legitimacyKeywords is the fixed substring list, grouped by category for
// readability only — matching is a flat uppercase substring scan.
var legitimacyKeywords = []string{
	// corporate suffixes
	"COMPANY", "CORP", "INC", "LLC", "LTD", "ENTERPRISE",
	// payroll
	"PAYROLL", "SALARY", "WAGE", "HR_", "HUMAN_RESOURCE",
	// property
	"RENT", "LANDLORD", "PROPERTY", "REALTY", "HOUSING",
	// supply chain
	"VENDOR", "SUPPLIER", "SUPPLY", "WHOLESALE",
	// retail
	"GROCERY", "STORE", "SHOP", "MARKET", "RETAIL",
	// utilities
	"UTILITY", "ELECTRIC", "WATER", "GAS_CO", "POWER",
	// insurance/banking
	"INSURANCE", "INSURE", "BANK", "CREDIT_UNION", "MORTGAGE",
	// public sector
	"GOVERNMENT", "GOV_", "TAX_", "IRS",
	// education
	"SCHOOL", "UNIVERSITY", "COLLEGE",
	// healthcare
	"HOSPITAL", "CLINIC", "MEDICAL", "HEALTH",
	// communications
	"TELECOM", "PHONE", "MOBILE", "INTERNET",
	// subscriptions
	"SUBSCRIPTION", "NETFLIX", "SPOTIFY",
}

// DefaultLegitimacyConfig reproduces the fixed classification rules.
func DefaultLegitimacyConfig() LegitimacyConfig {
	return LegitimacyConfig{Keywords: legitimacyKeywords}
}

// LegitimacyResult is the filter's output: which accounts were classified
// legitimate and the transaction batch with their transactions removed.
type LegitimacyResult struct {
	LegitimateAccounts map[string]bool
	FilteredTxns       []models.Transaction
}

// FilterLegitimate classifies accounts and strips their transactions.
// Requires the full unfiltered stats table (built over unfiltered txns) to
// evaluate the behavioral signatures.
func FilterLegitimate(cfg LegitimacyConfig, txns []models.Transaction, unfilteredStats map[string]*models.AccountStats) LegitimacyResult {
	legit := make(map[string]bool)

	accounts := accountInsertionOrder(txns)
	for _, acct := range accounts {
		if isLegitimateName(cfg, acct) {
			legit[acct] = true
			continue
		}
		stats := unfilteredStats[acct]
		if stats == nil {
			continue
		}
		if isPayrollSignature(stats) || isRentCollectorSignature(stats) ||
			isMerchantSignature(stats) || isPurePayerSignature(stats) {
			legit[acct] = true
		}
	}

	filtered := make([]models.Transaction, 0, len(txns))
	for _, tx := range txns {
		if legit[tx.SenderID] || legit[tx.ReceiverID] {
			continue
		}
		filtered = append(filtered, tx)
	}

	return LegitimacyResult{LegitimateAccounts: legit, FilteredTxns: filtered}
}

// accountInsertionOrder returns every account (sender or receiver) in the
// order it was first observed in txns.
func accountInsertionOrder(txns []models.Transaction) []string {
	seen := make(map[string]bool)
	var order []string
	for _, tx := range txns {
		if !seen[tx.SenderID] {
			seen[tx.SenderID] = true
			order = append(order, tx.SenderID)
		}
		if !seen[tx.ReceiverID] {
			seen[tx.ReceiverID] = true
			order = append(order, tx.ReceiverID)
		}
	}
	return order
}

func isLegitimateName(cfg LegitimacyConfig, accountID string) bool {
	upper := strings.ToUpper(accountID)
	for _, kw := range cfg.Keywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

// isPayrollSignature: rule 2.
func isPayrollSignature(s *models.AccountStats) bool {
	if s.UniqueReceivers < 5 || s.SendCount < 5 {
		return false
	}
	return coefficientOfVariation(s.SentAmounts) < 0.3 && flowRatio(s) < 0.15
}

// isRentCollectorSignature: rule 3.
func isRentCollectorSignature(s *models.AccountStats) bool {
	if s.UniqueSenders < 5 || s.ReceiveCount < 5 {
		return false
	}
	return coefficientOfVariation(s.ReceivedAmounts) < 0.3 && flowRatio(s) < 0.15
}

// isMerchantSignature: rule 4.
func isMerchantSignature(s *models.AccountStats) bool {
	if s.UniqueSenders < 8 || s.UniqueReceivers > 3 {
		return false
	}
	return s.TotalReceived.GreaterThan(s.TotalSent.Mul(decimal.NewFromInt(5)))
}

// isPurePayerSignature: rule 5.
func isPurePayerSignature(s *models.AccountStats) bool {
	if s.UniqueReceivers < 5 || s.UniqueSenders > 1 {
		return false
	}
	return s.TotalSent.GreaterThan(s.TotalReceived.Mul(decimal.NewFromInt(5)))
}

// coefficientOfVariation returns sigma/mu for the given decimal amounts,
// converting to float64 for the threshold comparison. Returns +Inf if the
// mean is zero (the signature never passes in that case).
func coefficientOfVariation(amounts []decimal.Decimal) float64 {
	n := len(amounts)
	if n == 0 {
		return math.Inf(1)
	}
	sum := 0.0
	for _, a := range amounts {
		sum += a.InexactFloat64()
	}
	mean := sum / float64(n)
	if mean == 0 {
		return math.Inf(1)
	}
	var sqDiff float64
	for _, a := range amounts {
		d := a.InexactFloat64() - mean
		sqDiff += d * d
	}
	variance := sqDiff / float64(n)
	return math.Sqrt(variance) / mean
}

// flowRatio is min(sent, received) / max(sent, received); 0 if either is 0.
func flowRatio(s *models.AccountStats) float64 {
	sent := s.TotalSent.InexactFloat64()
	received := s.TotalReceived.InexactFloat64()
	if sent == 0 || received == 0 {
		return 0
	}
	if sent < received {
		return sent / received
	}
	return received / sent
}

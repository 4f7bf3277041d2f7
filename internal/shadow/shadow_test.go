package shadow

import (
	"testing"
	"time"

	"github.com/rawblock/fraudnet-engine/internal/graph"
	"github.com/rawblock/fraudnet-engine/pkg/models"
	"github.com/shopspring/decimal"
)

func tx(id, from, to string, amt int64, ts time.Time) models.Transaction {
	return models.Transaction{
		TransactionID: id, SenderID: from, ReceiverID: to,
		Amount: decimal.NewFromInt(amt), Timestamp: ts, TimestampValid: true,
	}
}

func TestRun_IdenticalConfigsGiveMaxAgreement(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	txns := []models.Transaction{
		tx("T1", "A", "B", 100, base),
		tx("T2", "B", "C", 100, base.Add(time.Hour)),
		tx("T3", "C", "A", 100, base.Add(2*time.Hour)),
	}
	cfg := graph.DefaultLegitimacyConfig()

	result := Run("RUN_1", txns, cfg, cfg)

	if result.AdjustedRandIndex != 1.0 {
		t.Errorf("expected ARI 1.0 for identical configs, got %v", result.AdjustedRandIndex)
	}
	if result.VariationOfInformation != 0.0 {
		t.Errorf("expected VI 0.0 for identical configs, got %v", result.VariationOfInformation)
	}
	if result.ProductionRingCount != result.ShadowRingCount {
		t.Errorf("expected equal ring counts, got %d vs %d", result.ProductionRingCount, result.ShadowRingCount)
	}
}

package db

import (
	"context"
	_ "embed"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rawblock/fraudnet-engine/pkg/models"
	"github.com/shopspring/decimal"
)

func decimalFromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// schemaSQL is compiled into the binary at build time so schema init works
// inside a runtime image that never copies internal/db/schema.sql.
//
//go:embed schema.sql
var schemaSQL string

// PostgresStore persists analysis runs, rings, suspicious accounts, and
// investigation casework.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect opens the connection pool and verifies it with a ping.
func Connect(connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping failed: %v", err)
	}
	log.Println("connected to PostgreSQL for fraud-ring analysis storage")
	return &PostgresStore{pool: pool}, nil
}

// Close gracefully closes the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema executes the embedded schema.sql DDL statements.
func (s *PostgresStore) InitSchema() error {
	if _, err := s.pool.Exec(context.Background(), schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema migrations: %v", err)
	}
	log.Println("fraud-ring analysis schema initialized")
	return nil
}

// GetPool exposes the connection pool for subsystems (shadow, batch) that
// need to run their own queries.
func (s *PostgresStore) GetPool() *pgxpool.Pool {
	return s.pool
}

// SaveAnalysisResult persists one run's input batch and its full result —
// the run row, every transaction, every ring and its members, and every
// suspicious account — inside a single transaction.
func (s *PostgresStore) SaveAnalysisResult(ctx context.Context, runID string, txns []models.Transaction, result models.AnalysisResult) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	insertRun := `
		INSERT INTO analysis_runs
			(run_id, total_accounts_analyzed, suspicious_accounts_flagged, fraud_rings_detected,
			 legitimate_accounts_filtered, processing_time_seconds)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (run_id) DO UPDATE SET
			total_accounts_analyzed = EXCLUDED.total_accounts_analyzed,
			suspicious_accounts_flagged = EXCLUDED.suspicious_accounts_flagged,
			fraud_rings_detected = EXCLUDED.fraud_rings_detected,
			legitimate_accounts_filtered = EXCLUDED.legitimate_accounts_filtered,
			processing_time_seconds = EXCLUDED.processing_time_seconds;
	`
	_, err = tx.Exec(ctx, insertRun, runID,
		result.Summary.TotalAccountsAnalyzed, result.Summary.SuspiciousAccountsFlagged,
		result.Summary.FraudRingsDetected, result.Summary.LegitimateAccountsFiltered,
		result.Summary.ProcessingTimeSeconds)
	if err != nil {
		return fmt.Errorf("failed to insert analysis_runs: %v", err)
	}

	insertTxn := `
		INSERT INTO transactions (run_id, transaction_id, sender_id, receiver_id, amount, occurred_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6)
		ON CONFLICT (run_id, transaction_id) DO NOTHING;
	`
	for _, t := range txns {
		if _, err := tx.Exec(ctx, insertTxn, runID, t.TransactionID, t.SenderID, t.ReceiverID, t.Amount.String(), t.Timestamp); err != nil {
			return fmt.Errorf("failed to insert transaction %s: %v", t.TransactionID, err)
		}
	}

	insertRing := `
		INSERT INTO fraud_rings (run_id, ring_id, pattern_type, risk_score)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (run_id, ring_id) DO UPDATE SET risk_score = EXCLUDED.risk_score
		RETURNING id;
	`
	insertMember := `
		INSERT INTO ring_members (ring_pk, account_id, member_order)
		VALUES ($1, $2, $3)
		ON CONFLICT (ring_pk, account_id) DO NOTHING;
	`
	for _, ring := range result.FraudRings {
		var ringPK int64
		if err := tx.QueryRow(ctx, insertRing, runID, ring.RingID, string(ring.PatternType), ring.RiskScore).Scan(&ringPK); err != nil {
			return fmt.Errorf("failed to insert fraud_rings row %s: %v", ring.RingID, err)
		}
		for i, account := range ring.MemberAccounts {
			if _, err := tx.Exec(ctx, insertMember, ringPK, account, i); err != nil {
				return fmt.Errorf("failed to insert ring_members for %s: %v", ring.RingID, err)
			}
		}
	}

	insertSuspicious := `
		INSERT INTO suspicious_accounts (run_id, account_id, suspicion_score, ring_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (run_id, account_id) DO UPDATE SET
			suspicion_score = EXCLUDED.suspicion_score, ring_id = EXCLUDED.ring_id;
	`
	for _, sa := range result.SuspiciousAccounts {
		if _, err := tx.Exec(ctx, insertSuspicious, runID, sa.AccountID, sa.SuspicionScore, sa.RingID); err != nil {
			return fmt.Errorf("failed to insert suspicious_accounts for %s: %v", sa.AccountID, err)
		}
	}

	return tx.Commit(ctx)
}

// LoadRunTransactions reloads one run's input batch in insertion order —
// used by the batch rescanner and by shadow comparison to re-run detection
// over an already-persisted batch.
func (s *PostgresStore) LoadRunTransactions(ctx context.Context, runID string) ([]models.Transaction, error) {
	sql := `
		SELECT transaction_id, sender_id, receiver_id, amount, occurred_at
		FROM transactions WHERE run_id = $1 ORDER BY id ASC;
	`
	rows, err := s.pool.Query(ctx, sql, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var amountStr string
		if err := rows.Scan(&t.TransactionID, &t.SenderID, &t.ReceiverID, &amountStr, &t.Timestamp); err != nil {
			return nil, err
		}
		amt, err := decimalFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("malformed amount for transaction %s: %v", t.TransactionID, err)
		}
		t.Amount = amt
		t.TimestampValid = !t.Timestamp.IsZero()
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// PagedAccounts is one page of ranked suspicious accounts.
type PagedAccounts struct {
	Accounts   []models.SuspiciousAccount
	TotalCount int
}

// GetSuspiciousAccounts returns a page of one run's suspicious accounts,
// ranked by suspicion score descending.
func (s *PostgresStore) GetSuspiciousAccounts(ctx context.Context, runID string, page, limit int) (PagedAccounts, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM suspicious_accounts WHERE run_id = $1`, runID).Scan(&total); err != nil {
		return PagedAccounts{}, err
	}

	sql := `
		SELECT account_id, suspicion_score, ring_id
		FROM suspicious_accounts WHERE run_id = $1
		ORDER BY suspicion_score DESC
		LIMIT $2 OFFSET $3;
	`
	rows, err := s.pool.Query(ctx, sql, runID, limit, offset)
	if err != nil {
		return PagedAccounts{}, err
	}
	defer rows.Close()

	accounts := make([]models.SuspiciousAccount, 0, limit)
	for rows.Next() {
		var sa models.SuspiciousAccount
		var ringID *string
		if err := rows.Scan(&sa.AccountID, &sa.SuspicionScore, &ringID); err != nil {
			return PagedAccounts{}, err
		}
		if ringID != nil {
			sa.RingID = *ringID
		}
		accounts = append(accounts, sa)
	}
	return PagedAccounts{Accounts: accounts, TotalCount: total}, rows.Err()
}

// SaveInvestigation upserts investigation metadata for durable case storage.
func (s *PostgresStore) SaveInvestigation(ctx context.Context, caseID, runID, name, description string) error {
	sql := `
		INSERT INTO investigations (case_id, run_id, name, description, status)
		VALUES ($1, $2, $3, $4, 'active')
		ON CONFLICT (case_id) DO UPDATE SET
			name = EXCLUDED.name, description = EXCLUDED.description,
			status = 'active', updated_at = NOW();
	`
	_, err := s.pool.Exec(ctx, sql, caseID, runID, name, description)
	return err
}

// SaveInvestigationAccount upserts a tagged account within an investigation.
func (s *PostgresStore) SaveInvestigationAccount(ctx context.Context, caseID, accountID, label, role, notes, taggedBy string) error {
	sql := `
		WITH target AS (
			SELECT id FROM investigations WHERE case_id = $1
		),
		updated AS (
			UPDATE investigation_accounts a
			SET label = $3, role = $4, notes = $5, tagged_by = $6, tagged_at = NOW()
			FROM target
			WHERE a.investigation_id = target.id AND a.account_id = $2
			RETURNING a.id
		)
		INSERT INTO investigation_accounts (investigation_id, account_id, label, role, notes, tagged_by, tagged_at)
		SELECT target.id, $2, $3, $4, $5, $6, NOW()
		FROM target
		WHERE NOT EXISTS (SELECT 1 FROM updated);
	`
	result, err := s.pool.Exec(ctx, sql, caseID, accountID, label, role, notes, taggedBy)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("investigation case_id not found: %s", caseID)
	}
	return nil
}

// InvestigationSeed is one active investigation's tagged account, used to
// warm-start casework state on process boot.
type InvestigationSeed struct {
	CaseID    string
	Name      string
	AccountID string
	Role      string
	Label     string
}

// LoadActiveInvestigationSeeds loads tagged accounts for every active case.
func (s *PostgresStore) LoadActiveInvestigationSeeds(ctx context.Context) ([]InvestigationSeed, error) {
	sql := `
		SELECT i.case_id, i.name, a.account_id, a.role, COALESCE(a.label, '')
		FROM investigations i
		JOIN investigation_accounts a ON a.investigation_id = i.id
		WHERE i.status = 'active';
	`
	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seeds := make([]InvestigationSeed, 0)
	for rows.Next() {
		var seed InvestigationSeed
		if err := rows.Scan(&seed.CaseID, &seed.Name, &seed.AccountID, &seed.Role, &seed.Label); err != nil {
			return nil, err
		}
		seeds = append(seeds, seed)
	}
	return seeds, rows.Err()
}

// PersistRescanResult overwrites a run's rings, ring memberships, suspicious
// accounts, and summary counters after a rescan, leaving the run's stored
// transaction batch untouched. Matches the batch.PersistFunc signature.
func (s *PostgresStore) PersistRescanResult(ctx context.Context, runID string, result models.AnalysisResult) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	updateRun := `
		UPDATE analysis_runs SET
			total_accounts_analyzed = $2, suspicious_accounts_flagged = $3,
			fraud_rings_detected = $4, legitimate_accounts_filtered = $5,
			processing_time_seconds = $6
		WHERE run_id = $1;
	`
	if _, err := tx.Exec(ctx, updateRun, runID,
		result.Summary.TotalAccountsAnalyzed, result.Summary.SuspiciousAccountsFlagged,
		result.Summary.FraudRingsDetected, result.Summary.LegitimateAccountsFiltered,
		result.Summary.ProcessingTimeSeconds); err != nil {
		return fmt.Errorf("failed to update analysis_runs: %v", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM fraud_rings WHERE run_id = $1`, runID); err != nil {
		return fmt.Errorf("failed to clear fraud_rings: %v", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM suspicious_accounts WHERE run_id = $1`, runID); err != nil {
		return fmt.Errorf("failed to clear suspicious_accounts: %v", err)
	}

	insertRing := `
		INSERT INTO fraud_rings (run_id, ring_id, pattern_type, risk_score)
		VALUES ($1, $2, $3, $4) RETURNING id;
	`
	insertMember := `INSERT INTO ring_members (ring_pk, account_id, member_order) VALUES ($1, $2, $3);`
	for _, ring := range result.FraudRings {
		var ringPK int64
		if err := tx.QueryRow(ctx, insertRing, runID, ring.RingID, string(ring.PatternType), ring.RiskScore).Scan(&ringPK); err != nil {
			return fmt.Errorf("failed to insert fraud_rings row %s: %v", ring.RingID, err)
		}
		for i, account := range ring.MemberAccounts {
			if _, err := tx.Exec(ctx, insertMember, ringPK, account, i); err != nil {
				return fmt.Errorf("failed to insert ring_members for %s: %v", ring.RingID, err)
			}
		}
	}

	insertSuspicious := `
		INSERT INTO suspicious_accounts (run_id, account_id, suspicion_score, ring_id)
		VALUES ($1, $2, $3, $4);
	`
	for _, sa := range result.SuspiciousAccounts {
		if _, err := tx.Exec(ctx, insertSuspicious, runID, sa.AccountID, sa.SuspicionScore, sa.RingID); err != nil {
			return fmt.Errorf("failed to insert suspicious_accounts for %s: %v", sa.AccountID, err)
		}
	}

	return tx.Commit(ctx)
}

// CountRings returns how many fraud rings are currently stored for a run,
// used by the batch rescanner to detect newly-discovered rings after a
// legitimacy configuration change.
func (s *PostgresStore) CountRings(ctx context.Context, runID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM fraud_rings WHERE run_id = $1`, runID).Scan(&count)
	return count, err
}

// ListRunIDs returns every stored run ID, in creation order — used to seed
// a full rescan across every previously-ingested batch.
func (s *PostgresStore) ListRunIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT run_id FROM analysis_runs ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SaveShadowResult persists one shadow-comparison run.
func (s *PostgresStore) SaveShadowResult(ctx context.Context, result models.ShadowResult) error {
	sql := `
		INSERT INTO shadow_results
			(run_id, production_ring_count, shadow_ring_count, adjusted_rand_index, variation_of_information)
		VALUES ($1, $2, $3, $4, $5);
	`
	_, err := s.pool.Exec(ctx, sql, result.RunID, result.ProductionRingCount, result.ShadowRingCount,
		result.AdjustedRandIndex, result.VariationOfInformation)
	return err
}

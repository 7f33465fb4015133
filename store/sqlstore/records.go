package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/propertyfriends/pf-engine/domain"
	"github.com/propertyfriends/pf-engine/money"
	"github.com/propertyfriends/pf-engine/period"
	"github.com/propertyfriends/pf-engine/store"
)

func moneyCents(v int64) money.Cents { return money.Cents(v) }

// =============================================================================
// CLAIMS
// =============================================================================

const claimColumns = `id, claim_reference, property_id, participant_id, claim_pathway, period_start,
	period_end, sda_amount, mrrc_amount, total_amount, ndis_item_number, status, rejection_reason,
	submitted_at, approved_at, paid_at, created_at`

// SaveClaim inserts or updates a claim. A claim without an id is given one.
func (s *Store) SaveClaim(ctx context.Context, c domain.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	var mrrc sql.NullInt64
	if c.MrrcAmount != nil {
		mrrc = sql.NullInt64{Int64: int64(*c.MrrcAmount), Valid: true}
	}

	return s.exec(ctx, `
		INSERT INTO claims (`+claimColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			claim_reference = excluded.claim_reference,
			claim_pathway = excluded.claim_pathway,
			period_start = excluded.period_start,
			period_end = excluded.period_end,
			sda_amount = excluded.sda_amount,
			mrrc_amount = excluded.mrrc_amount,
			total_amount = excluded.total_amount,
			status = excluded.status,
			rejection_reason = excluded.rejection_reason,
			submitted_at = excluded.submitted_at,
			approved_at = excluded.approved_at,
			paid_at = excluded.paid_at
	`, c.ID, c.ClaimReference, c.PropertyID, c.ParticipantID, string(c.ClaimPathway),
		formatTime(c.PeriodStart), formatTime(c.PeriodEnd),
		int64(c.SdaAmount), mrrc, int64(c.TotalAmount), c.NDISItemNumber,
		string(c.Status), c.RejectionReason, nullTime(c.SubmittedAt), nullTime(c.ApprovedAt),
		nullTime(c.PaidAt), formatTime(c.CreatedAt))
}

func (s *Store) GetClaim(ctx context.Context, id string) (*domain.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := scanClaim(s.queryRow(ctx, "SELECT "+claimColumns+" FROM claims WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) ListClaims(ctx context.Context, f store.ClaimFilter) ([]domain.Claim, error) {
	query := "SELECT " + claimColumns + " FROM claims WHERE 1 = 1"
	var args []any
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, string(f.Status))
	}
	if f.PropertyID != "" {
		query += " AND property_id = ?"
		args = append(args, f.PropertyID)
	}
	return s.queryClaims(ctx, query+" ORDER BY created_at", args...)
}

func (s *Store) SubmittedClaimsBefore(ctx context.Context, cutoff time.Time) ([]domain.Claim, error) {
	return s.queryClaims(ctx, `
		SELECT `+claimColumns+` FROM claims
		WHERE status = ? AND submitted_at IS NOT NULL AND submitted_at <= ?
		ORDER BY submitted_at
	`, string(domain.ClaimSubmitted), formatTime(cutoff))
}

func (s *Store) queryClaims(ctx context.Context, query string, args ...any) ([]domain.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	claims := []domain.Claim{}
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

func scanClaim(row scanner) (domain.Claim, error) {
	var c domain.Claim
	var pathway, start, end, status, created string
	var sda, total int64
	var mrrc sql.NullInt64
	var submitted, approved, paid sql.NullString
	err := row.Scan(&c.ID, &c.ClaimReference, &c.PropertyID, &c.ParticipantID, &pathway, &start, &end,
		&sda, &mrrc, &total, &c.NDISItemNumber, &status, &c.RejectionReason, &submitted, &approved, &paid,
		&created)
	if err != nil {
		return c, err
	}
	c.ClaimPathway = domain.ClaimPathway(pathway)
	c.PeriodStart, c.PeriodEnd = parseTime(start), parseTime(end)
	c.SdaAmount, c.TotalAmount = money.Cents(sda), money.Cents(total)
	if mrrc.Valid {
		m := money.Cents(mrrc.Int64)
		c.MrrcAmount = &m
	}
	c.Status = domain.ClaimStatus(status)
	c.SubmittedAt, c.ApprovedAt, c.PaidAt = timePtr(submitted), timePtr(approved), timePtr(paid)
	c.CreatedAt = parseTime(created)
	return c, nil
}

// =============================================================================
// RECONCILIATIONS
// =============================================================================

const reconciliationColumns = `id, property_id, period_month, period_year, statement_number, status,
	total_money_in, net_client_payout, notes, approved_by, approved_at, published_at, created_at`

func (s *Store) GetReconciliation(ctx context.Context, id string) (*domain.ReconciliationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, err := scanReconciliation(s.queryRow(ctx,
		"SELECT "+reconciliationColumns+" FROM reconciliations WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) FindReconciliation(ctx context.Context, propertyID string, p period.Period) (*domain.ReconciliationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, err := scanReconciliation(s.queryRow(ctx, `
		SELECT `+reconciliationColumns+` FROM reconciliations
		WHERE property_id = ? AND period_year = ? AND period_month = ?
	`, propertyID, p.Year, p.Month))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) CreateReconciliation(ctx context.Context, r domain.ReconciliationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.exec(ctx, `
		INSERT INTO reconciliations (`+reconciliationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.reconciliationArgs(r)...)
	if isUniqueConstraintError(err) {
		return store.ErrConflict
	}
	return err
}

// SaveReconciliation upserts on (property, period) and keeps the original id
// and creation time.
func (s *Store) SaveReconciliation(ctx context.Context, r domain.ReconciliationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.exec(ctx, `
		INSERT INTO reconciliations (`+reconciliationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(property_id, period_year, period_month) DO UPDATE SET
			statement_number = excluded.statement_number,
			status = excluded.status,
			total_money_in = excluded.total_money_in,
			net_client_payout = excluded.net_client_payout,
			notes = excluded.notes,
			approved_by = excluded.approved_by,
			approved_at = excluded.approved_at,
			published_at = excluded.published_at
	`, s.reconciliationArgs(r)...)
}

func (s *Store) reconciliationArgs(r domain.ReconciliationRecord) []any {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	var stmt sql.NullInt64
	if r.StatementNumber != nil {
		stmt = sql.NullInt64{Int64: int64(*r.StatementNumber), Valid: true}
	}
	return []any{
		r.ID, r.PropertyID, r.Period.Month, r.Period.Year, stmt, string(r.Status),
		int64(r.TotalMoneyIn), int64(r.NetClientPayout), r.Notes, r.ApprovedBy,
		nullTime(r.ApprovedAt), nullTime(r.PublishedAt), formatTime(r.CreatedAt),
	}
}

func (s *Store) ListReconciliations(ctx context.Context, propertyID string) ([]domain.ReconciliationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + reconciliationColumns + " FROM reconciliations"
	var args []any
	if propertyID != "" {
		query += " WHERE property_id = ?"
		args = append(args, propertyID)
	}
	rows, err := s.query(ctx, query+" ORDER BY period_year DESC, period_month DESC, property_id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []domain.ReconciliationRecord{}
	for rows.Next() {
		r, err := scanReconciliation(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *Store) ReconciledPropertyIDs(ctx context.Context, p period.Period) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.query(ctx,
		"SELECT property_id FROM reconciliations WHERE period_year = ? AND period_month = ?",
		p.Year, p.Month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

func scanReconciliation(row scanner) (domain.ReconciliationRecord, error) {
	var r domain.ReconciliationRecord
	var stmt sql.NullInt64
	var status, created string
	var moneyIn, payout int64
	var approved, published sql.NullString
	err := row.Scan(&r.ID, &r.PropertyID, &r.Period.Month, &r.Period.Year, &stmt, &status,
		&moneyIn, &payout, &r.Notes, &r.ApprovedBy, &approved, &published, &created)
	if err != nil {
		return r, err
	}
	if stmt.Valid {
		n := int(stmt.Int64)
		r.StatementNumber = &n
	}
	r.Status = domain.ReconStatus(status)
	r.TotalMoneyIn, r.NetClientPayout = money.Cents(moneyIn), money.Cents(payout)
	r.ApprovedAt, r.PublishedAt = timePtr(approved), timePtr(published)
	r.CreatedAt = parseTime(created)
	return r, nil
}

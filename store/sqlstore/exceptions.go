package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/propertyfriends/pf-engine/exceptions"
	"github.com/propertyfriends/pf-engine/period"
)

// =============================================================================
// EXCEPTIONS
// =============================================================================

const exceptionColumns = `id, type, severity, title, description, property_id, participant_id,
	claim_id, reconciliation_id, status, assigned_to, resolved_by, resolved_at, resolution_notes,
	metadata, created_at, updated_at`

func (s *Store) CreateException(ctx context.Context, in exceptions.NewException) (*exceptions.Exception, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e := exceptions.Exception{
		ID:               uuid.NewString(),
		Type:             in.Type,
		Severity:         in.Severity,
		Title:            in.Title,
		Description:      in.Description,
		PropertyID:       in.PropertyID,
		ParticipantID:    in.ParticipantID,
		ClaimID:          in.ClaimID,
		ReconciliationID: in.ReconciliationID,
		Status:           exceptions.StatusOpen,
		Metadata:         exceptions.Metadata{}.Merge(in.Metadata),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.writeException(ctx, e, true); err != nil {
		return nil, err
	}
	return &e, nil
}

// UpdateException applies u to the stored row. The read and write happen
// under the write lock so concurrent updates do not interleave.
func (s *Store) UpdateException(ctx context.Context, id string, u exceptions.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := scanException(s.queryRow(ctx, "SELECT "+exceptionColumns+" FROM exceptions WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return exceptions.ErrNotFound
	}
	if err != nil {
		return err
	}
	u.Apply(&e, s.now())
	return s.writeException(ctx, e, false)
}

func (s *Store) writeException(ctx context.Context, e exceptions.Exception, insert bool) error {
	metadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	if insert {
		return s.exec(ctx, `
			INSERT INTO exceptions (`+exceptionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, e.ID, string(e.Type), string(e.Severity), e.Title, e.Description,
			e.PropertyID, e.ParticipantID, e.ClaimID, e.ReconciliationID, string(e.Status),
			e.AssignedTo, e.ResolvedBy, nullTime(e.ResolvedAt), e.ResolutionNotes,
			string(metadata), formatTime(e.CreatedAt), formatTime(e.UpdatedAt))
	}

	return s.exec(ctx, `
		UPDATE exceptions SET
			severity = ?, description = ?, status = ?, assigned_to = ?, resolved_by = ?,
			resolved_at = ?, resolution_notes = ?, metadata = ?, updated_at = ?
		WHERE id = ?
	`, string(e.Severity), e.Description, string(e.Status), e.AssignedTo, e.ResolvedBy,
		nullTime(e.ResolvedAt), e.ResolutionNotes, string(metadata), formatTime(e.UpdatedAt), e.ID)
}

func (s *Store) GetException(ctx context.Context, id string) (*exceptions.Exception, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, err := scanException(s.queryRow(ctx, "SELECT "+exceptionColumns+" FROM exceptions WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, exceptions.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// FindOpenException returns the oldest active exception of type t linked to
// ref. When p is set, only exceptions whose metadata month and year match
// are considered; the period lives in the JSON metadata so that filter runs
// here rather than in SQL.
func (s *Store) FindOpenException(ctx context.Context, ref exceptions.EntityRef, t exceptions.Type, p *period.Period) (*exceptions.Exception, error) {
	var column string
	switch ref.Type {
	case exceptions.EntityProperty:
		column = "property_id"
	case exceptions.EntityParticipant:
		column = "participant_id"
	case exceptions.EntityClaim:
		column = "claim_id"
	default:
		return nil, fmt.Errorf("unknown entity type %q", ref.Type)
	}

	found, err := s.queryExceptions(ctx, `
		SELECT `+exceptionColumns+` FROM exceptions
		WHERE type = ? AND status IN (?, ?) AND `+column+` = ?
		ORDER BY created_at
	`, string(t), string(exceptions.StatusOpen), string(exceptions.StatusAcknowledged), ref.ID)
	if err != nil {
		return nil, err
	}

	for _, e := range found {
		if p != nil {
			month, okM := e.Metadata.Int("month")
			year, okY := e.Metadata.Int("year")
			if !okM || !okY || month != p.Month || year != p.Year {
				continue
			}
		}
		return &e, nil
	}
	return nil, nil
}

// ListExceptions returns matching exceptions, newest first.
func (s *Store) ListExceptions(ctx context.Context, f exceptions.Filter) ([]exceptions.Exception, error) {
	query := "SELECT " + exceptionColumns + " FROM exceptions WHERE 1 = 1"
	var args []any
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, string(f.Status))
	}
	if f.Severity != "" {
		query += " AND severity = ?"
		args = append(args, string(f.Severity))
	}
	if f.Type != "" {
		query += " AND type = ?"
		args = append(args, string(f.Type))
	}
	return s.queryExceptions(ctx, query+" ORDER BY created_at DESC", args...)
}

func (s *Store) OpenExceptionCounts(ctx context.Context) (exceptions.Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c exceptions.Counts
	rows, err := s.query(ctx,
		"SELECT severity, COUNT(*) FROM exceptions WHERE status = ? GROUP BY severity",
		string(exceptions.StatusOpen))
	if err != nil {
		return c, err
	}
	defer rows.Close()

	for rows.Next() {
		var severity string
		var n int
		if err := rows.Scan(&severity, &n); err != nil {
			return c, err
		}
		for i := 0; i < n; i++ {
			c.Add(exceptions.Severity(severity))
		}
	}
	return c, rows.Err()
}

func (s *Store) queryExceptions(ctx context.Context, query string, args ...any) ([]exceptions.Exception, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []exceptions.Exception{}
	for rows.Next() {
		e, err := scanException(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func scanException(row scanner) (exceptions.Exception, error) {
	var e exceptions.Exception
	var typ, severity, status, metadata, created, updated string
	var resolved sql.NullString
	err := row.Scan(&e.ID, &typ, &severity, &e.Title, &e.Description, &e.PropertyID,
		&e.ParticipantID, &e.ClaimID, &e.ReconciliationID, &status, &e.AssignedTo, &e.ResolvedBy,
		&resolved, &e.ResolutionNotes, &metadata, &created, &updated)
	if err != nil {
		return e, err
	}
	e.Type = exceptions.Type(typ)
	e.Severity = exceptions.Severity(severity)
	e.Status = exceptions.Status(status)
	e.ResolvedAt = timePtr(resolved)
	e.CreatedAt, e.UpdatedAt = parseTime(created), parseTime(updated)

	e.Metadata = exceptions.Metadata{}
	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &e.Metadata); err != nil {
			return e, fmt.Errorf("failed to decode metadata for %s: %w", e.ID, err)
		}
	}
	return e, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jarvis-billing/concentrados-la-28-be-sub000/internal/domain"
)

var (
	// ErrNotFound is returned when no session matches the given id or date.
	ErrNotFound = errors.New("session not found")

	// ErrVersionConflict is returned when a compare-and-swap update loses the
	// race against a concurrent write. The caller should re-read and retry or
	// surface the conflict; the lost write is never applied silently.
	ErrVersionConflict = errors.New("session was modified concurrently")

	// ErrDuplicateDate is returned when an insert collides with the unique
	// session-per-date constraint.
	ErrDuplicateDate = errors.New("a session already exists for this date")
)

// SessionRepo persists reconciliation sessions with their denomination rows.
type SessionRepo struct {
	db *sql.DB
}

func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Insert stores a new session. The session's Version is set to 1.
func (r *SessionRepo) Insert(ctx context.Context, s *domain.ReconciliationSession) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	s.Version = 1
	_, err = tx.ExecContext(ctx,
		`INSERT INTO reconciliation_sessions
		(id, session_date, opening_balance, total_cash_counted,
		 expected_cash_amount, expected_transfer_amount, expected_other_amount,
		 cash_difference, total_income, total_expense, net_cash_flow,
		 status, notes, cancel_reason, created_by, created_at, closed_by, closed_at, version)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		s.ID.String(), string(s.SessionDate), s.OpeningBalance.String(), s.TotalCashCounted.String(),
		s.ExpectedCashAmount.String(), s.ExpectedTransferAmount.String(), s.ExpectedOtherAmount.String(),
		s.CashDifference.String(), s.TotalIncome.String(), s.TotalExpense.String(), s.NetCashFlow.String(),
		string(s.Status), s.Notes, s.CancelReason, s.CreatedBy, s.CreatedAt.Format(time.RFC3339),
		s.ClosedBy, nullableTime(s.ClosedAt), s.Version,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("insert session for %s: %w", s.SessionDate, ErrDuplicateDate)
		}
		return fmt.Errorf("insert session: %w", err)
	}

	if err := insertDenominations(ctx, tx, s); err != nil {
		return err
	}

	return tx.Commit()
}

// Update persists the session if and only if its stored version still matches
// s.Version (compare-and-swap). On success s.Version is incremented; on a lost
// race ErrVersionConflict is returned and nothing is written. Denomination
// rows are replaced atomically with the session row.
func (r *SessionRepo) Update(ctx context.Context, s *domain.ReconciliationSession) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE reconciliation_sessions SET
		 opening_balance = ?, total_cash_counted = ?,
		 expected_cash_amount = ?, expected_transfer_amount = ?, expected_other_amount = ?,
		 cash_difference = ?, total_income = ?, total_expense = ?, net_cash_flow = ?,
		 status = ?, notes = ?, cancel_reason = ?, closed_by = ?, closed_at = ?,
		 version = version + 1
		 WHERE id = ? AND version = ?`,
		s.OpeningBalance.String(), s.TotalCashCounted.String(),
		s.ExpectedCashAmount.String(), s.ExpectedTransferAmount.String(), s.ExpectedOtherAmount.String(),
		s.CashDifference.String(), s.TotalIncome.String(), s.TotalExpense.String(), s.NetCashFlow.String(),
		string(s.Status), s.Notes, s.CancelReason, s.ClosedBy, nullableTime(s.ClosedAt),
		s.ID.String(), s.Version,
	)
	if err != nil {
		return fmt.Errorf("update session %s: %w", s.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		// Either the row is gone or another writer bumped the version.
		var exists int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM reconciliation_sessions WHERE id = ?", s.ID.String(),
		).Scan(&exists); err != nil {
			return fmt.Errorf("check existence: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("update session %s: %w", s.ID, ErrNotFound)
		}
		return fmt.Errorf("update session %s: %w", s.ID, ErrVersionConflict)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM session_denominations WHERE session_id = ?", s.ID.String(),
	); err != nil {
		return fmt.Errorf("clear denominations: %w", err)
	}
	if err := insertDenominations(ctx, tx, s); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.Version++
	return nil
}

func insertDenominations(ctx context.Context, tx *sql.Tx, s *domain.ReconciliationSession) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO session_denominations
		(session_id, position, face_value, kind, quantity, subtotal)
		VALUES (?,?,?,?,?,?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i, d := range s.Denominations {
		if _, err := stmt.ExecContext(ctx,
			s.ID.String(), i, d.FaceValue, string(d.Kind), d.Quantity, d.Subtotal.String(),
		); err != nil {
			return fmt.Errorf("insert denomination %d: %w", i, err)
		}
	}
	return nil
}

const sessionColumns = `id, session_date, opening_balance, total_cash_counted,
	expected_cash_amount, expected_transfer_amount, expected_other_amount,
	cash_difference, total_income, total_expense, net_cash_flow,
	status, notes, cancel_reason, created_by, created_at, closed_by, closed_at, version`

// GetByID loads a session with its denomination rows.
func (r *SessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ReconciliationSession, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM reconciliation_sessions WHERE id = ?", id.String(),
	)
	return r.scanSessionWithDenominations(ctx, row)
}

// GetByDate loads the session for a calendar date, if any.
func (r *SessionRepo) GetByDate(ctx context.Context, date domain.Date) (*domain.ReconciliationSession, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM reconciliation_sessions WHERE session_date = ?", string(date),
	)
	return r.scanSessionWithDenominations(ctx, row)
}

// LatestClosed returns the CLOSED session with the most recent date, or
// ErrNotFound when no session has ever been closed.
func (r *SessionRepo) LatestClosed(ctx context.Context) (*domain.ReconciliationSession, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+` FROM reconciliation_sessions
		 WHERE status = ? ORDER BY session_date DESC LIMIT 1`,
		string(domain.StatusClosed),
	)
	return r.scanSessionWithDenominations(ctx, row)
}

// SessionFilter narrows List results. Nil/empty fields are ignored; the date
// range is inclusive on both ends.
type SessionFilter struct {
	From   domain.Date
	To     domain.Date
	Status domain.SessionStatus
}

// List returns session summaries matching the filter, newest date first.
func (r *SessionRepo) List(ctx context.Context, filter SessionFilter) ([]domain.SessionSummary, error) {
	query := `SELECT id, session_date, status, opening_balance, total_cash_counted,
		cash_difference, net_cash_flow, created_by, closed_by, closed_at
		FROM reconciliation_sessions WHERE 1=1`
	var args []any

	if filter.From != "" {
		query += " AND session_date >= ?"
		args = append(args, string(filter.From))
	}
	if filter.To != "" {
		query += " AND session_date <= ?"
		args = append(args, string(filter.To))
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	query += " ORDER BY session_date DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var summaries []domain.SessionSummary
	for rows.Next() {
		var (
			sum                                       domain.SessionSummary
			id, date, status                          string
			opening, counted, difference, netCashFlow string
			closedAt                                  sql.NullString
		)
		if err := rows.Scan(&id, &date, &status, &opening, &counted,
			&difference, &netCashFlow, &sum.CreatedBy, &sum.ClosedBy, &closedAt); err != nil {
			return nil, err
		}
		if sum.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("bad session id %q: %w", id, err)
		}
		sum.SessionDate = domain.Date(date)
		sum.Status = domain.SessionStatus(status)
		if sum.OpeningBalance, err = parseDecimal(opening); err != nil {
			return nil, err
		}
		if sum.TotalCashCounted, err = parseDecimal(counted); err != nil {
			return nil, err
		}
		if sum.CashDifference, err = parseDecimal(difference); err != nil {
			return nil, err
		}
		if sum.NetCashFlow, err = parseDecimal(netCashFlow); err != nil {
			return nil, err
		}
		if sum.ClosedAt, err = parseNullableTime(closedAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

func (r *SessionRepo) scanSessionWithDenominations(ctx context.Context, row *sql.Row) (*domain.ReconciliationSession, error) {
	var (
		s                                  domain.ReconciliationSession
		id, date, status                   string
		opening, counted                   string
		expCash, expTransfer, expOther     string
		difference, income, expense, net   string
		createdAt                          string
		closedAt                           sql.NullString
	)
	err := row.Scan(&id, &date, &opening, &counted,
		&expCash, &expTransfer, &expOther,
		&difference, &income, &expense, &net,
		&status, &s.Notes, &s.CancelReason, &s.CreatedBy, &createdAt, &s.ClosedBy, &closedAt, &s.Version)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	if s.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("bad session id %q: %w", id, err)
	}
	s.SessionDate = domain.Date(date)
	s.Status = domain.SessionStatus(status)

	for _, field := range []struct {
		dst *decimal.Decimal
		raw string
	}{
		{&s.OpeningBalance, opening},
		{&s.TotalCashCounted, counted},
		{&s.ExpectedCashAmount, expCash},
		{&s.ExpectedTransferAmount, expTransfer},
		{&s.ExpectedOtherAmount, expOther},
		{&s.CashDifference, difference},
		{&s.TotalIncome, income},
		{&s.TotalExpense, expense},
		{&s.NetCashFlow, net},
	} {
		if *field.dst, err = parseDecimal(field.raw); err != nil {
			return nil, err
		}
	}

	if s.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("bad created_at %q: %w", createdAt, err)
	}
	if s.ClosedAt, err = parseNullableTime(closedAt); err != nil {
		return nil, err
	}

	if s.Denominations, err = r.denominationsFor(ctx, s.ID); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepo) denominationsFor(ctx context.Context, id uuid.UUID) ([]domain.DenominationCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT face_value, kind, quantity, subtotal FROM session_denominations
		 WHERE session_id = ? ORDER BY position`,
		id.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query denominations: %w", err)
	}
	defer rows.Close()

	var counts []domain.DenominationCount
	for rows.Next() {
		var (
			d        domain.DenominationCount
			kind     string
			subtotal string
		)
		if err := rows.Scan(&d.FaceValue, &kind, &d.Quantity, &subtotal); err != nil {
			return nil, err
		}
		d.Kind = domain.DenominationKind(kind)
		if d.Subtotal, err = parseDecimal(subtotal); err != nil {
			return nil, err
		}
		counts = append(counts, d)
	}
	return counts, rows.Err()
}

// --- scan helpers ---

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("bad amount %q: %w", s, err)
	}
	return d, nil
}

func parseNullableTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil, fmt.Errorf("bad timestamp %q: %w", ns.String, err)
	}
	return &t, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

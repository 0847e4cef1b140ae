package storage

import (
	"context"
	"database/sql"
	"errors"
	"iter"
	"log/slog"
	"strconv"
	"strings"

	"igreja/internal/core"
)

const entryColumns = `
e.id, e.member_id, m.name, e.competency_year, e.competency_month, e.tithe_cents, e.offering_cents,
e.payment_date, e.payment_method, e.notes, e.created_at, e.updated_at`

const entryFrom = `
FROM ledger_entries e
JOIN members m ON m.id = e.member_id`

func scanEntry(s rowScanner) (core.LedgerEntry, error) {
	var (
		e                    core.LedgerEntry
		paymentDate          sql.NullString
		method               string
		createdAt, updatedAt string
	)
	err := s.Scan(
		&e.ID, &e.MemberID, &e.MemberName, &e.Competency.Year, &e.Competency.Month,
		&e.Tithe.Cents, &e.Offering.Cents, &paymentDate, &method, &e.Notes, &createdAt, &updatedAt,
	)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	if e.PaymentDate, err = scanDate(paymentDate); err != nil {
		return core.LedgerEntry{}, err
	}
	e.PaymentMethod = core.PaymentMethod(method)
	e.CreatedAt = parseTimestamp(createdAt)
	e.UpdatedAt = parseTimestamp(updatedAt)
	return e, nil
}

// InsertEntry stores a new ledger entry. A second entry for the same member
// and competency fails with a DuplicateError on ConstraintLedgerCompetency.
func (r *SQLiteRepository) InsertEntry(ctx context.Context, e core.LedgerEntry) (core.LedgerEntry, error) {
	now := r.timestamp()
	res, err := r.db.ExecContext(ctx, `
INSERT INTO ledger_entries (
    member_id, competency, competency_year, competency_month, tithe_cents, offering_cents,
    payment_date, payment_method, notes, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.MemberID, e.Competency.FirstDay().String(), e.Competency.Year, e.Competency.Month,
		e.Tithe.Cents, e.Offering.Cents, nullDate(e.PaymentDate), string(e.PaymentMethod), e.Notes, now, now,
	)
	if err != nil {
		return core.LedgerEntry{}, classifyLedgerWrite("insert ledger entry", e, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.LedgerEntry{}, storeErr("insert ledger entry", err)
	}

	slog.InfoContext(ctx, "Ledger entry saved",
		"entry_id", id,
		"member_id", e.MemberID,
		"competency", e.Competency.String())

	return r.getEntry(ctx, "insert ledger entry", `e.id = ?`, id)
}

// UpdateEntryByKey overwrites the amounts, payment date, method and notes of
// the entry identified by member and competency.
func (r *SQLiteRepository) UpdateEntryByKey(ctx context.Context, e core.LedgerEntry) (core.LedgerEntry, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE ledger_entries SET
    tithe_cents = ?, offering_cents = ?, payment_date = ?, payment_method = ?, notes = ?, updated_at = ?
WHERE member_id = ? AND competency_year = ? AND competency_month = ?`,
		e.Tithe.Cents, e.Offering.Cents, nullDate(e.PaymentDate), string(e.PaymentMethod), e.Notes, r.timestamp(),
		e.MemberID, e.Competency.Year, e.Competency.Month,
	)
	if err != nil {
		return core.LedgerEntry{}, classifyLedgerWrite("update ledger entry", e, err)
	}
	notFound := &core.NotFoundError{Entity: "ledger entry", ID: strconv.FormatInt(e.MemberID, 10) + "/" + e.Competency.String()}
	if err := requireAffected(res, "update ledger entry", notFound); err != nil {
		return core.LedgerEntry{}, err
	}

	slog.InfoContext(ctx, "Ledger entry updated",
		"member_id", e.MemberID,
		"competency", e.Competency.String())

	return r.getEntry(ctx, "update ledger entry",
		`e.member_id = ? AND e.competency_year = ? AND e.competency_month = ?`,
		e.MemberID, e.Competency.Year, e.Competency.Month)
}

// DeleteEntry removes an entry and returns it as it was.
func (r *SQLiteRepository) DeleteEntry(ctx context.Context, id int64) (core.LedgerEntry, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.LedgerEntry{}, storeErr("delete ledger entry", err)
	}
	defer tx.Rollback()

	e, err := scanEntry(tx.QueryRowContext(ctx, `SELECT `+entryColumns+entryFrom+` WHERE e.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.LedgerEntry{}, entryNotFound(id)
	}
	if err != nil {
		return core.LedgerEntry{}, storeErr("delete ledger entry", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_entries WHERE id = ?`, id); err != nil {
		return core.LedgerEntry{}, storeErr("delete ledger entry", err)
	}
	if err := tx.Commit(); err != nil {
		return core.LedgerEntry{}, storeErr("delete ledger entry", err)
	}

	slog.InfoContext(ctx, "Ledger entry deleted", "entry_id", id, "member_id", e.MemberID)
	return e, nil
}

// Entries streams the entries matching f, ordered by member name, year,
// month and id. Each range runs a fresh query; rows are read as the caller
// consumes them.
func (r *SQLiteRepository) Entries(ctx context.Context, f core.EntryFilter) iter.Seq2[core.LedgerEntry, error] {
	query, args := entriesQuery(f)
	return func(yield func(core.LedgerEntry, error) bool) {
		rows, err := r.db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(core.LedgerEntry{}, storeErr("list ledger entries", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			e, err := scanEntry(rows)
			if err != nil {
				yield(core.LedgerEntry{}, storeErr("list ledger entries", err))
				return
			}
			if !yield(e, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(core.LedgerEntry{}, storeErr("list ledger entries", err))
		}
	}
}

func entriesQuery(f core.EntryFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if f.Year != 0 {
		where = append(where, "e.competency_year = ?")
		args = append(args, f.Year)
	}
	if f.Month != 0 {
		where = append(where, "e.competency_month = ?")
		args = append(args, f.Month)
	}
	if name := strings.TrimSpace(f.MemberNameContains); name != "" {
		where = append(where, "instr(fold(m.name), ?) > 0")
		args = append(args, foldName(name))
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(entryColumns)
	b.WriteString(entryFrom)
	if len(where) > 0 {
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString("\nORDER BY fold(m.name), e.competency_year, e.competency_month, e.id")
	return b.String(), args
}

func (r *SQLiteRepository) getEntry(ctx context.Context, op, where string, args ...any) (core.LedgerEntry, error) {
	e, err := scanEntry(r.db.QueryRowContext(ctx, `SELECT `+entryColumns+entryFrom+` WHERE `+where, args...))
	if err != nil {
		return core.LedgerEntry{}, storeErr(op, err)
	}
	return e, nil
}

func entryNotFound(id int64) error {
	return &core.NotFoundError{Entity: "ledger entry", ID: strconv.FormatInt(id, 10)}
}

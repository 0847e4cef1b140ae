package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strconv"

	"igreja/internal/core"
)

const memberColumns = `
id, COALESCE(registration_number, ''), name, photo, ministry, address, phone, email,
sex, birth_date, marital_status, spouse_name, discipline_start, discipline_end,
admission_date, admission_type, departure_date, departure_reason, birth_month`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(s rowScanner) (core.Member, error) {
	var (
		m                                   core.Member
		birth, discStart, discEnd           sql.NullString
		admission, departure                sql.NullString
		sex, marital, admType, departReason string
	)
	err := s.Scan(
		&m.ID, &m.RegistrationNumber, &m.Name, &m.Photo, &m.Ministry, &m.Address, &m.Phone, &m.Email,
		&sex, &birth, &marital, &m.SpouseName, &discStart, &discEnd,
		&admission, &admType, &departure, &departReason, &m.BirthMonth,
	)
	if err != nil {
		return core.Member{}, err
	}
	m.Sex = core.Sex(sex)
	m.MaritalStatus = core.MaritalStatus(marital)
	m.AdmissionType = core.AdmissionType(admType)
	m.DepartureReason = core.DepartureReason(departReason)

	dates := []struct {
		src sql.NullString
		dst *core.Date
	}{
		{birth, &m.BirthDate},
		{discStart, &m.DisciplineStart},
		{discEnd, &m.DisciplineEnd},
		{admission, &m.AdmissionDate},
		{departure, &m.DepartureDate},
	}
	for _, d := range dates {
		parsed, err := scanDate(d.src)
		if err != nil {
			return core.Member{}, err
		}
		*d.dst = parsed
	}
	return m, nil
}

// InsertMember stores a new member and returns its id.
func (r *SQLiteRepository) InsertMember(ctx context.Context, m core.Member) (int64, error) {
	now := r.timestamp()
	res, err := r.db.ExecContext(ctx, `
INSERT INTO members (
    registration_number, name, photo, ministry, address, phone, email, sex, birth_date, birth_month,
    marital_status, spouse_name, discipline_start, discipline_end, admission_date, admission_type,
    departure_date, departure_reason, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullText(m.RegistrationNumber), m.Name, nullBlob(m.Photo), m.Ministry, m.Address, m.Phone, m.Email,
		string(m.Sex), nullDate(m.BirthDate), m.BirthMonth, string(m.MaritalStatus), m.SpouseName,
		nullDate(m.DisciplineStart), nullDate(m.DisciplineEnd), nullDate(m.AdmissionDate), string(m.AdmissionType),
		nullDate(m.DepartureDate), string(m.DepartureReason), now, now,
	)
	if err != nil {
		return 0, classifyMemberWrite("insert member", m, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr("insert member", err)
	}
	slog.InfoContext(ctx, "Member saved", "member_id", id)
	return id, nil
}

// UpdateMember rewrites a member's fields. A nil photo keeps the stored one.
func (r *SQLiteRepository) UpdateMember(ctx context.Context, m core.Member) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE members SET
    registration_number = ?, name = ?, photo = COALESCE(?, photo), ministry = ?, address = ?,
    phone = ?, email = ?, sex = ?, birth_date = ?, birth_month = ?, marital_status = ?,
    spouse_name = ?, discipline_start = ?, discipline_end = ?, admission_date = ?,
    admission_type = ?, departure_date = ?, departure_reason = ?, updated_at = ?
WHERE id = ?`,
		nullText(m.RegistrationNumber), m.Name, nullBlob(m.Photo), m.Ministry, m.Address,
		m.Phone, m.Email, string(m.Sex), nullDate(m.BirthDate), m.BirthMonth, string(m.MaritalStatus),
		m.SpouseName, nullDate(m.DisciplineStart), nullDate(m.DisciplineEnd), nullDate(m.AdmissionDate),
		string(m.AdmissionType), nullDate(m.DepartureDate), string(m.DepartureReason), r.timestamp(),
		m.ID,
	)
	if err != nil {
		return classifyMemberWrite("update member", m, err)
	}
	return requireAffected(res, "update member", memberNotFound(m.ID))
}

// SetMemberPhoto replaces the photo; nil clears it.
func (r *SQLiteRepository) SetMemberPhoto(ctx context.Context, id int64, photo []byte) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE members SET photo = ?, updated_at = ? WHERE id = ?`,
		nullBlob(photo), r.timestamp(), id,
	)
	if err != nil {
		return storeErr("set member photo", err)
	}
	return requireAffected(res, "set member photo", memberNotFound(id))
}

// DeleteMember removes a member and, through the foreign key cascade, its
// ledger entries. It returns the years that had entries.
func (r *SQLiteRepository) DeleteMember(ctx context.Context, id int64) ([]int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr("delete member", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT DISTINCT competency_year FROM ledger_entries WHERE member_id = ? ORDER BY competency_year`, id)
	if err != nil {
		return nil, storeErr("delete member", err)
	}
	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			rows.Close()
			return nil, storeErr("delete member", err)
		}
		years = append(years, y)
	}
	if err := rows.Close(); err != nil {
		return nil, storeErr("delete member", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return nil, storeErr("delete member", err)
	}
	if err := requireAffected(res, "delete member", memberNotFound(id)); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, storeErr("delete member", err)
	}

	slog.InfoContext(ctx, "Member deleted", "member_id", id, "ledger_years", years)
	return years, nil
}

// GetMember returns one member, photo included.
func (r *SQLiteRepository) GetMember(ctx context.Context, id int64) (core.Member, error) {
	m, err := scanMember(r.db.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM members WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Member{}, memberNotFound(id)
	}
	if err != nil {
		return core.Member{}, storeErr("get member", err)
	}
	return m, nil
}

// ListMembers returns every member ordered by name.
func (r *SQLiteRepository) ListMembers(ctx context.Context) ([]core.Member, error) {
	return r.queryMembers(ctx, "list members",
		`SELECT `+memberColumns+` FROM members ORDER BY fold(name), id`)
}

// MembersByBirthMonth returns the members born in month, ordered by birthday.
func (r *SQLiteRepository) MembersByBirthMonth(ctx context.Context, month int) ([]core.Member, error) {
	return r.queryMembers(ctx, "members by birth month",
		`SELECT `+memberColumns+` FROM members WHERE birth_month = ?
ORDER BY substr(birth_date, 9, 2), fold(name), id`, month)
}

func (r *SQLiteRepository) queryMembers(ctx context.Context, op, query string, args ...any) ([]core.Member, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer rows.Close()

	members := []core.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, storeErr(op, err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(op, err)
	}
	return members, nil
}

func memberNotFound(id int64) error {
	return &core.NotFoundError{Entity: "member", ID: strconv.FormatInt(id, 10)}
}

func requireAffected(res sql.Result, op string, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr(op, err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

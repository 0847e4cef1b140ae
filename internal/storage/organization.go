package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"igreja/internal/core"
)

const selectOrganization = `
SELECT tax_id, address, founded_on, logo, pastor_name, pastor_start, pastor_end
FROM organization WHERE id = 1`

// GetOrganization returns the organization profile; ok is false when none is stored.
func (r *SQLiteRepository) GetOrganization(ctx context.Context) (core.Organization, bool, error) {
	var org core.Organization
	var founded, pastorStart, pEnd sql.NullString
	err := r.db.QueryRowContext(ctx, selectOrganization).Scan(
		&org.TaxID, &org.Address, &founded, &org.Logo, &org.PastorName, &pastorStart, &pEnd,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Organization{}, false, nil
	}
	if err != nil {
		return core.Organization{}, false, storeErr("get organization", err)
	}
	for _, f := range []struct {
		src sql.NullString
		dst *core.Date
	}{{founded, &org.FoundedOn}, {pastorStart, &org.PastorStart}, {pEnd, &org.PastorEnd}} {
		d, err := scanDate(f.src)
		if err != nil {
			return core.Organization{}, false, storeErr("get organization", err)
		}
		*f.dst = d
	}
	return org, true, nil
}

// SaveOrganization writes the single organization row, inserting it when absent.
func (r *SQLiteRepository) SaveOrganization(ctx context.Context, org core.Organization) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, storeErr("save organization", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM organization WHERE id = 1`).Scan(&exists); err != nil {
		return false, storeErr("save organization", err)
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO organization (id, tax_id, address, founded_on, logo, pastor_name, pastor_start, pastor_end, updated_at)
VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    tax_id = excluded.tax_id,
    address = excluded.address,
    founded_on = excluded.founded_on,
    logo = excluded.logo,
    pastor_name = excluded.pastor_name,
    pastor_start = excluded.pastor_start,
    pastor_end = excluded.pastor_end,
    updated_at = excluded.updated_at`,
		org.TaxID, org.Address, nullDate(org.FoundedOn), nullBlob(org.Logo),
		org.PastorName, nullDate(org.PastorStart), nullDate(org.PastorEnd), r.timestamp(),
	)
	if err != nil {
		return false, storeErr("save organization", err)
	}
	if err := tx.Commit(); err != nil {
		return false, storeErr("save organization", err)
	}

	created := exists == 0
	slog.InfoContext(ctx, "Organization saved", "tax_id", org.TaxID, "created", created)
	return created, nil
}

// DeleteOrganization removes the profile, logo included. Deleting an absent
// profile is not an error.
func (r *SQLiteRepository) DeleteOrganization(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM organization WHERE id = 1`); err != nil {
		return storeErr("delete organization", err)
	}
	slog.InfoContext(ctx, "Organization deleted")
	return nil
}

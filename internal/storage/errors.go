package storage

import (
	"errors"

	"igreja/internal/core"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// resultCode extracts the extended SQLite result code, or 0 when err did not
// come from the driver.
func resultCode(err error) int {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()
	}
	return 0
}

func isUniqueViolation(err error) bool {
	code := resultCode(err)
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func isForeignKeyViolation(err error) bool {
	return resultCode(err) == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

func storeErr(op string, err error) error {
	return &core.StoreError{Op: op, Err: err}
}

// classifyLedgerWrite maps a failed write on ledger_entries. The only unique
// index on the table is the member/competency key.
func classifyLedgerWrite(op string, e core.LedgerEntry, err error) error {
	switch {
	case isUniqueViolation(err):
		return &core.DuplicateError{
			Constraint: core.ConstraintLedgerCompetency,
			Value:      e.Competency.String(),
		}
	case isForeignKeyViolation(err):
		return &core.ReferenceError{Entity: "member", ID: e.MemberID}
	default:
		return storeErr(op, err)
	}
}

// classifyMemberWrite maps a failed write on members, whose only unique index
// is the registration number.
func classifyMemberWrite(op string, m core.Member, err error) error {
	if isUniqueViolation(err) {
		return &core.DuplicateError{
			Constraint: core.ConstraintRegistrationNumber,
			Value:      m.RegistrationNumber,
		}
	}
	return storeErr(op, err)
}

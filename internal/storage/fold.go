package storage

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"modernc.org/sqlite"
)

// foldFunc is the SQL name of the Unicode lower-casing used for member name
// matching and ordering. SQLite's own lower() and NOCASE only fold ASCII.
const foldFunc = "fold"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(foldFunc, 1, fold)
}

func fold(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return foldName(v), nil
	case []byte:
		return foldName(string(v)), nil
	default:
		return nil, fmt.Errorf("%s: unsupported argument %T", foldFunc, v)
	}
}

// foldName is the Go side of fold, applied to filter arguments.
func foldName(s string) string {
	return strings.ToLower(s)
}

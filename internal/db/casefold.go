package db

import (
	"database/sql/driver"

	"golang.org/x/text/cases"
	"modernc.org/sqlite"
)

// SQLite's LIKE only folds ASCII letters; searches compare casefold(column)
// against a pattern folded the same way.
func init() {
	sqlite.MustRegisterDeterministicScalarFunction("casefold", 1, casefoldSQL)
}

func casefoldSQL(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return foldCase(v), nil
	case []byte:
		return foldCase(string(v)), nil
	default:
		return v, nil
	}
}

var folder = cases.Fold()

// foldCase applies Unicode case folding.
func foldCase(s string) string {
	return folder.String(s)
}

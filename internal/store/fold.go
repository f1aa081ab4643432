package store

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"modernc.org/sqlite"
)

// foldFunc is the SQL name of the Unicode case fold used by searches.
// SQLite's own lower() and LIKE only fold ASCII.
const foldFunc = "stickers_fold"

func init() {
	if err := sqlite.RegisterDeterministicScalarFunction(foldFunc, 1, fold); err != nil {
		panic(fmt.Sprintf("store: register %s: %v", foldFunc, err))
	}
}

func fold(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return foldString(v), nil
	case []byte:
		return foldString(string(v)), nil
	default:
		return foldString(fmt.Sprint(v)), nil
	}
}

func foldString(s string) string {
	return strings.ToLower(strings.ToUpper(s))
}

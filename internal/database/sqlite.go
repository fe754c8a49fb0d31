package database

import (
	"database/sql"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"
)

// sqliteDriverName is go-sqlite3 with lower() replaced by a Unicode-aware
// version, so LOWER(x) LIKE LOWER(?) folds "É" like PostgreSQL does.
const sqliteDriverName = "sqlite3_sitehub"

var registerSQLite sync.Once

func sqliteDriver() string {
	registerSQLite.Do(func() {
		sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc("lower", unicodeLower, true)
			},
		})
	})
	return sqliteDriverName
}

// unicodeLower lower-cases text values and passes NULL and blobs through.
func unicodeLower(v any) any {
	if s, ok := v.(string); ok {
		return strings.ToLower(s)
	}
	return v
}

package sqlstore

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"

	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Dialect selects the database backend. SQLite is the default and what the
// tests run against; MySQL is the original production backend.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
)

// ParseDialect accepts the DB_DRIVER values, including common aliases.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sqlite", "sqlite3":
		return SQLite, nil
	case "mysql", "mariadb":
		return MySQL, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	}
	return "", fmt.Errorf("sqlstore: unknown database driver %q", s)
}

// driverName is the database/sql driver registered for the dialect.
func (d Dialect) driverName() string {
	if d == Postgres {
		return "pgx"
	}
	return string(d)
}

// gooseDialect is the name goose knows the dialect by.
func (d Dialect) gooseDialect() string {
	if d == SQLite {
		return "sqlite3"
	}
	return string(d)
}

// lockClause is appended to the read half of a read-modify-write so
// concurrent updates of the same row serialise. SQLite serialises writers
// already and has no row locks.
func (d Dialect) lockClause() string {
	if d == SQLite {
		return ""
	}
	return " FOR UPDATE"
}

// returningID reports whether INSERT must use RETURNING id instead of
// LastInsertId, which pgx does not support.
func (d Dialect) returningID() bool {
	return d == Postgres
}

// isUniqueViolation recognises each driver's duplicate-key error.
func (d Dialect) isUniqueViolation(err error) bool {
	switch d {
	case MySQL:
		var myErr *mysql.MySQLError
		return errors.As(err, &myErr) && myErr.Number == 1062
	case Postgres:
		var pgErr *pgconn.PgError
		return errors.As(err, &pgErr) && pgErr.Code == "23505"
	default:
		var liteErr *sqlite.Error
		return errors.As(err, &liteErr) && strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
	}
}

// normalizeDSN applies the settings the store depends on.
//
//   - sqlite: foreign keys on (per connection) and a busy timeout; WAL for
//     file databases. Pragmas the DSN already sets are kept as given.
//   - mysql: parseTime so DATETIME scans into time.Time, in UTC.
func (d Dialect) normalizeDSN(dsn string) (string, error) {
	switch d {
	case SQLite:
		base, query, _ := strings.Cut(dsn, "?")
		values, err := url.ParseQuery(query)
		if err != nil {
			return "", fmt.Errorf("sqlstore: parsing sqlite dsn: %w", err)
		}

		set := make(map[string]bool)
		for _, p := range values["_pragma"] {
			name, _, _ := strings.Cut(p, "(")
			set[strings.ToLower(strings.TrimSpace(name))] = true
		}

		var add []string
		for _, p := range sqlitePragmas(base, values) {
			name, _, _ := strings.Cut(p, "(")
			if !set[name] {
				add = append(add, "_pragma="+p)
			}
		}
		if len(add) == 0 {
			return dsn, nil
		}

		sep := "?"
		if query != "" {
			sep = "&"
		}
		return dsn + sep + strings.Join(add, "&"), nil
	case MySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", fmt.Errorf("sqlstore: parsing mysql dsn: %w", err)
		}
		cfg.ParseTime = true
		cfg.Loc = time.UTC
		return cfg.FormatDSN(), nil
	default:
		return dsn, nil
	}
}

// sqlitePragmas lists the pragmas every SQLite connection needs. WAL is
// skipped for in-memory databases.
func sqlitePragmas(base string, values url.Values) []string {
	pragmas := []string{"foreign_keys(1)", "busy_timeout(5000)"}
	if !strings.Contains(base, ":memory:") && values.Get("mode") != "memory" {
		pragmas = append(pragmas, "journal_mode(WAL)")
	}
	return pragmas
}

// MySQLDSN builds a DSN from the discrete MYSQL_* settings.
func MySQLDSN(user, password, host, port, database string) string {
	cfg := mysql.NewConfig()
	cfg.User = user
	cfg.Passwd = password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(host, port)
	cfg.DBName = database
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN()
}

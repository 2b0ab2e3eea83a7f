package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/scholarnav/internal/model"
)

// FileName is the database file created inside the data directory.
const FileName = "proxies.db"

// ProxyDB stores validated free proxies so that the free-proxies mode can
// start from the last known-good set instead of re-harvesting every list.
type ProxyDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures ProxyDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a ProxyDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*ProxyDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	pdb := &ProxyDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := pdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return pdb, nil
}

// Path returns the database file path.
func (pdb *ProxyDB) Path() string {
	return pdb.dbPath
}

// Close closes the database connection.
func (pdb *ProxyDB) Close() error {
	return pdb.db.Close()
}

func (pdb *ProxyDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS proxies (
		address TEXT PRIMARY KEY,
		host TEXT NOT NULL,
		port INTEGER NOT NULL,
		protocol TEXT NOT NULL,
		country TEXT,
		source TEXT,
		latency_ms INTEGER DEFAULT 0,
		failures INTEGER DEFAULT 0,
		checked_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_proxies_checked ON proxies(checked_at);
	CREATE INDEX IF NOT EXISTS idx_proxies_latency ON proxies(latency_ms);
	`

	_, err := pdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveProxies upserts validated proxies and clears their failure counts.
func (pdb *ProxyDB) SaveProxies(ctx context.Context, proxies []model.Proxy) error {
	if len(proxies) == 0 {
		return nil
	}

	tx, err := pdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT INTO proxies (address, host, port, protocol, country, source, latency_ms, failures, checked_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)
	ON CONFLICT(address) DO UPDATE SET
		protocol = excluded.protocol,
		country = excluded.country,
		source = excluded.source,
		latency_ms = excluded.latency_ms,
		failures = 0,
		checked_at = excluded.checked_at
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range proxies {
		checked := p.CheckedAt
		if checked.IsZero() {
			checked = time.Now()
		}
		_, err := stmt.ExecContext(ctx,
			p.Address(),
			p.Host,
			p.Port,
			p.Protocol,
			p.Country,
			p.Source,
			p.Latency.Milliseconds(),
			checked.UTC().Format(timestampFormats[0]),
		)
		if err != nil {
			return fmt.Errorf("failed to save proxy %s: %w", p.Address(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit proxies: %w", err)
	}
	return nil
}

// ListProxies returns stored proxies checked within maxAge, fastest first.
// A zero maxAge returns every stored proxy.
func (pdb *ProxyDB) ListProxies(ctx context.Context, maxAge time.Duration) ([]model.Proxy, error) {
	query := `
	SELECT host, port, protocol, country, source, latency_ms, checked_at
	FROM proxies
	`
	args := make([]any, 0, 1)
	if maxAge > 0 {
		query += " WHERE checked_at > datetime('now', ?)"
		args = append(args, fmt.Sprintf("-%d seconds", int(maxAge.Seconds())))
	}
	query += " ORDER BY latency_ms ASC, address ASC"

	rows, err := pdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list proxies: %w", err)
	}
	defer rows.Close()

	var results []model.Proxy
	for rows.Next() {
		var (
			p         model.Proxy
			country   sql.NullString
			source    sql.NullString
			latencyMS int64
			checkedAt string
		)
		if err := rows.Scan(&p.Host, &p.Port, &p.Protocol, &country, &source, &latencyMS, &checkedAt); err != nil {
			return nil, fmt.Errorf("failed to scan proxy: %w", err)
		}
		p.Country = country.String
		p.Source = source.String
		p.Latency = time.Duration(latencyMS) * time.Millisecond
		p.CheckedAt = parseTimestamp(checkedAt)
		results = append(results, p)
	}

	return results, rows.Err()
}

// RecordFailure increments the failure count of a stored proxy and deletes
// it once the count reaches maxFailures. It reports whether the proxy was
// removed. Unknown addresses are ignored.
func (pdb *ProxyDB) RecordFailure(ctx context.Context, address string, maxFailures int) (bool, error) {
	if _, err := pdb.db.ExecContext(ctx, `UPDATE proxies SET failures = failures + 1 WHERE address = ?`, address); err != nil {
		return false, fmt.Errorf("failed to record proxy failure: %w", err)
	}
	if maxFailures <= 0 {
		return false, nil
	}

	result, err := pdb.db.ExecContext(ctx, `DELETE FROM proxies WHERE address = ? AND failures >= ?`, address, maxFailures)
	if err != nil {
		return false, fmt.Errorf("failed to remove failing proxy: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to remove failing proxy: %w", err)
	}
	return n > 0, nil
}

// DeleteProxy removes a proxy by address.
func (pdb *ProxyDB) DeleteProxy(ctx context.Context, address string) error {
	if _, err := pdb.db.ExecContext(ctx, `DELETE FROM proxies WHERE address = ?`, address); err != nil {
		return fmt.Errorf("failed to delete proxy: %w", err)
	}
	return nil
}

// Count returns the number of stored proxies.
func (pdb *ProxyDB) Count(ctx context.Context) (int, error) {
	var n int
	if err := pdb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM proxies`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count proxies: %w", err)
	}
	return n, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The first entry is also the format used when writing.
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp tries each known format and returns the zero time when
// none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

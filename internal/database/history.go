package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/couponscout/internal/model"
)

// FileName is the database file name inside the database directory.
const FileName = "couponscout.db"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// HistoryDB stores scan runs and found coupons.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if missing.
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

// Open opens or creates the history database in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error wrapping
// ErrNotFound is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	} else if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("database %s: %w", dbPath, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to check database path: %w", err)
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

func (h *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		subreddit TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		fetched INTEGER NOT NULL DEFAULT 0,
		examined INTEGER NOT NULL DEFAULT 0,
		found INTEGER NOT NULL DEFAULT 0,
		lookup_failures INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- One row per course; the first run that found it wins.
	CREATE TABLE IF NOT EXISTS coupons (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fingerprint TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		url TEXT NOT NULL,
		subreddit TEXT NOT NULL,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		found_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_coupons_found ON coupons(found_at);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// Fingerprint returns the hex SHA3-256 digest of a normalized title.
// Titles that normalize to the same folded NFC text share a fingerprint.
//
// Design decision: We normalize to NFC and apply full Unicode case folding
// instead of strings.ToLower. Reddit posts the same title with precomposed
// or combining accents depending on the poster's keyboard, and folding maps
// forms like "ß" and "SS" together where lowercasing does not. The whitelist
// and output file still use exact titles; only history matching is loose.
func Fingerprint(title string) string {
	collapsed := strings.Join(strings.Fields(title), " ")
	normalized := cases.Fold().String(norm.NFC.String(collapsed))
	sum := sha3.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// TitleSet is a set of title fingerprints.
type TitleSet map[string]struct{}

// Has reports whether title's fingerprint is in the set.
func (s TitleSet) Has(title string) bool {
	_, ok := s[Fingerprint(title)]
	return ok
}

// SaveRun records report and its coupons in one transaction and returns the
// run ID. Coupons whose title was recorded before are left unchanged.
func (h *HistoryDB) SaveRun(ctx context.Context, report *model.RunReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
	INSERT INTO runs (subreddit, started_at, finished_at, fetched, examined, found, lookup_failures, error, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.Subreddit,
		formatTimestamp(report.StartedAt),
		formatTimestamp(report.FinishedAt),
		report.Fetched,
		report.Examined,
		report.Found.Len(),
		report.LookupFailures,
		report.Error,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	foundAt := report.FinishedAt
	if foundAt.IsZero() {
		foundAt = report.StartedAt
	}

	for _, title := range report.Found.Titles() {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO coupons (fingerprint, title, url, subreddit, run_id, found_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
		`,
			Fingerprint(title),
			title,
			report.Found[title],
			report.Subreddit,
			runID,
			formatTimestamp(foundAt),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert coupon %q: %w", title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// ListCoupons returns recorded coupons, newest first.
// A limit of zero or less returns all of them.
func (h *HistoryDB) ListCoupons(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	query := `
	SELECT title, url, subreddit, found_at
	FROM coupons
	ORDER BY found_at DESC, id DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query coupons: %w", err)
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		var foundAt string
		if err := rows.Scan(&e.Title, &e.URL, &e.Subreddit, &foundAt); err != nil {
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		e.FoundAt = parseTimestamp(foundAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate coupons: %w", err)
	}
	return entries, nil
}

// SeenTitles returns the fingerprints of every recorded coupon.
func (h *HistoryDB) SeenTitles(ctx context.Context) (TitleSet, error) {
	rows, err := h.db.QueryContext(ctx, "SELECT fingerprint FROM coupons")
	if err != nil {
		return nil, fmt.Errorf("failed to query fingerprints: %w", err)
	}
	defer rows.Close()

	set := make(TitleSet)
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, fmt.Errorf("failed to scan fingerprint: %w", err)
		}
		set[fp] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fingerprints: %w", err)
	}
	return set, nil
}

// LatestRun returns the report of the most recent run.
// It returns ErrNotFound when no run was recorded.
func (h *HistoryDB) LatestRun(ctx context.Context) (*model.RunReport, error) {
	var reportJSON string
	err := h.db.QueryRowContext(ctx, `
	SELECT report_json FROM runs ORDER BY started_at DESC, id DESC LIMIT 1
	`).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	var report model.RunReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	if report.Found == nil {
		report.Found = make(model.Coupons)
	}
	return &report, nil
}

// RunCount returns the number of recorded runs.
func (h *HistoryDB) RunCount(ctx context.Context) (int, error) {
	var n int
	if err := h.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return n, nil
}

// timestampLayout sorts lexically in time order for UTC values.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timestampLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
}

// parseTimestamp parses s with the known formats and returns the zero time
// if none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

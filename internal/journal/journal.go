package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultPath is the default journal location
const DefaultPath = "/var/lib/drivescan/journal.db"

// ErrNewerSchema is returned when the journal was written by a newer drivescan
var ErrNewerSchema = errors.New("journal schema is newer than this build")

// migrations are applied in order; migrations[i] brings the schema to i+1
var migrations = []string{
	migrationV1,
}

// Journal is a SQLite log of the devices a scanner has reported
type Journal struct {
	conn *sql.DB
	path string
}

// Open opens or creates the journal at the given path
func Open(path string) (*Journal, error) {
	if path == "" {
		path = DefaultPath
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	// One writer; keeps transactions and plain statements from contending
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to configure journal: %w", err)
	}

	j := &Journal{conn: conn, path: path}

	if err := j.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return j, nil
}

// Close closes the database connection
func (j *Journal) Close() error {
	return j.conn.Close()
}

// Path returns the database file path
func (j *Journal) Path() string {
	return j.path
}

// SchemaVersion returns the highest applied migration
func (j *Journal) SchemaVersion() (int, error) {
	var version int
	err := j.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	return version, err
}

// migrate brings the schema up to date. A journal from a newer build is left
// untouched so its history is not misread.
func (j *Journal) migrate() error {
	_, err := j.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	current, err := j.SchemaVersion()
	if err != nil {
		return err
	}
	if current > len(migrations) {
		return fmt.Errorf("%w: version %d, expected at most %d", ErrNewerSchema, current, len(migrations))
	}

	for v := current + 1; v <= len(migrations); v++ {
		if err := j.apply(v, migrations[v-1]); err != nil {
			return err
		}
	}

	applied, err := j.SchemaVersion()
	if err != nil {
		return err
	}
	if applied != len(migrations) {
		return fmt.Errorf("journal schema at version %d after migrating, want %d", applied, len(migrations))
	}
	return nil
}

// apply runs one migration and records its version in the same transaction
func (j *Journal) apply(v int, migration string) error {
	tx, err := j.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(migration); err != nil {
		return fmt.Errorf("migration v%d failed: %w", v, err)
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", v); err != nil {
		return fmt.Errorf("migration v%d not recorded: %w", v, err)
	}
	return tx.Commit()
}

// migrationV1 creates the initial schema
const migrationV1 = `
-- Every device ever reported, with its last known details
CREATE TABLE IF NOT EXISTS devices (
    identity TEXT PRIMARY KEY,
    device_path TEXT,
    display_name TEXT,
    description TEXT,
    size TEXT,
    size_bytes INTEGER,
    removable INTEGER DEFAULT 0,
    present INTEGER DEFAULT 0,
    first_seen TIMESTAMP,
    last_seen TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_devices_present ON devices(present);

-- Scanner notifications in the order they were received
CREATE TABLE IF NOT EXISTS device_events (
    id INTEGER PRIMARY KEY,
    run_id TEXT NOT NULL,
    cycle INTEGER NOT NULL,
    event_type TEXT NOT NULL,
    identity TEXT,
    display_name TEXT,
    details TEXT,
    timestamp TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_events_identity ON device_events(identity);
CREATE INDEX IF NOT EXISTS idx_events_type ON device_events(event_type);
`

// DeviceRecord is a device row
type DeviceRecord struct {
	Identity    string
	DevicePath  string
	DisplayName string
	Description string
	Size        string
	SizeBytes   *int64
	Removable   bool
	Present     bool
	FirstSeen   time.Time
	LastSeen    time.Time
}

// EventRecord is a device_events row
type EventRecord struct {
	ID          int64
	RunID       string
	Cycle       uint64
	EventType   string
	Identity    string
	DisplayName string
	Details     string
	Timestamp   time.Time
}

package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sigreer/drivescan/internal/device"
)

// execer is satisfied by *sql.DB and *sql.Tx
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// upsertDevice records a device as present
func upsertDevice(x execer, d device.Device, now time.Time) error {
	var sizeBytes sql.NullInt64
	if n, ok := d.Size.Bytes(); ok {
		sizeBytes = sql.NullInt64{Int64: n, Valid: true}
	}

	_, err := x.Exec(`
		INSERT INTO devices (
			identity, device_path, display_name, description, size, size_bytes,
			removable, present, first_seen, last_seen
		) VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(identity) DO UPDATE SET
			device_path = excluded.device_path,
			display_name = excluded.display_name,
			description = COALESCE(excluded.description, description),
			size = COALESCE(excluded.size, size),
			size_bytes = COALESCE(excluded.size_bytes, size_bytes),
			removable = excluded.removable,
			present = 1,
			last_seen = excluded.last_seen
	`,
		d.ID, d.Path, d.DisplayName, nullString(d.Description), nullString(d.Size.String()),
		sizeBytes, d.IsRemovable, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert device: %w", err)
	}
	return nil
}

// markAbsent records that a device is no longer attached
func markAbsent(x execer, id string, now time.Time) error {
	_, err := x.Exec("UPDATE devices SET present = 0, last_seen = ? WHERE identity = ?", now, id)
	if err != nil {
		return fmt.Errorf("failed to mark device absent: %w", err)
	}
	return nil
}

// Devices returns every device the journal knows about, present ones first
func (j *Journal) Devices() ([]*DeviceRecord, error) {
	rows, err := j.conn.Query(`
		SELECT identity, device_path, display_name, description, size, size_bytes,
		       removable, present, first_seen, last_seen
		FROM devices
		ORDER BY present DESC, identity
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	var records []*DeviceRecord
	for rows.Next() {
		var rec DeviceRecord
		var path, name, desc, size sql.NullString
		var sizeBytes sql.NullInt64

		err := rows.Scan(
			&rec.Identity, &path, &name, &desc, &size, &sizeBytes,
			&rec.Removable, &rec.Present, &rec.FirstSeen, &rec.LastSeen,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}

		rec.DevicePath = path.String
		rec.DisplayName = name.String
		rec.Description = desc.String
		rec.Size = size.String
		if sizeBytes.Valid {
			n := sizeBytes.Int64
			rec.SizeBytes = &n
		}

		records = append(records, &rec)
	}

	return records, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/sigreer/drivescan/internal/scanner"
)

// Record persists one scanner event. A ready event marks its population as
// the only present devices; remove marks the device absent.
func (j *Journal) Record(ev scanner.Event) error {
	tx, err := j.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var identity, name sql.NullString
	var details map[string]any

	switch ev.Type {
	case scanner.EventReady:
		if _, err := tx.Exec("UPDATE devices SET present = 0 WHERE present = 1"); err != nil {
			return fmt.Errorf("failed to reset presence: %w", err)
		}
		ids := make([]string, 0, len(ev.Devices))
		for _, d := range ev.Devices {
			if err := upsertDevice(tx, d, ev.Time); err != nil {
				return err
			}
			ids = append(ids, d.ID)
		}
		details = map[string]any{"devices": ids}

	case scanner.EventAdd:
		if err := upsertDevice(tx, ev.Device, ev.Time); err != nil {
			return err
		}
		identity, name = nullString(ev.Device.ID), nullString(ev.Device.DisplayName)

	case scanner.EventRemove:
		if err := markAbsent(tx, ev.Device.ID, ev.Time); err != nil {
			return err
		}
		identity, name = nullString(ev.Device.ID), nullString(ev.Device.DisplayName)

	case scanner.EventError:
		if ev.Err != nil {
			details = map[string]any{"error": ev.Err.Error()}
		}
		if _, err := tx.Exec("UPDATE devices SET present = 0 WHERE present = 1"); err != nil {
			return fmt.Errorf("failed to reset presence: %w", err)
		}

	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}

	var detailsJSON sql.NullString
	if details != nil {
		b, err := json.Marshal(details)
		if err == nil {
			detailsJSON = sql.NullString{String: string(b), Valid: true}
		}
	}

	_, err = tx.Exec(`
		INSERT INTO device_events (run_id, cycle, event_type, identity, display_name, details, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, ev.Run, int64(ev.Cycle), string(ev.Type), identity, name, detailsJSON, ev.Time)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}

	return tx.Commit()
}

// Follow records events from sub until its channel closes. When ctx is done
// the subscription is drained, so events already queued are still recorded.
func (j *Journal) Follow(ctx context.Context, sub *scanner.Subscription) error {
	stop := context.AfterFunc(ctx, sub.Drain)
	defer stop()

	for ev := range sub.C() {
		if err := j.Record(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecentEvents returns the most recent events across all devices
func (j *Journal) RecentEvents(limit int) ([]*EventRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := j.conn.Query(`
		SELECT id, run_id, cycle, event_type, identity, display_name, details, timestamp
		FROM device_events
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// DeviceEvents returns add/remove events for one device
func (j *Journal) DeviceEvents(identity string, limit int) ([]*EventRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := j.conn.Query(`
		SELECT id, run_id, cycle, event_type, identity, display_name, details, timestamp
		FROM device_events
		WHERE identity = ?
		ORDER BY id DESC
		LIMIT ?
	`, identity, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query device events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]*EventRecord, error) {
	var events []*EventRecord
	for rows.Next() {
		var event EventRecord
		var cycle int64
		var identity, name, details sql.NullString

		err := rows.Scan(
			&event.ID, &event.RunID, &cycle, &event.EventType,
			&identity, &name, &details, &event.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		event.Cycle = uint64(cycle)
		event.Identity = identity.String
		event.DisplayName = name.String
		event.Details = details.String

		events = append(events, &event)
	}

	return events, rows.Err()
}

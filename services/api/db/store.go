package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/priyanshu1258/Hackathon/services/api/reading"
)

// readingsChannel is the NOTIFY channel fired once per appended reading.
const readingsChannel = "campus_readings"

// Store wraps database access helpers.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by a pgx pool.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const appendReadingSQL = `
    INSERT INTO campus.readings (id, category, building, ts, display_time, value, unit, meta)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

// Append adds r to the tail of the (category, building) log and returns its id.
// The change notification is sent inside the same transaction, so listeners only
// see the entry after it has been committed.
func (s *Store) Append(ctx context.Context, c reading.Category, b reading.Building, r reading.Reading) (string, error) {
	id, err := newEntryID()
	if err != nil {
		return "", err
	}

	meta, err := json.Marshal(r.Meta)
	if err != nil {
		return "", fmt.Errorf("encode meta: %w", err)
	}
	payload, err := encodeChange(Change{Category: c, Building: b, Entry: reading.Entry{ID: id, Reading: r}})
	if err != nil {
		return "", err
	}

	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, appendReadingSQL,
			id, string(c), string(b), r.TS, r.Time, r.Value, r.Unit, meta,
		); err != nil {
			return fmt.Errorf("insert reading: %w", err)
		}
		if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, readingsChannel, string(payload)); err != nil {
			return fmt.Errorf("notify reading: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

const setLatestSQL = `
    INSERT INTO campus.latest (category, building, ts, display_time, value, unit, updated_at)
    VALUES ($1, $2, $3, $4, $5, $6, NOW())
    ON CONFLICT (category, building) DO UPDATE
    SET ts = EXCLUDED.ts,
        display_time = EXCLUDED.display_time,
        value = EXCLUDED.value,
        unit = EXCLUDED.unit,
        updated_at = NOW()
`

// SetLatest replaces the latest snapshot of a pair.
func (s *Store) SetLatest(ctx context.Context, c reading.Category, b reading.Building, snap reading.Snapshot) error {
	_, err := s.pool.Exec(ctx, setLatestSQL, string(c), string(b), snap.TS, snap.Time, snap.Value, snap.Unit)
	return err
}

const latestAllSQL = `
    SELECT category, building, ts, display_time, value, unit
    FROM campus.latest
    ORDER BY category, building
`

const latestByCategorySQL = `
    SELECT category, building, ts, display_time, value, unit
    FROM campus.latest
    WHERE category = $1
    ORDER BY building
`

// ReadLatestAll returns every latest snapshot keyed by category then building.
func (s *Store) ReadLatestAll(ctx context.Context) (map[reading.Category]map[reading.Building]reading.Snapshot, error) {
	rows, err := s.pool.Query(ctx, latestAllSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[reading.Category]map[reading.Building]reading.Snapshot)
	for rows.Next() {
		c, b, snap, err := scanLatest(rows)
		if err != nil {
			return nil, err
		}
		if out[c] == nil {
			out[c] = make(map[reading.Building]reading.Snapshot)
		}
		out[c][b] = snap
	}
	return out, rows.Err()
}

// ReadLatest returns the latest snapshots of one category keyed by building.
func (s *Store) ReadLatest(ctx context.Context, c reading.Category) (map[reading.Building]reading.Snapshot, error) {
	rows, err := s.pool.Query(ctx, latestByCategorySQL, string(c))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[reading.Building]reading.Snapshot)
	for rows.Next() {
		_, b, snap, err := scanLatest(rows)
		if err != nil {
			return nil, err
		}
		out[b] = snap
	}
	return out, rows.Err()
}

func scanLatest(rows pgx.Rows) (reading.Category, reading.Building, reading.Snapshot, error) {
	var (
		category string
		building string
		snap     reading.Snapshot
	)
	if err := rows.Scan(&category, &building, &snap.TS, &snap.Time, &snap.Value, &snap.Unit); err != nil {
		return "", "", reading.Snapshot{}, err
	}
	return reading.Category(category), reading.Building(building), snap, nil
}

const recentReadingsSQL = `
    SELECT id, category, building, ts, display_time, value, unit, meta
    FROM (
        SELECT seq, id, category, building, ts, display_time, value, unit, meta
        FROM campus.readings
        WHERE category = $1 AND building = $2
        ORDER BY seq DESC
        LIMIT $3
    ) recent
    ORDER BY seq ASC
`

// ReadRecent returns the newest limit entries of a pair, oldest first.
func (s *Store) ReadRecent(ctx context.Context, c reading.Category, b reading.Building, limit int) ([]reading.Entry, error) {
	rows, err := s.pool.Query(ctx, recentReadingsSQL, string(c), string(b), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]reading.Entry, 0, limit)
	for rows.Next() {
		var (
			e        reading.Entry
			category string
			building string
			meta     []byte
		)
		if err := rows.Scan(
			&e.ID,
			&category,
			&building,
			&e.TS,
			&e.Time,
			&e.Value,
			&e.Unit,
			&meta,
		); err != nil {
			return nil, err
		}
		e.Category = reading.Category(category)
		e.Building = reading.Building(building)
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Meta); err != nil {
				return nil, fmt.Errorf("decode meta of %s: %w", e.ID, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

const trimReadingsSQL = `
    DELETE FROM campus.readings
    WHERE category = $1 AND building = $2 AND seq <= (
        SELECT seq FROM campus.readings
        WHERE category = $1 AND building = $2
        ORDER BY seq DESC
        OFFSET $3
        LIMIT 1
    )
`

// Trim deletes all but the newest keep entries of a pair.
func (s *Store) Trim(ctx context.Context, c reading.Category, b reading.Building, keep int) (int64, error) {
	tag, err := s.pool.Exec(ctx, trimReadingsSQL, string(c), string(b), keep)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Listen delivers one Change per appended reading until ctx is done or the
// connection fails. It holds a dedicated connection for its whole lifetime.
func (s *Store) Listen(ctx context.Context, fn func(Change)) error {
	pooled, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	// A LISTENing connection must not go back to the pool.
	conn := pooled.Hijack()
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+readingsChannel); err != nil {
		return fmt.Errorf("listen %s: %w", readingsChannel, err)
	}

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("wait for notification: %w", err)
		}

		change, err := decodeChange([]byte(n.Payload))
		if err != nil {
			log.Printf("skipping malformed %s payload: %v", readingsChannel, err)
			continue
		}
		fn(change)
	}
}

func newEntryID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate entry id: %w", err)
	}
	return id.String(), nil
}

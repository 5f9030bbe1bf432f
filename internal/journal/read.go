package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/hubsession/internal/engine"
)

// Entry is one recorded outcome.
type Entry struct {
	Seq           int64
	Kind          engine.OutcomeKind
	DeviceID      string
	ModuleID      string
	MessageID     string
	ItemID        uint32
	Result        string
	Status        int
	PayloadSize   int64
	PayloadDigest string
	At            time.Time
}

// ResultCount is the number of outcomes of one kind with one result.
type ResultCount struct {
	Kind   engine.OutcomeKind
	Result string
	Count  int64
}

const entryColumns = `seq, kind, device_id, module_id, message_id, item_id, result, status, payload_size, payload_digest, recorded_at`

// List returns the most recent limit entries, oldest first. A limit of zero
// or less returns everything.
//
// Returns an empty slice (not nil) when the journal is empty.
func (j *Journal) List(ctx context.Context, limit int) ([]Entry, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = j.db.QueryContext(ctx, `
			SELECT `+entryColumns+` FROM (
				SELECT `+entryColumns+` FROM outcomes
				ORDER BY seq DESC
				LIMIT ?
			) ORDER BY seq ASC
		`, limit)
	} else {
		rows, err = j.db.QueryContext(ctx, `
			SELECT `+entryColumns+` FROM outcomes
			ORDER BY seq ASC
		`)
	}
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return entries, nil
}

// Summary counts outcomes by kind and result, ordered by kind then result.
func (j *Journal) Summary(ctx context.Context) ([]ResultCount, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT kind, result, COUNT(*)
		FROM outcomes
		GROUP BY kind, result
		ORDER BY kind ASC, result ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	counts := []ResultCount{}
	for rows.Next() {
		var (
			c    ResultCount
			kind string
		)
		if err := rows.Scan(&kind, &c.Result, &c.Count); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		c.Kind = engine.OutcomeKind(kind)
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary: %w", err)
	}
	return counts, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		e      Entry
		kind   string
		itemID int64
		at     int64
	)
	err := rows.Scan(
		&e.Seq,
		&kind,
		&e.DeviceID,
		&e.ModuleID,
		&e.MessageID,
		&itemID,
		&e.Result,
		&e.Status,
		&e.PayloadSize,
		&e.PayloadDigest,
		&at,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("scan outcome: %w", err)
	}
	e.Kind = engine.OutcomeKind(kind)
	e.ItemID = uint32(itemID)
	e.At = time.Unix(0, at).UTC()
	return e, nil
}

// Package recordstore persists scraped calendar data to sqlite and
// flat CSV files. The sqlite side keeps specs fields in a long
// field/value table since different event types expose different field
// sets; the CSV side writes the flattened wide tables.
package recordstore

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "modernc.org/sqlite"

	"ffcal/lib/scrapers/forexfactory"
	"ffcal/lib/timezone"
)

//go:embed schema.sql
var Schema string

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) Store {
	return Store{db: db}
}

// Open opens (or creates) a sqlite database at path and applies the
// schema. Use ":memory:" for an ephemeral store.
func Open(ctx context.Context, path string) (Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return Store{}, err
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		db.Close()
		return Store{}, fmt.Errorf("apply schema: %w", err)
	}
	return Store{db: db}, nil
}

func (s Store) Close() error { return s.db.Close() }

// SaveBatch writes one batch's stubs and results in a single
// transaction. Rows for a detail ID are replaced wholesale, so
// re-running a batch over the same IDs is idempotent.
func (s Store) SaveBatch(ctx context.Context, stubs []forexfactory.EventStub, results []forexfactory.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := timezone.Now().Unix()
	for _, stub := range stubs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO event (detail_id, date, time, currency, impact, name,
				actual, forecast, previous, scraped_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (detail_id) DO UPDATE SET
				date = excluded.date, time = excluded.time,
				currency = excluded.currency, impact = excluded.impact,
				name = excluded.name, actual = excluded.actual,
				forecast = excluded.forecast, previous = excluded.previous,
				scraped_at = excluded.scraped_at`,
			stub.DetailID, stub.Date, stub.Time, stub.Currency, stub.Impact,
			stub.Event, stub.Actual, stub.Forecast, stub.Previous, now)
		if err != nil {
			return fmt.Errorf("upsert event %s: %w", stub.DetailID, err)
		}
	}

	for _, result := range results {
		if err := saveResult(ctx, tx, result); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func saveResult(ctx context.Context, tx *sql.Tx, result forexfactory.Result) error {
	for _, table := range []string{"spec_field", "history_entry", "news_item"} {
		_, err := tx.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE detail_id = ?", table),
			result.DetailID)
		if err != nil {
			return fmt.Errorf("clear %s for %s: %w", table, result.DetailID, err)
		}
	}

	if result.Specs.Status == forexfactory.StatusSuccess && result.Specs.Value != nil {
		record := result.Specs.Value
		for i, field := range record.Keys() {
			if field == "detail_id" {
				continue
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO spec_field (detail_id, position, field, value)
				VALUES (?, ?, ?, ?)`,
				result.DetailID, i, field, record.Get(field))
			if err != nil {
				return fmt.Errorf("insert spec field %s.%s: %w",
					result.DetailID, field, err)
			}
		}
	}
	if result.History.Status == forexfactory.StatusSuccess {
		for i, entry := range result.History.Value {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO history_entry (detail_id, position, date, date_url,
					actual, forecast, previous)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				result.DetailID, i, entry.Date, entry.DateURL,
				entry.Actual, entry.Forecast, entry.Previous)
			if err != nil {
				return fmt.Errorf("insert history %s[%d]: %w",
					result.DetailID, i, err)
			}
		}
	}
	if result.News.Status == forexfactory.StatusSuccess {
		for i, item := range result.News.Value {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO news_item (detail_id, position, title, url,
					snippet, link_type)
				VALUES (?, ?, ?, ?, ?, ?)`,
				result.DetailID, i, item.Title, item.URL,
				item.Snippet, item.LinkType)
			if err != nil {
				return fmt.Errorf("insert news %s[%d]: %w",
					result.DetailID, i, err)
			}
		}
	}
	return nil
}

// SpecFields reads back the long-form specs rows for one detail ID,
// keyed by field name.
func (s Store) SpecFields(ctx context.Context, detailID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT field, value FROM spec_field
		WHERE detail_id = ? ORDER BY position`, detailID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := make(map[string]string)
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return nil, err
		}
		fields[field] = value
	}
	return fields, rows.Err()
}

// Events lists every stored event stub, most recent calendar date first.
func (s Store) Events(ctx context.Context) ([]forexfactory.EventStub, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT detail_id, date, time, currency, impact, name,
			actual, forecast, previous
		FROM event ORDER BY date DESC, time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stubs []forexfactory.EventStub
	for rows.Next() {
		var stub forexfactory.EventStub
		err := rows.Scan(&stub.DetailID, &stub.Date, &stub.Time,
			&stub.Currency, &stub.Impact, &stub.Event,
			&stub.Actual, &stub.Forecast, &stub.Previous)
		if err != nil {
			return nil, err
		}
		stubs = append(stubs, stub)
	}
	return stubs, rows.Err()
}

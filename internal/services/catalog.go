package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/switchdeck/switchdeck/internal/store"
	"github.com/switchdeck/switchdeck/pkg/catalog"
)

// Catalogue sources.
const (
	SourceBuiltin = "builtin"
	SourceUpload  = "upload"
)

// CatalogStatus describes the active catalogue.
type CatalogStatus struct {
	Source   string    `json:"source"`   // "builtin" or "upload"
	Revision string    `json:"revision"` // UUID assigned when the catalogue was loaded
	Count    int       `json:"count"`
	LoadedAt time.Time `json:"loaded_at"`
}

// CatalogRepository provides access to the session's active catalogue.
// The catalogue is replaced wholesale or not at all; records are never
// mutated in place.
type CatalogRepository interface {
	// Active returns the active catalogue in its original order.
	Active(ctx context.Context) ([]catalog.SwitchRecord, error)

	// Replace atomically swaps the active catalogue for the given records.
	// The previous catalogue remains active if the replacement fails.
	Replace(ctx context.Context, records []catalog.SwitchRecord, source string) (*CatalogStatus, error)

	// Status returns the active catalogue's status, or ErrNotFound if no
	// catalogue has been loaded yet.
	Status(ctx context.Context) (*CatalogStatus, error)

	// Vendors returns the distinct vendors of the active catalogue, sorted.
	Vendors(ctx context.Context) ([]string, error)
}

// Compile-time interface guard.
var _ CatalogRepository = (*SQLiteCatalogRepository)(nil)

// SQLiteCatalogRepository implements CatalogRepository using SQLite.
type SQLiteCatalogRepository struct {
	st *store.SQLiteStore
}

// NewSQLiteCatalogRepository creates a CatalogRepository and runs the
// catalog schema migrations.
func NewSQLiteCatalogRepository(ctx context.Context, st *store.SQLiteStore) (*SQLiteCatalogRepository, error) {
	if err := st.Migrate(ctx, "catalog", catalogMigrations); err != nil {
		return nil, fmt.Errorf("catalog migrations: %w", err)
	}
	return &SQLiteCatalogRepository{st: st}, nil
}

const catalogColumns = `vendor, model, port_count, poe_supported, layer, managed,
	stackable, uplink, uplink_count, poe_budget, cli_sections, troubleshooting, notes`

func (r *SQLiteCatalogRepository) Active(ctx context.Context) ([]catalog.SwitchRecord, error) {
	rows, err := r.st.DB().QueryContext(ctx,
		`SELECT `+catalogColumns+` FROM catalog_entries ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list catalogue entries: %w", err)
	}
	defer rows.Close()

	var records []catalog.SwitchRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan catalogue entry: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *SQLiteCatalogRepository) Replace(ctx context.Context, records []catalog.SwitchRecord, source string) (*CatalogStatus, error) {
	status := &CatalogStatus{
		Source:   source,
		Revision: uuid.New().String(),
		Count:    len(records),
		LoadedAt: time.Now().UTC(),
	}

	err := r.st.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_entries`); err != nil {
			return fmt.Errorf("clear catalogue: %w", err)
		}

		for i, rec := range records {
			cliJSON, err := json.Marshal(rec.CLISections)
			if err != nil {
				return fmt.Errorf("encode cli_sections for %s %s: %w", rec.Vendor, rec.Model, err)
			}
			tsJSON, err := json.Marshal(rec.Troubleshooting)
			if err != nil {
				return fmt.Errorf("encode troubleshooting for %s %s: %w", rec.Vendor, rec.Model, err)
			}

			_, err = tx.ExecContext(ctx, `
				INSERT INTO catalog_entries
					(position, `+catalogColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				i, rec.Vendor, rec.Model, rec.PortCount, rec.PoESupported,
				string(rec.Layer), rec.Managed, rec.Stackable, rec.Uplink,
				rec.UplinkCount, rec.PoEBudgetWatts, string(cliJSON), string(tsJSON), rec.Notes,
			)
			if err != nil {
				return fmt.Errorf("insert %s %s: %w", rec.Vendor, rec.Model, err)
			}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO catalog_state (id, source, revision, loaded_at)
			VALUES (1, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				source = excluded.source,
				revision = excluded.revision,
				loaded_at = excluded.loaded_at`,
			status.Source, status.Revision, status.LoadedAt,
		)
		if err != nil {
			return fmt.Errorf("update catalogue state: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}

func (r *SQLiteCatalogRepository) Status(ctx context.Context) (*CatalogStatus, error) {
	var s CatalogStatus
	err := r.st.DB().QueryRowContext(ctx,
		`SELECT source, revision, loaded_at FROM catalog_state WHERE id = 1`,
	).Scan(&s.Source, &s.Revision, &s.LoadedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get catalogue state: %w", err)
	}

	err = r.st.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM catalog_entries`,
	).Scan(&s.Count)
	if err != nil {
		return nil, fmt.Errorf("count catalogue entries: %w", err)
	}
	return &s, nil
}

func (r *SQLiteCatalogRepository) Vendors(ctx context.Context) ([]string, error) {
	rows, err := r.st.DB().QueryContext(ctx,
		`SELECT DISTINCT vendor FROM catalog_entries ORDER BY vendor`)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	defer rows.Close()

	var vendors []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan vendor: %w", err)
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

// scanRecord reads one catalogue row, decoding the JSON-encoded columns.
func scanRecord(rows *sql.Rows) (catalog.SwitchRecord, error) {
	var (
		rec       catalog.SwitchRecord
		layer     string
		poeBudget sql.NullInt64
		cliJSON   string
		tsJSON    string
	)
	err := rows.Scan(
		&rec.Vendor, &rec.Model, &rec.PortCount, &rec.PoESupported, &layer,
		&rec.Managed, &rec.Stackable, &rec.Uplink, &rec.UplinkCount,
		&poeBudget, &cliJSON, &tsJSON, &rec.Notes,
	)
	if err != nil {
		return catalog.SwitchRecord{}, err
	}

	rec.Layer = catalog.Layer(layer)
	if poeBudget.Valid {
		w := int(poeBudget.Int64)
		rec.PoEBudgetWatts = &w
	}
	if err := json.Unmarshal([]byte(cliJSON), &rec.CLISections); err != nil {
		return catalog.SwitchRecord{}, fmt.Errorf("decode cli_sections: %w", err)
	}
	if err := json.Unmarshal([]byte(tsJSON), &rec.Troubleshooting); err != nil {
		return catalog.SwitchRecord{}, fmt.Errorf("decode troubleshooting: %w", err)
	}
	return rec, nil
}

// catalogMigrations defines the session catalogue schema.
var catalogMigrations = []store.Migration{
	{
		Version:     1,
		Description: "create catalog tables",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`
				CREATE TABLE catalog_entries (
					position        INTEGER PRIMARY KEY,
					vendor          TEXT    NOT NULL,
					model           TEXT    NOT NULL,
					port_count      INTEGER NOT NULL CHECK (port_count >= 0),
					poe_supported   INTEGER NOT NULL,
					layer           TEXT    NOT NULL,
					managed         INTEGER NOT NULL,
					stackable       INTEGER NOT NULL,
					uplink          TEXT    NOT NULL DEFAULT '',
					uplink_count    INTEGER NOT NULL DEFAULT 0,
					poe_budget      INTEGER,
					cli_sections    TEXT    NOT NULL DEFAULT 'null',
					troubleshooting TEXT    NOT NULL DEFAULT 'null',
					notes           TEXT    NOT NULL DEFAULT '',
					UNIQUE (vendor, model)
				)`); err != nil {
				return err
			}
			_, err := tx.Exec(`
				CREATE TABLE catalog_state (
					id        INTEGER PRIMARY KEY CHECK (id = 1),
					source    TEXT     NOT NULL,
					revision  TEXT     NOT NULL,
					loaded_at DATETIME NOT NULL
				)`)
			return err
		},
	},
}

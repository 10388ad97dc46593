// Package scene persists entity descriptors in SQLite so a served scene
// survives restarts.
package scene

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/beetlebugorg/atlas/internal/apperror"
	"github.com/beetlebugorg/atlas/pkg/c3ml"
)

//go:embed schema.sql
var schema string

// Repository stores descriptors by entity ID, in insertion order.
type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Open opens the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Repository, error) {
	db, err := OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	r := New(db)
	if err := r.Init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// OpenSQLite opens sqlite at path, creating the directory if needed.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// Init applies the schema. It is safe to call on an initialised database.
func (r *Repository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// Save inserts or replaces the descriptor of d.ID. A replaced descriptor
// keeps its position.
func (r *Repository) Save(ctx context.Context, d c3ml.Descriptor) error {
	return save(ctx, r.db, d)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func save(ctx context.Context, db execer, d c3ml.Descriptor) error {
	if d.ID == "" {
		return apperror.Developer("Save", "descriptor has no id")
	}
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode %s: %w", d.ID, err)
	}
	_, err = db.ExecContext(ctx, `
        INSERT INTO entities (id, type, descriptor)
        VALUES (?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            type = excluded.type,
            descriptor = excluded.descriptor,
            updated_at = CURRENT_TIMESTAMP
    `, d.ID, string(d.Type), string(data))
	if err != nil {
		return fmt.Errorf("save %s: %w", d.ID, err)
	}
	return nil
}

// Get returns the descriptor stored for id.
func (r *Repository) Get(ctx context.Context, id string) (c3ml.Descriptor, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT descriptor
        FROM entities
        WHERE id = ?
    `, id)

	var data string
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c3ml.Descriptor{}, apperror.NotFound("stored entity", id)
		}
		return c3ml.Descriptor{}, err
	}
	return decode(id, data)
}

// Delete removes the descriptors of ids. Unknown IDs are ignored.
func (r *Repository) Delete(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM entities WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete %s: %w", id, err)
		}
	}
	return nil
}

// List returns every stored descriptor in insertion order.
func (r *Repository) List(ctx context.Context) ([]c3ml.Descriptor, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, descriptor
        FROM entities
        ORDER BY seq
    `)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	var out []c3ml.Descriptor
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, err
		}
		d, err := decode(id, data)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Document returns the stored scene as a document.
func (r *Repository) Document(ctx context.Context) (c3ml.Document, error) {
	ds, err := r.List(ctx)
	return c3ml.Document{Entities: ds}, err
}

// Replace stores exactly ds, in order, in one transaction.
func (r *Repository) Replace(ctx context.Context, ds []c3ml.Descriptor) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entities`); err != nil {
		return fmt.Errorf("clear entities: %w", err)
	}
	for _, d := range ds {
		if err := save(ctx, tx, d); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Count returns the number of stored descriptors.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entities`).Scan(&n)
	return n, err
}

func decode(id, data string) (c3ml.Descriptor, error) {
	var d c3ml.Descriptor
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return d, fmt.Errorf("decode %s: %w", id, err)
	}
	return d, nil
}

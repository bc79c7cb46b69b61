// Package sqlite implements store.Store on a local SQLite database.
//
// Each table keeps one row per record: an opaque ID and the column set as a
// JSON document. Pass ":memory:" for a throwaway database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/bankgreen/bankmap/pkg/constants"
	"github.com/bankgreen/bankmap/pkg/errors"
	"github.com/bankgreen/bankmap/pkg/store"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store is one table in a SQLite database.
type Store struct {
	db    *sql.DB
	path  string
	table string
}

// Open opens (creating if needed) the database at path and ensures table exists.
func Open(ctx context.Context, path, table string) (*Store, error) {
	if path == "" {
		path = constants.DefaultSQLitePath
	}
	if table == "" {
		table = constants.DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, errors.NewValidationError("table", table, "must be a plain identifier")
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
			return nil, errors.WrapIO("create", filepath.Dir(path), err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.WrapResource("open", "database", path, err)
	}
	// A :memory: database exists per connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.WrapResource("open", "database", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, errors.WrapResource("configure", "database", p, err)
		}
	}

	s := &Store{db: db, path: path, table: table}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS "`+s.table+`" (
		seq    INTEGER PRIMARY KEY AUTOINCREMENT,
		id     TEXT NOT NULL UNIQUE,
		fields TEXT NOT NULL
	)`)
	return errors.WrapResource("migrate", "table", s.table, err)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ store.Store = (*Store)(nil)

// All implements store.Store. Rows come back in insertion order.
func (s *Store) All(ctx context.Context) ([]store.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, fields FROM "`+s.table+`" ORDER BY seq`)
	if err != nil {
		return nil, errors.WrapResource("list", "table", s.table, err)
	}
	defer func() { _ = rows.Close() }()

	var out []store.Record
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, errors.WrapResource("list", "table", s.table, err)
		}
		fields, err := decode(raw)
		if err != nil {
			return nil, errors.WrapParse("json", id, err)
		}
		out = append(out, store.Record{ID: id, Fields: fields})
	}
	return out, rows.Err()
}

// Delete implements store.Store. Unknown IDs fail the whole batch.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	return s.tx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			res, err := tx.ExecContext(ctx, `DELETE FROM "`+s.table+`" WHERE id = ?`, id)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return errors.NewNotFoundError("record", id)
			}
		}
		return nil
	})
}

// Update implements store.Store. Given columns overwrite stored ones and a
// nil value clears the column.
func (s *Store) Update(ctx context.Context, updates []store.Update) error {
	return s.tx(ctx, func(tx *sql.Tx) error {
		for _, u := range updates {
			var raw string
			err := tx.QueryRowContext(ctx, `SELECT fields FROM "`+s.table+`" WHERE id = ?`, u.ID).Scan(&raw)
			if errors.Is(err, sql.ErrNoRows) {
				return errors.NewNotFoundError("record", u.ID)
			}
			if err != nil {
				return err
			}
			fields, err := decode(raw)
			if err != nil {
				return errors.WrapParse("json", u.ID, err)
			}
			for k, v := range u.Fields {
				if v == nil {
					delete(fields, k)
					continue
				}
				fields[k] = v
			}
			data, err := json.Marshal(fields)
			if err != nil {
				return errors.WrapParse("json", u.ID, err)
			}
			if _, err := tx.ExecContext(ctx, `UPDATE "`+s.table+`" SET fields = ? WHERE id = ?`, string(data), u.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

// Insert implements store.Store. Nil values are not stored.
func (s *Store) Insert(ctx context.Context, rows []store.Fields) error {
	return s.tx(ctx, func(tx *sql.Tx) error {
		for _, f := range rows {
			clean := make(store.Fields, len(f))
			for k, v := range f {
				if v != nil {
					clean[k] = v
				}
			}
			data, err := json.Marshal(clean)
			if err != nil {
				return errors.WrapParse("json", f.Tag(), err)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO "`+s.table+`" (id, fields) VALUES (?, ?)`, "rec"+uuid.NewString(), string(data)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) tx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func decode(raw string) (store.Fields, error) {
	fields := store.Fields{}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

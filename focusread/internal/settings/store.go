package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/bionic/focusread/internal/dbopen"
)

// Schema is the settings table. One row per key; value is JSON.
const Schema = `
CREATE TABLE IF NOT EXISTS settings (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);`

// Storage keys.
const (
	KeyBoldRatio     = "boldRatio"
	KeyFontWeight    = "fontWeight"
	KeyEnabled       = "enabled"
	KeyFontFamily    = "fontFamily"
	KeyLineHeight    = "lineHeight"
	KeyLetterSpacing = "letterSpacing"
	KeyWordSpacing   = "wordSpacing"
)

// Store reads and writes settings. Every write bumps PRAGMA user_version so
// watchers in this or another process see it.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the settings database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(Schema))
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	return &Store{db: db, logger: orDefault(logger)}, nil
}

// New wraps an already opened database and ensures the schema.
func New(db *sql.DB, logger *slog.Logger) (*Store, error) {
	if _, err := db.Exec(Schema); err != nil {
		return nil, fmt.Errorf("settings: init schema: %w", err)
	}
	return &Store{db: db, logger: orDefault(logger)}, nil
}

func orDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

// DB returns the underlying database.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Load reads the stored settings. Missing keys take their default; a
// malformed value is logged and replaced by its default.
func (s *Store) Load(ctx context.Context) (Settings, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return Defaults(), fmt.Errorf("settings: load: %w", err)
	}
	defer rows.Close()

	out := Defaults()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Defaults(), fmt.Errorf("settings: scan: %w", err)
		}
		if err := decodeInto(&out, key, value); err != nil {
			s.logger.Warn("settings: ignoring malformed value", "key", key, "error", err)
		}
	}
	if err := rows.Err(); err != nil {
		return Defaults(), fmt.Errorf("settings: load: %w", err)
	}
	return out.Normalize(), nil
}

// LoadOrDefault is Load that never fails: on error it logs at Warn and
// returns the defaults.
func (s *Store) LoadOrDefault(ctx context.Context) Settings {
	st, err := s.Load(ctx)
	if err != nil {
		s.logger.Warn("settings: load failed, using defaults", "error", err)
		return Defaults()
	}
	return st
}

// Save writes the fields set in p and returns the resulting settings.
func (s *Store) Save(ctx context.Context, p Patch) (Settings, error) {
	cur, err := s.Load(ctx)
	if err != nil {
		return Defaults(), err
	}
	next := cur.Apply(p)
	if p.Empty() {
		return next, nil
	}

	values := patchValues(next, p)
	now := time.Now().UnixMilli()
	err = dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, kv := range values {
			raw, err := json.Marshal(kv.value)
			if err != nil {
				return fmt.Errorf("encode %s: %w", kv.key, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
				 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
				kv.key, string(raw), now); err != nil {
				return fmt.Errorf("write %s: %w", kv.key, err)
			}
		}
		return bumpVersion(ctx, tx)
	})
	if err != nil {
		return cur, fmt.Errorf("settings: save: %w", err)
	}

	s.logger.Info("settings: saved", "keys", len(values), "enabled", next.Enabled, "bold_ratio", next.BoldRatio)
	return next, nil
}

// Reset deletes every stored key, restoring the defaults.
func (s *Store) Reset(ctx context.Context) (Settings, error) {
	err := dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM settings`); err != nil {
			return err
		}
		return bumpVersion(ctx, tx)
	})
	if err != nil {
		return Defaults(), fmt.Errorf("settings: reset: %w", err)
	}
	s.logger.Info("settings: reset to defaults")
	return Defaults(), nil
}

// Version returns the current PRAGMA user_version.
func (s *Store) Version(ctx context.Context) (int64, error) {
	return UserVersion(ctx, s.db)
}

// UserVersion reads PRAGMA user_version.
func UserVersion(ctx context.Context, db *sql.DB) (int64, error) {
	var v int64
	err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v)
	return v, err
}

func bumpVersion(ctx context.Context, tx *sql.Tx) error {
	var v int64
	if err := tx.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
		return fmt.Errorf("bump user_version: %w", err)
	}
	return nil
}

type keyValue struct {
	key   string
	value any
}

// patchValues lists the normalised values for the keys p sets.
func patchValues(s Settings, p Patch) []keyValue {
	var out []keyValue
	if p.BoldRatio != nil {
		out = append(out, keyValue{KeyBoldRatio, s.BoldRatio})
	}
	if p.FontWeight != nil {
		out = append(out, keyValue{KeyFontWeight, s.FontWeight})
	}
	if p.Enabled != nil {
		out = append(out, keyValue{KeyEnabled, s.Enabled})
	}
	if p.FontFamily != nil {
		out = append(out, keyValue{KeyFontFamily, s.FontFamily})
	}
	if p.LineHeight != nil {
		out = append(out, keyValue{KeyLineHeight, s.LineHeight})
	}
	if p.LetterSpacing != nil {
		out = append(out, keyValue{KeyLetterSpacing, s.LetterSpacing})
	}
	if p.WordSpacing != nil {
		out = append(out, keyValue{KeyWordSpacing, s.WordSpacing})
	}
	return out
}

var errUnknownKey = errors.New("unknown key")

func decodeInto(s *Settings, key, value string) error {
	var target any
	switch key {
	case KeyBoldRatio:
		target = &s.BoldRatio
	case KeyFontWeight:
		target = &s.FontWeight
	case KeyEnabled:
		target = &s.Enabled
	case KeyFontFamily:
		target = &s.FontFamily
	case KeyLineHeight:
		target = &s.LineHeight
	case KeyLetterSpacing:
		target = &s.LetterSpacing
	case KeyWordSpacing:
		target = &s.WordSpacing
	default:
		return errUnknownKey
	}
	return json.Unmarshal([]byte(value), target)
}

// Package storage provides SQLite-backed persistence: user settings,
// watcher alert-state checkpoints, and the alert audit log.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pumpwatch/pumpwatch/internal/models"
	_ "modernc.org/sqlite"
)

// Storage wraps a SQLite database for all persistence operations.
type Storage struct {
	db        *sql.DB
	maxAlerts int
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/pumpwatch/data.db.
func New(maxAlerts int, dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "pumpwatch", "data.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if maxAlerts <= 0 {
		maxAlerts = 1000
	}
	s := &Storage{db: db, maxAlerts: maxAlerts}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS alert_state (
			symbol              TEXT PRIMARY KEY,
			message_handle      INTEGER NOT NULL,
			last_change_percent REAL NOT NULL,
			last_update_at      INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id             TEXT PRIMARY KEY,
			symbol         TEXT NOT NULL,
			change_percent REAL NOT NULL,
			last_price     REAL NOT NULL,
			action         TEXT NOT NULL,
			message_handle INTEGER NOT NULL,
			at             INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_at ON alerts(at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_symbol ON alerts(symbol)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SetSetting stores one key-value setting, replacing any prior value.
func (s *Storage) SetSetting(key, value string) error {
	if _, err := s.db.Exec(
		`INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, key, value,
	); err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}

// GetSetting returns the stored value for key, or fallback when absent.
func (s *Storage) GetSetting(key, fallback string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}

// UserSettings is the persisted user configuration record. The core only
// reads the sizing and volume-floor fields it needs.
type UserSettings struct {
	RiskPercent          float64
	DefaultNotional      float64
	MinQuoteVolume       float64
	NotificationsEnabled bool
}

// DefaultUserSettings returns the settings used before the user saves any.
func DefaultUserSettings() UserSettings {
	return UserSettings{
		RiskPercent:          2.0,
		DefaultNotional:      1000,
		MinQuoteVolume:       0,
		NotificationsEnabled: true,
	}
}

// SaveUserSettings persists the user configuration record.
func (s *Storage) SaveUserSettings(u UserSettings) error {
	pairs := map[string]string{
		"risk_percent":          strconv.FormatFloat(u.RiskPercent, 'f', -1, 64),
		"default_notional":      strconv.FormatFloat(u.DefaultNotional, 'f', -1, 64),
		"min_quote_volume":      strconv.FormatFloat(u.MinQuoteVolume, 'f', -1, 64),
		"notifications_enabled": strconv.FormatBool(u.NotificationsEnabled),
	}
	for key, value := range pairs {
		if err := s.SetSetting(key, value); err != nil {
			return err
		}
	}
	return nil
}

// LoadUserSettings reads the user configuration record, falling back to
// defaults for unset keys.
func (s *Storage) LoadUserSettings() (UserSettings, error) {
	def := DefaultUserSettings()
	u := def

	read := func(key string, fallback float64) (float64, error) {
		raw, err := s.GetSetting(key, strconv.FormatFloat(fallback, 'f', -1, 64))
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("corrupt setting %s: %w", key, err)
		}
		return v, nil
	}

	var err error
	if u.RiskPercent, err = read("risk_percent", def.RiskPercent); err != nil {
		return def, err
	}
	if u.DefaultNotional, err = read("default_notional", def.DefaultNotional); err != nil {
		return def, err
	}
	if u.MinQuoteVolume, err = read("min_quote_volume", def.MinQuoteVolume); err != nil {
		return def, err
	}
	raw, err := s.GetSetting("notifications_enabled", strconv.FormatBool(def.NotificationsEnabled))
	if err != nil {
		return def, err
	}
	if u.NotificationsEnabled, err = strconv.ParseBool(raw); err != nil {
		return def, fmt.Errorf("corrupt setting notifications_enabled: %w", err)
	}
	return u, nil
}

// SaveAlertState checkpoints one tracked symbol's alert state.
func (s *Storage) SaveAlertState(state models.AlertState) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO alert_state
			(symbol, message_handle, last_change_percent, last_update_at)
		VALUES (?,?,?,?)`,
		state.Symbol, state.MessageHandle, state.LastChangePercent,
		state.LastUpdateAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save alert state: %w", err)
	}
	return nil
}

// DeleteAlertState drops one symbol's checkpoint.
func (s *Storage) DeleteAlertState(symbol string) error {
	if _, err := s.db.Exec(`DELETE FROM alert_state WHERE symbol = ?`, symbol); err != nil {
		return fmt.Errorf("failed to delete alert state: %w", err)
	}
	return nil
}

// LoadAlertStates returns every checkpointed alert state.
func (s *Storage) LoadAlertStates() ([]models.AlertState, error) {
	rows, err := s.db.Query(`
		SELECT symbol, message_handle, last_change_percent, last_update_at
		FROM alert_state`)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert states: %w", err)
	}
	defer rows.Close()

	var states []models.AlertState
	for rows.Next() {
		var state models.AlertState
		var updateAtNano int64
		if err := rows.Scan(
			&state.Symbol, &state.MessageHandle, &state.LastChangePercent, &updateAtNano,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alert state: %w", err)
		}
		state.LastUpdateAt = time.Unix(0, updateAtNano)
		states = append(states, state)
	}
	return states, rows.Err()
}

// RecordAlert appends one row to the audit log and prunes it to the
// newest maxAlerts rows.
func (s *Storage) RecordAlert(rec models.AlertRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		INSERT INTO alerts
			(id, symbol, change_percent, last_price, action, message_handle, at)
		VALUES (?,?,?,?,?,?,?)`,
		rec.ID, rec.Symbol, rec.ChangePercent, rec.LastPrice,
		string(rec.Action), rec.MessageHandle, rec.At.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	if _, err = tx.Exec(`
		DELETE FROM alerts WHERE id NOT IN (
			SELECT id FROM alerts ORDER BY at DESC LIMIT ?
		)`, s.maxAlerts); err != nil {
		return fmt.Errorf("failed to prune alerts: %w", err)
	}

	return tx.Commit()
}

// RecentAlerts returns up to limit audit rows, newest first.
func (s *Storage) RecentAlerts(limit int) ([]models.AlertRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, symbol, change_percent, last_price, action, message_handle, at
		FROM alerts ORDER BY at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var recs []models.AlertRecord
	for rows.Next() {
		var rec models.AlertRecord
		var action string
		var atNano int64
		if err := rows.Scan(
			&rec.ID, &rec.Symbol, &rec.ChangePercent, &rec.LastPrice,
			&action, &rec.MessageHandle, &atNano,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		rec.Action = models.AlertAction(action)
		rec.At = time.Unix(0, atNano)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

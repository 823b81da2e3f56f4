package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pumpwatch/pumpwatch/internal/models"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(5, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSettings_RoundTrip(t *testing.T) {
	s := newTestStorage(t)

	if err := s.SetSetting("quote_suffix", "USDT"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	got, err := s.GetSetting("quote_suffix", "")
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if got != "USDT" {
		t.Errorf("setting = %q, want USDT", got)
	}

	// Overwrite replaces, never duplicates.
	if err := s.SetSetting("quote_suffix", "USDC"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	got, _ = s.GetSetting("quote_suffix", "")
	if got != "USDC" {
		t.Errorf("setting after overwrite = %q, want USDC", got)
	}
}

func TestGetSetting_Fallback(t *testing.T) {
	s := newTestStorage(t)
	got, err := s.GetSetting("missing", "fallback")
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if got != "fallback" {
		t.Errorf("missing setting = %q, want fallback", got)
	}
}

func TestUserSettings_RoundTrip(t *testing.T) {
	s := newTestStorage(t)

	// Before any save, defaults come back.
	u, err := s.LoadUserSettings()
	if err != nil {
		t.Fatalf("LoadUserSettings failed: %v", err)
	}
	if u != DefaultUserSettings() {
		t.Errorf("fresh settings = %+v, want defaults", u)
	}

	saved := UserSettings{
		RiskPercent:          1.5,
		DefaultNotional:      2500,
		MinQuoteVolume:       1e6,
		NotificationsEnabled: false,
	}
	if err := s.SaveUserSettings(saved); err != nil {
		t.Fatalf("SaveUserSettings failed: %v", err)
	}

	u, err = s.LoadUserSettings()
	if err != nil {
		t.Fatalf("LoadUserSettings failed: %v", err)
	}
	if u != saved {
		t.Errorf("loaded settings = %+v, want %+v", u, saved)
	}
}

func TestAlertState_RoundTrip(t *testing.T) {
	s := newTestStorage(t)

	state := models.AlertState{
		Symbol:            "PEPEUSDT",
		MessageHandle:     42,
		LastChangePercent: 33.4,
		LastUpdateAt:      time.Now().Truncate(time.Microsecond),
	}
	if err := s.SaveAlertState(state); err != nil {
		t.Fatalf("SaveAlertState failed: %v", err)
	}

	states, err := s.LoadAlertStates()
	if err != nil {
		t.Fatalf("LoadAlertStates failed: %v", err)
	}
	if len(states) != 1 {
		t.Fatalf("states length = %d, want 1", len(states))
	}
	got := states[0]
	if got.Symbol != state.Symbol || got.MessageHandle != state.MessageHandle {
		t.Errorf("loaded state = %+v, want %+v", got, state)
	}
	if !got.LastUpdateAt.Equal(state.LastUpdateAt) {
		t.Errorf("last update at = %v, want %v", got.LastUpdateAt, state.LastUpdateAt)
	}

	// Saving again for the same symbol replaces the row.
	state.MessageHandle = 43
	if err := s.SaveAlertState(state); err != nil {
		t.Fatalf("SaveAlertState failed: %v", err)
	}
	states, _ = s.LoadAlertStates()
	if len(states) != 1 || states[0].MessageHandle != 43 {
		t.Errorf("expected replaced state with handle 43, got %+v", states)
	}

	if err := s.DeleteAlertState("PEPEUSDT"); err != nil {
		t.Fatalf("DeleteAlertState failed: %v", err)
	}
	states, _ = s.LoadAlertStates()
	if len(states) != 0 {
		t.Errorf("states after delete = %d, want 0", len(states))
	}
}

func TestRecordAlert_PrunesToCap(t *testing.T) {
	s := newTestStorage(t) // cap = 5

	base := time.Now()
	for i := 0; i < 8; i++ {
		rec := models.AlertRecord{
			ID:            uuid.New().String(),
			Symbol:        "PEPEUSDT",
			ChangePercent: 30 + float64(i),
			LastPrice:     1.0,
			Action:        models.AlertSent,
			MessageHandle: i,
			At:            base.Add(time.Duration(i) * time.Second),
		}
		if err := s.RecordAlert(rec); err != nil {
			t.Fatalf("RecordAlert failed: %v", err)
		}
	}

	recs, err := s.RecentAlerts(100)
	if err != nil {
		t.Fatalf("RecentAlerts failed: %v", err)
	}
	if len(recs) != 5 {
		t.Fatalf("alerts length = %d, want 5 (pruned)", len(recs))
	}
	// Newest first, and the oldest three rows are gone.
	if recs[0].MessageHandle != 7 || recs[len(recs)-1].MessageHandle != 3 {
		t.Errorf("unexpected pruning window: first=%d last=%d", recs[0].MessageHandle, recs[len(recs)-1].MessageHandle)
	}
}

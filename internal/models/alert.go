package models

import "time"

// AlertState is the watcher's local record for one tracked symbol. It is
// created on the first threshold crossing, refreshed on each accepted
// update, and dropped when the symbol falls below the hysteresis floor or
// the remote edit fails irrecoverably.
type AlertState struct {
	Symbol            string    `json:"symbol"`
	MessageHandle     int       `json:"message_handle"` // opaque sink handle
	LastChangePercent float64   `json:"last_change_percent"`
	LastUpdateAt      time.Time `json:"last_update_at"`
}

// AlertAction names the outbound mutation recorded in the audit log.
type AlertAction string

const (
	AlertSent   AlertAction = "sent"
	AlertEdited AlertAction = "edited"
)

// AlertRecord is one row of the persisted alert audit log.
type AlertRecord struct {
	ID            string      `json:"id"`
	Symbol        string      `json:"symbol"`
	ChangePercent float64     `json:"change_percent"`
	LastPrice     float64     `json:"last_price"`
	Action        AlertAction `json:"action"`
	MessageHandle int         `json:"message_handle"`
	At            time.Time   `json:"at"`
}

package models

import "time"

// SessionEntry is one persisted key of a browser session, stored as raw JSON.
type SessionEntry struct {
	Key       string    `gorm:"primaryKey;size:255" json:"key"`
	Value     []byte    `gorm:"type:bytea" json:"value"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SessionEntry) TableName() string { return "session_entries" }

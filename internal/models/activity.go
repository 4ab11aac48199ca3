package models

import (
	"encoding/json"
	"time"
)

// Activity actions recorded against tracked entities.
const (
	ActivityCreated = "created"
	ActivityUpdated = "updated"
	ActivityDeleted = "deleted"
)

// ActivityLog is one append-only audit trail entry. Entries are written as an
// explicit step of every create/update/delete and are never mutated.
type ActivityLog struct {
	ID          string          `db:"id" json:"id"`
	UserID      *string         `db:"user_id" json:"user_id,omitempty"`
	UserName    *string         `db:"user_name" json:"user_name,omitempty"`
	SubjectType string          `db:"subject_type" json:"subject_type"`
	SubjectID   *string         `db:"subject_id" json:"subject_id,omitempty"`
	Action      string          `db:"action" json:"action"`
	Description string          `db:"description" json:"description"`
	Properties  json.RawMessage `db:"properties" json:"properties,omitempty"`
	IPAddress   string          `db:"ip_address" json:"ip_address"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// ActivityChange captures old/new snapshots for update entries.
type ActivityChange struct {
	Old     interface{} `json:"old,omitempty"`
	New     interface{} `json:"new,omitempty"`
	Changed []string    `json:"changed,omitempty"`
}

package models

import "time"

// Group represents a class section symbol. Groups are standalone; a stage
// adopts one through its configuration matrix rather than owning it.
type Group struct {
	ID        string    `db:"id" json:"id"`
	Symbol    string    `db:"symbol" json:"symbol"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SaveGroupRequest carries a group create or update payload.
type SaveGroupRequest struct {
	Symbol string `json:"symbol" validate:"required,min=1,max=10"`
}

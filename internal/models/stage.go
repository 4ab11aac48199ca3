package models

import "time"

// Stage represents an academic year level.
type Stage struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StageConfiguration declares that a stage offers a study type with a group
// as a valid section. Rows are replaced wholesale on every stage update.
type StageConfiguration struct {
	ID          string `db:"id" json:"id"`
	StageID     string `db:"stage_id" json:"stage_id"`
	StudyTypeID string `db:"study_type_id" json:"study_type_id"`
	GroupID     string `db:"group_id" json:"group_id"`
}

// StageConfigurationDetail expands a configuration with display names.
type StageConfigurationDetail struct {
	StageConfiguration
	StudyTypeName string `db:"study_type_name" json:"study_type_name"`
	GroupSymbol   string `db:"group_symbol" json:"group_symbol"`
}

// StageDetail bundles a stage with its expanded configuration list.
type StageDetail struct {
	Stage
	Configurations []StageConfigurationDetail `json:"configurations"`
}

// StageStudyTypeInput declares the group sections a stage offers under one
// study type.
type StageStudyTypeInput struct {
	ID     string   `json:"id" validate:"required,uuid4"`
	Groups []string `json:"groups" validate:"required,min=1,dive,uuid4"`
}

// SaveStageRequest carries a stage create or update payload. The study type
// list flattens into (study type, group) configuration rows that replace the
// stored set wholesale.
type SaveStageRequest struct {
	Name       string                `json:"name" validate:"required,min=2,max=100"`
	Code       string                `json:"code" validate:"required,min=1,max=20"`
	StudyTypes []StageStudyTypeInput `json:"study_types" validate:"dive"`
}

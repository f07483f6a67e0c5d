package models

import (
	"time"

	"gorm.io/gorm"
)

// SourcePreference persists a user's per-source settings across
// restarts: whether the source is sampled and optional threshold
// overrides (0 means use the catalog default). A missing row means
// enabled with catalog defaults, so the enabled column carries no
// schema default.
type SourcePreference struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	SourceID        string         `gorm:"not null;uniqueIndex" json:"source_id"`
	Enabled         bool           `gorm:"not null" json:"enabled"`
	ActivateAfter   int            `gorm:"not null;default:0" json:"activate_after"`
	DeactivateAfter int            `gorm:"not null;default:0" json:"deactivate_after"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

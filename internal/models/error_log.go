package models

import (
	"time"

	"gorm.io/gorm"
)

// ProbeError records a probe diagnostic: a timeout or an unexpected
// sampling failure. Helps tell "legitimately idle" from "probe stuck".
type ProbeError struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Timestamp time.Time      `gorm:"not null;index" json:"timestamp"`
	SourceID  string         `gorm:"not null;index" json:"source_id"`
	Timeout   bool           `gorm:"not null;default:false" json:"timeout"`
	ErrorMsg  string         `gorm:"not null" json:"error_msg"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

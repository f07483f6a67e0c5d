package models

import (
	"time"

	"gorm.io/gorm"
)

// Transition records one committed activity flip of a source. Duration
// is filled on deactivation with how long the source had been active.
type Transition struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Timestamp time.Time      `gorm:"not null;index" json:"timestamp"`
	SourceID  string         `gorm:"not null;index" json:"source_id"`
	Active    bool           `gorm:"not null" json:"active"`
	Duration  int64          `gorm:"not null;default:0" json:"duration"` // Seconds active, set when Active is false
	Detail    string         `gorm:"" json:"detail"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// SourceSummary aggregates active time per source over a period.
type SourceSummary struct {
	SourceID     string  `json:"source_id"`
	TotalSeconds int64   `json:"total_seconds"`
	TotalMinutes float64 `json:"total_minutes"`
	TotalHours   float64 `json:"total_hours"`
	Activations  int     `json:"activations"`
	Percentage   float64 `json:"percentage,omitempty"`
}

// ReportPeriod bounds one report.
type ReportPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Type  string    `json:"type"` // "day", "week", "month"
}

// Report is the per-source activity breakdown for a period.
type Report struct {
	Period       ReportPeriod    `json:"period"`
	Sources      []SourceSummary `json:"sources"`
	TotalSeconds int64           `json:"total_seconds"`
	GeneratedAt  time.Time       `json:"generated_at"`
}

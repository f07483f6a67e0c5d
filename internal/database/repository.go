package database

import (
	"time"

	"github.com/pulsemon/pulsemon/internal/models"

	"github.com/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository handles all database operations for transitions,
// preferences and probe diagnostics
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// CreateTransition inserts a committed activity flip
func (r *Repository) CreateTransition(t *models.Transition) error {
	result := r.db.Create(t)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert transition")
	}
	return nil
}

// GetTransitionsSince retrieves all transitions since a given time
func (r *Repository) GetTransitionsSince(since time.Time) ([]*models.Transition, error) {
	var transitions []*models.Transition
	result := r.db.Where("timestamp >= ?", since).Order("timestamp ASC").Find(&transitions)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query transitions")
	}
	return transitions, nil
}

// GetLatestTransition returns the most recent transition for a source
func (r *Repository) GetLatestTransition(sourceID string) (*models.Transition, error) {
	var t models.Transition
	result := r.db.Where("source_id = ?", sourceID).Order("timestamp DESC").First(&t)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, errors.Wrap(result.Error, "failed to get latest transition")
	}
	return &t, nil
}

// GetSourceSummarySince returns aggregated active time per source.
// Deactivation rows carry the elapsed active duration, so SQL can SUM
// them directly.
func (r *Repository) GetSourceSummarySince(since time.Time) ([]models.SourceSummary, error) {
	var summaries []models.SourceSummary

	result := r.db.Model(&models.Transition{}).
		Select("source_id, SUM(duration) as total_seconds, COUNT(*) as activations").
		Where("timestamp >= ? AND active = ?", since, false).
		Group("source_id").
		Order("total_seconds DESC").
		Scan(&summaries)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query source summary")
	}

	return summaries, nil
}

// DeleteOldTransitions deletes transitions older than a given date (soft delete)
func (r *Repository) DeleteOldTransitions(before time.Time) (int64, error) {
	result := r.db.Where("timestamp < ?", before).Delete(&models.Transition{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to delete old transitions")
	}
	return result.RowsAffected, nil
}

// UpsertPreference stores or updates a source preference
func (r *Repository) UpsertPreference(pref *models.SourcePreference) error {
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source_id"}},
		UpdateAll: true,
	}).Create(pref)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to upsert source preference")
	}
	return nil
}

// SetPreferenceEnabled flips only the enabled column, creating the row
// if needed. Stored threshold overrides survive the toggle.
func (r *Repository) SetPreferenceEnabled(sourceID string, enabled bool) error {
	pref := models.SourcePreference{SourceID: sourceID, Enabled: enabled}
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"enabled", "updated_at"}),
	}).Create(&pref)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update source preference")
	}
	return nil
}

// GetPreferences returns all stored source preferences
func (r *Repository) GetPreferences() ([]*models.SourcePreference, error) {
	var prefs []*models.SourcePreference
	result := r.db.Find(&prefs)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query source preferences")
	}
	return prefs, nil
}

// GetPreference returns the stored preference for one source
func (r *Repository) GetPreference(sourceID string) (*models.SourcePreference, error) {
	var pref models.SourcePreference
	result := r.db.Where("source_id = ?", sourceID).First(&pref)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, errors.Wrap(result.Error, "failed to get source preference")
	}
	return &pref, nil
}

// CreateProbeError records a probe diagnostic
func (r *Repository) CreateProbeError(e *models.ProbeError) error {
	result := r.db.Create(e)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert probe error")
	}
	return nil
}

// GetProbeErrorsSince retrieves probe diagnostics since a given time
func (r *Repository) GetProbeErrorsSince(since time.Time) ([]*models.ProbeError, error) {
	var errs []*models.ProbeError
	result := r.db.Where("timestamp >= ?", since).Order("timestamp DESC").Find(&errs)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query probe errors")
	}
	return errs, nil
}

// ClearAll removes every stored row. Used by the CLI "clear" command.
func (r *Repository) ClearAll() error {
	for _, model := range []interface{}{
		&models.Transition{}, &models.SourcePreference{}, &models.ProbeError{},
	} {
		if err := r.db.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Unscoped().Delete(model).Error; err != nil {
			return errors.Wrap(err, "failed to clear table")
		}
	}
	return nil
}

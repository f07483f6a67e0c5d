package reporter

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pulsemon/pulsemon/internal/config"
	"github.com/pulsemon/pulsemon/internal/database"
	"github.com/pulsemon/pulsemon/internal/models"
	"github.com/pulsemon/pulsemon/pkg/utils"
)

// Reporter handles activity report generation
type Reporter struct {
	config *config.Config
	repo   *database.Repository
}

// New creates a new reporter
func New(cfg *config.Config, repo *database.Repository) *Reporter {
	return &Reporter{
		config: cfg,
		repo:   repo,
	}
}

// GenerateReport generates a per-source activity report for the period
func (r *Reporter) GenerateReport(periodType string) (*models.Report, error) {
	period, err := GetPeriod(periodType)
	if err != nil {
		return nil, err
	}

	// SQL sums the durations; runtime computes derived fields
	summaries, err := r.repo.GetSourceSummarySince(period.Start)
	if err != nil {
		return nil, fmt.Errorf("failed to get source summary: %w", err)
	}

	var totalSeconds int64
	for i := range summaries {
		summaries[i].TotalMinutes = float64(summaries[i].TotalSeconds) / 60.0
		summaries[i].TotalHours = float64(summaries[i].TotalSeconds) / 3600.0
		totalSeconds += summaries[i].TotalSeconds
	}

	if totalSeconds > 0 {
		for i := range summaries {
			summaries[i].Percentage = float64(summaries[i].TotalSeconds) / float64(totalSeconds) * 100.0
		}
	}

	return &models.Report{
		Period:       *period,
		Sources:      summaries,
		TotalSeconds: totalSeconds,
		GeneratedAt:  time.Now(),
	}, nil
}

// FormatText renders a report for terminal output
func (r *Reporter) FormatText(report *models.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Activity report (%s): %s - %s\n",
		report.Period.Type,
		report.Period.Start.Format("2006-01-02 15:04"),
		report.Period.End.Format("2006-01-02 15:04"))

	if len(report.Sources) == 0 {
		b.WriteString("No recorded activity.\n")
		return b.String()
	}

	for _, s := range report.Sources {
		fmt.Fprintf(&b, "  %-14s %8s  %3d activations  %5.1f%%\n",
			s.SourceID,
			utils.FormatRoundedUnit(s.TotalSeconds),
			s.Activations,
			s.Percentage)
	}
	fmt.Fprintf(&b, "Total active time: %s\n", utils.FormatRoundedUnit(report.TotalSeconds))

	return b.String()
}

// FormatJSON renders a report as indented JSON
func (r *Reporter) FormatJSON(report *models.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	return string(data), nil
}

// GetPeriod resolves a period name to its time bounds
func GetPeriod(periodType string) (*models.ReportPeriod, error) {
	now := time.Now()
	var start time.Time

	switch periodType {
	case "day", "":
		periodType = "day"
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case "week":
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday belongs to the current week
		}
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		start = day.AddDate(0, 0, -(weekday - 1))
	case "month":
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	default:
		return nil, fmt.Errorf("invalid period %q (want day, week or month)", periodType)
	}

	return &models.ReportPeriod{Start: start, End: now, Type: periodType}, nil
}

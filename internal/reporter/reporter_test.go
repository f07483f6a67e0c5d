package reporter

import (
	"strings"
	"testing"
	"time"

	"github.com/pulsemon/pulsemon/internal/config"
	"github.com/pulsemon/pulsemon/internal/database"
	"github.com/pulsemon/pulsemon/internal/models"
)

func TestGetPeriod(t *testing.T) {
	tests := []struct {
		name       string
		periodType string
		wantType   string
		wantErr    bool
	}{
		{"day", "day", "day", false},
		{"empty defaults to day", "", "day", false},
		{"week", "week", "week", false},
		{"month", "month", "month", false},
		{"invalid", "year", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			period, err := GetPeriod(tt.periodType)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("GetPeriod: %v", err)
			}
			if period.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", period.Type, tt.wantType)
			}
			if !period.Start.Before(period.End) && !period.Start.Equal(period.End) {
				t.Errorf("Start %v after End %v", period.Start, period.End)
			}
		})
	}
}

func TestGetPeriodWeekStartsMonday(t *testing.T) {
	period, err := GetPeriod("week")
	if err != nil {
		t.Fatal(err)
	}
	if period.Start.Weekday() != time.Monday {
		t.Errorf("week start = %v, want Monday", period.Start.Weekday())
	}
	if period.Start.Hour() != 0 || period.Start.Minute() != 0 {
		t.Errorf("week start not at midnight: %v", period.Start)
	}
}

func TestGenerateReport(t *testing.T) {
	db, err := database.Connect(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	repo := database.NewRepository(db)
	r := New(config.Default(), repo)

	now := time.Now()
	seed := []*models.Transition{
		{Timestamp: now.Add(-2 * time.Hour), SourceID: "make", Active: false, Duration: 900},
		{Timestamp: now.Add(-1 * time.Hour), SourceID: "dropbox", Active: false, Duration: 100},
	}
	for _, e := range seed {
		if err := repo.CreateTransition(e); err != nil {
			t.Fatal(err)
		}
	}

	report, err := r.GenerateReport("month")
	if err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}

	if report.TotalSeconds != 1000 {
		t.Errorf("TotalSeconds = %d, want 1000", report.TotalSeconds)
	}
	if len(report.Sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(report.Sources))
	}
	// Ordered by total time descending.
	if report.Sources[0].SourceID != "make" {
		t.Errorf("first source = %q, want make", report.Sources[0].SourceID)
	}
	if got := report.Sources[0].Percentage; got != 90.0 {
		t.Errorf("make percentage = %.1f, want 90.0", got)
	}
	if got := report.Sources[0].TotalMinutes; got != 15.0 {
		t.Errorf("make minutes = %.1f, want 15.0", got)
	}
}

func TestFormatText(t *testing.T) {
	r := New(config.Default(), nil)

	report := &models.Report{
		Period: models.ReportPeriod{
			Start: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
			Type:  "month",
		},
		Sources: []models.SourceSummary{
			{SourceID: "make", TotalSeconds: 900, Activations: 3, Percentage: 90},
		},
		TotalSeconds: 900,
	}

	out := r.FormatText(report)
	for _, want := range []string{"Activity report (month)", "make", "3 activations", "Total active time"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	empty := r.FormatText(&models.Report{Period: report.Period})
	if !strings.Contains(empty, "No recorded activity") {
		t.Errorf("empty report output missing placeholder:\n%s", empty)
	}
}

func TestFormatJSON(t *testing.T) {
	r := New(config.Default(), nil)
	report := &models.Report{
		Period:       models.ReportPeriod{Type: "day"},
		TotalSeconds: 42,
	}
	out, err := r.FormatJSON(report)
	if err != nil {
		t.Fatalf("FormatJSON: %v", err)
	}
	if !strings.Contains(out, `"total_seconds": 42`) {
		t.Errorf("JSON missing total_seconds field:\n%s", out)
	}
}

package probe

import (
	"context"
	"testing"
)

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Inactive, "inactive"},
		{Active, "active"},
		{Neutral, "neutral"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestBoolReading(t *testing.T) {
	r := BoolReading(true)
	if r.State != Active {
		t.Errorf("BoolReading(true).State = %v, want Active", r.State)
	}
	if r.Progress != -1 {
		t.Errorf("Progress = %v, want -1 (unknown)", r.Progress)
	}

	if r := BoolReading(false); r.State != Inactive {
		t.Errorf("BoolReading(false).State = %v, want Inactive", r.State)
	}
}

func TestFuncAdapter(t *testing.T) {
	var p Probe = Func(func(ctx context.Context) (Reading, error) {
		return BoolReading(true), nil
	})

	r, err := p.Sample(context.Background())
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if r.State != Active {
		t.Errorf("state = %v, want Active", r.State)
	}
}

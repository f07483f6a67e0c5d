package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/pulsemon/pulsemon/pkg/probe"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func TestSchedulerAddSourceValidation(t *testing.T) {
	agg := NewAggregator(nil)
	agg.Start()
	defer agg.Stop()
	s := NewScheduler(time.Second, agg)

	alwaysOn := probe.Func(func(ctx context.Context) (probe.Reading, error) {
		return probe.BoolReading(true), nil
	})

	tests := []struct {
		name    string
		spec    SourceSpec
		wantErr bool
	}{
		{
			name:    "valid",
			spec:    SourceSpec{ID: "ok", Probe: alwaysOn, Config: DebounceConfig{ActivateAfter: 1, DeactivateAfter: 1}},
			wantErr: false,
		},
		{
			name:    "duplicate identity",
			spec:    SourceSpec{ID: "ok", Probe: alwaysOn, Config: DebounceConfig{ActivateAfter: 1, DeactivateAfter: 1}},
			wantErr: true,
		},
		{
			name:    "empty identity",
			spec:    SourceSpec{Probe: alwaysOn, Config: DebounceConfig{ActivateAfter: 1, DeactivateAfter: 1}},
			wantErr: true,
		},
		{
			name:    "missing probe",
			spec:    SourceSpec{ID: "noprobe", Config: DebounceConfig{ActivateAfter: 1, DeactivateAfter: 1}},
			wantErr: true,
		},
		{
			name:    "invalid thresholds",
			spec:    SourceSpec{ID: "badcfg", Probe: alwaysOn, Config: DebounceConfig{}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.AddSource(tt.spec)
			if (err != nil) != tt.wantErr {
				t.Errorf("AddSource() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSchedulerRemoveUnknownSource(t *testing.T) {
	agg := NewAggregator(nil)
	agg.Start()
	defer agg.Stop()
	s := NewScheduler(time.Second, agg)

	if err := s.RemoveSource("ghost"); err == nil {
		t.Error("removing an unregistered source must fail")
	}
	if err := s.ResetSource("ghost"); err == nil {
		t.Error("resetting an unregistered source must fail")
	}
}

func TestSchedulerEndToEnd(t *testing.T) {
	agg := NewAggregator(nil)
	agg.Start()
	defer agg.Stop()
	s := NewScheduler(5*time.Millisecond, agg)

	alwaysOn := probe.Func(func(ctx context.Context) (probe.Reading, error) {
		return probe.BoolReading(true), nil
	})
	if err := s.AddSource(SourceSpec{
		ID:     "render",
		Probe:  alwaysOn,
		Config: DebounceConfig{ActivateAfter: 2, DeactivateAfter: 2},
	}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	waitFor(t, time.Second, func() bool {
		return agg.Active()["render"]
	})

	// Removal clears the published set.
	if err := s.RemoveSource("render"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, time.Second, func() bool {
		return len(agg.Active()) == 0
	})

	s.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestSchedulerHungSourceDoesNotStarveOthers(t *testing.T) {
	agg := NewAggregator(nil)
	agg.Start()
	defer agg.Stop()
	s := NewScheduler(5*time.Millisecond, agg)

	hung := probe.Func(func(ctx context.Context) (probe.Reading, error) {
		select {}
	})
	healthy := probe.Func(func(ctx context.Context) (probe.Reading, error) {
		return probe.BoolReading(true), nil
	})

	if err := s.AddSource(SourceSpec{
		ID:    "hung",
		Probe: hung,
		// No timeout: this lane stays blocked for the whole test.
		Config: DebounceConfig{ActivateAfter: 1, DeactivateAfter: 1},
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.AddSource(SourceSpec{
		ID:     "healthy",
		Probe:  healthy,
		Config: DebounceConfig{ActivateAfter: 1, DeactivateAfter: 1},
	}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx)
	defer s.Stop()

	waitFor(t, time.Second, func() bool {
		return agg.Active()["healthy"]
	})
	if agg.Active()["hung"] {
		t.Error("hung source should never have produced a reading")
	}
}

func TestSchedulerEveryStride(t *testing.T) {
	agg := NewAggregator(nil)
	agg.Start()
	defer agg.Stop()
	s := NewScheduler(5*time.Millisecond, agg)

	everyTick := &countingProbe{}
	strided := &countingProbe{}

	if err := s.AddSource(SourceSpec{ID: "fast", Probe: everyTick, Config: DebounceConfig{ActivateAfter: 1, DeactivateAfter: 1}}); err != nil {
		t.Fatal(err)
	}
	if err := s.AddSource(SourceSpec{ID: "slow", Probe: strided, Config: DebounceConfig{ActivateAfter: 1, DeactivateAfter: 1}, Every: 4}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx)

	waitFor(t, 2*time.Second, func() bool {
		return everyTick.calls.Load() >= 12
	})
	s.Stop()

	fast := everyTick.calls.Load()
	slow := strided.calls.Load()
	if slow == 0 {
		t.Fatal("strided source was never polled")
	}
	if slow > fast/2 {
		t.Errorf("strided source polled %d times vs %d for every-tick source, expected roughly a quarter", slow, fast)
	}
}

func TestSchedulerDoubleStart(t *testing.T) {
	agg := NewAggregator(nil)
	agg.Start()
	defer agg.Stop()
	s := NewScheduler(10*time.Millisecond, agg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx)

	waitFor(t, time.Second, s.IsRunning)

	if err := s.Start(ctx); err == nil {
		t.Error("second Start must fail while running")
	}
	s.Stop()
}

func TestSchedulerIsSingleUse(t *testing.T) {
	agg := NewAggregator(nil)
	agg.Start()
	defer agg.Stop()
	s := NewScheduler(10*time.Millisecond, agg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx)

	waitFor(t, time.Second, s.IsRunning)
	s.Stop()
	waitFor(t, time.Second, func() bool { return !s.IsRunning() })

	// A stopped scheduler does not run again: Start returns right away.
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start after Stop returned %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Start after Stop did not return")
	}
}

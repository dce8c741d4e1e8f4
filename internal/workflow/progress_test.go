package workflow

import (
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/ifcmat/internal/shared"
)

type sinkRecorder struct {
	mu     sync.Mutex
	values []float64
}

func (s *sinkRecorder) sink(p float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = append(s.values, p)
}

func (s *sinkRecorder) snapshot() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.values...)
}

func (s *sinkRecorder) waitFor(t *testing.T, n int) []float64 {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if v := s.snapshot(); len(v) >= n {
			return v
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d values, got %v", n, s.snapshot())
	return nil
}

func assertMonotonicBelow100(t *testing.T, values []float64) {
	t.Helper()
	for i, v := range values {
		if v >= 100 {
			t.Errorf("value %d = %v reached 100", i, v)
		}
		if i > 0 && v < values[i-1] {
			t.Errorf("value %d = %v decreased from %v", i, v, values[i-1])
		}
	}
}

func TestEventReporter(t *testing.T) {
	t.Run("converts bytes to percent", func(t *testing.T) {
		rec := &sinkRecorder{}
		r := NewEventReporter(0)
		r.Start(rec.sink)

		r.Observe(25, 100)
		r.Observe(10, 100)
		r.Observe(50, 100)
		r.Observe(100, 100)

		got := rec.snapshot()
		want := []float64{25, 50, advisoryCeiling}
		if len(got) != len(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("value %d: expected %v, got %v", i, want[i], got[i])
			}
		}
	})

	t.Run("ignores unknown totals", func(t *testing.T) {
		rec := &sinkRecorder{}
		r := NewEventReporter(0)
		r.Start(rec.sink)
		r.Observe(10, 0)
		r.Observe(0, 10)
		if len(rec.snapshot()) != 0 {
			t.Errorf("expected no values, got %v", rec.snapshot())
		}
	})

	t.Run("throttles intermediate values but not the ceiling", func(t *testing.T) {
		rec := &sinkRecorder{}
		r := NewEventReporter(time.Hour)
		r.Start(rec.sink)

		for sent := int64(1); sent <= 100; sent++ {
			r.Observe(sent, 100)
		}

		got := rec.snapshot()
		if len(got) != 2 || got[0] != 1 || got[1] != advisoryCeiling {
			t.Errorf("expected [1 %v], got %v", advisoryCeiling, got)
		}
	})

	t.Run("stop silences and restart resets", func(t *testing.T) {
		rec := &sinkRecorder{}
		r := NewEventReporter(0)
		r.Start(rec.sink)
		r.Observe(80, 100)
		r.Stop()
		r.Stop()
		r.Observe(90, 100)

		if got := rec.snapshot(); len(got) != 1 {
			t.Fatalf("expected one value before stop, got %v", got)
		}

		next := &sinkRecorder{}
		r.Start(next.sink)
		r.Observe(10, 100)
		if got := next.snapshot(); len(got) != 1 || got[0] != 10 {
			t.Errorf("expected a fresh attempt starting low, got %v", got)
		}
	})
}

func TestSimulatedReporter(t *testing.T) {
	t.Run("ramps to the ceiling", func(t *testing.T) {
		rec := &sinkRecorder{}
		r := NewSimulatedReporter(time.Millisecond, 30, 90)
		r.Start(rec.sink)
		defer r.Stop()

		got := rec.waitFor(t, 3)
		assertMonotonicBelow100(t, got)
		if got[0] != 30 || got[len(got)-1] != 90 {
			t.Errorf("expected ramp 30..90, got %v", got)
		}

		time.Sleep(10 * time.Millisecond)
		if after := rec.snapshot(); len(after) != 3 {
			t.Errorf("expected ramp to hold at the ceiling, got %v", after)
		}
	})

	t.Run("stop is deterministic", func(t *testing.T) {
		rec := &sinkRecorder{}
		r := NewSimulatedReporter(time.Millisecond, 1, 90)
		r.Start(rec.sink)
		rec.waitFor(t, 2)

		r.Stop()
		stopped := len(rec.snapshot())
		time.Sleep(10 * time.Millisecond)
		if got := len(rec.snapshot()); got != stopped {
			t.Errorf("sink called after Stop: %d -> %d", stopped, got)
		}
		r.Stop()
	})

	t.Run("restart begins from zero", func(t *testing.T) {
		first := &sinkRecorder{}
		r := NewSimulatedReporter(time.Millisecond, 40, 80)
		r.Start(first.sink)
		first.waitFor(t, 2)

		second := &sinkRecorder{}
		r.Start(second.sink)
		defer r.Stop()
		got := second.waitFor(t, 1)
		if got[0] != 40 {
			t.Errorf("expected restart at 40, got %v", got)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		r := NewSimulatedReporter(0, 0, 150)
		if r.interval != defaultTickInterval || r.step != defaultStep || r.ceiling != defaultCeiling {
			t.Errorf("unexpected defaults: %v %v %v", r.interval, r.step, r.ceiling)
		}
		r.Stop()
	})
}

func TestNewReporter(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		capable bool
		event   bool
	}{
		{"auto with capable transport", shared.ProgressAuto, true, true},
		{"auto without capability", shared.ProgressAuto, false, false},
		{"forced simulated", shared.ProgressSimulated, true, false},
		{"forced event", shared.ProgressEvent, true, true},
		{"event falls back", shared.ProgressEvent, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReporter(shared.ProgressConfig{Mode: tt.mode}, tt.capable, nil)
			_, isEvent := r.(*EventReporter)
			if isEvent != tt.event {
				t.Errorf("expected event reporter = %v, got %T", tt.event, r)
			}
		})
	}
}

func TestNewReporterAfterValidate(t *testing.T) {
	config := shared.DefaultConfig()
	config.Progress.Mode = "Simulated"
	if err := config.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	r := NewReporter(config.Progress, true, nil)
	if _, ok := r.(*SimulatedReporter); !ok {
		t.Errorf("expected *SimulatedReporter for mode %q, got %T", config.Progress.Mode, r)
	}
}

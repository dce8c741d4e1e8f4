package workflow

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ifcmat/internal/shared"
	"golang.org/x/time/rate"
)

const (
	// advisoryCeiling caps every intermediate value; only a confirmed success reaches 100.
	advisoryCeiling = 99.0

	defaultTickInterval = 500 * time.Millisecond
	defaultStep         = 10.0
	defaultCeiling      = 90.0
	defaultEventRate    = 50 * time.Millisecond
)

// Sink receives advisory progress percentages. It must not block.
type Sink func(percent float64)

// Reporter produces upload progress for one attempt at a time.
//
// Values passed to the sink are monotonically non-decreasing between Start and Stop
// and always below 100. Stop is idempotent; after it returns the sink is not called again.
type Reporter interface {
	Start(sink Sink)
	Observe(sent, total int64)
	Stop()
}

// NewReporter picks the progress strategy for the configured mode and transport capability.
func NewReporter(cfg shared.ProgressConfig, eventCapable bool, logger *log.Logger) Reporter {
	switch cfg.Mode {
	case shared.ProgressSimulated:
		return NewSimulatedReporter(cfg.Interval, cfg.Step, cfg.Ceiling)
	case shared.ProgressEvent:
		if eventCapable {
			return NewEventReporter(defaultEventRate)
		}
		if logger != nil {
			logger.Warn("transport does not report byte progress, using simulated progress")
		}
		return NewSimulatedReporter(cfg.Interval, cfg.Step, cfg.Ceiling)
	default:
		if eventCapable {
			return NewEventReporter(defaultEventRate)
		}
		return NewSimulatedReporter(cfg.Interval, cfg.Step, cfg.Ceiling)
	}
}

// EventReporter converts byte counts from the transport into percentages.
//
// Dispatch is throttled; a new maximum below the ceiling is dropped when it arrives
// faster than the configured interval.
type EventReporter struct {
	interval time.Duration

	mu      sync.Mutex
	sink    Sink
	last    float64
	limiter *rate.Limiter
}

// NewEventReporter creates a reporter dispatching at most once per interval. Zero disables throttling.
func NewEventReporter(interval time.Duration) *EventReporter {
	return &EventReporter{interval: interval}
}

func (r *EventReporter) Start(sink Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	limit := rate.Inf
	if r.interval > 0 {
		limit = rate.Every(r.interval)
	}
	r.sink = sink
	r.last = 0
	r.limiter = rate.NewLimiter(limit, 1)
}

func (r *EventReporter) Observe(sent, total int64) {
	if total <= 0 || sent <= 0 {
		return
	}

	pct := min(float64(sent)/float64(total)*100, advisoryCeiling)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sink == nil || pct <= r.last {
		return
	}
	if pct < advisoryCeiling && !r.limiter.Allow() {
		return
	}

	r.last = pct
	r.sink(pct)
}

func (r *EventReporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sink = nil
}

// SimulatedReporter ramps progress on a ticker while the call is outstanding.
type SimulatedReporter struct {
	interval time.Duration
	step     float64
	ceiling  float64

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewSimulatedReporter creates a ramp of step percent every interval, capped at ceiling.
// Non-positive values take the defaults (500ms, 10, 90); the ceiling is kept below 100.
func NewSimulatedReporter(interval time.Duration, step, ceiling float64) *SimulatedReporter {
	if interval <= 0 {
		interval = defaultTickInterval
	}
	if step <= 0 {
		step = defaultStep
	}
	if ceiling <= 0 || ceiling > advisoryCeiling {
		ceiling = defaultCeiling
	}
	return &SimulatedReporter{interval: interval, step: step, ceiling: ceiling}
}

func (r *SimulatedReporter) Start(sink Sink) {
	r.Stop()

	r.mu.Lock()
	defer r.mu.Unlock()

	stop := make(chan struct{})
	done := make(chan struct{})
	r.stop, r.done = stop, done

	go r.run(sink, stop, done)
}

func (r *SimulatedReporter) run(sink Sink, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	current := 0.0
	for current < r.ceiling {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		select {
		case <-stop:
			return
		default:
		}

		current = min(current+r.step, r.ceiling)
		sink(current)
	}
}

// Observe is a no-op; the ramp is time based.
func (r *SimulatedReporter) Observe(int64, int64) {}

// Stop cancels the ticker and waits for the ramp goroutine to exit.
func (r *SimulatedReporter) Stop() {
	r.mu.Lock()
	stop, done := r.stop, r.done
	r.stop, r.done = nil, nil
	r.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

package reembed

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker reports how many articles of a reembedding run have been
// processed and how many of them needed a new vector.
type ProgressTracker struct {
	mu             sync.Mutex
	writer         io.Writer
	total          int
	processed      int
	embedded       int
	reportInterval int
	lastReported   int
	started        time.Time
	running        bool
	now            func() time.Time
}

// NewProgressTracker creates a tracker for total articles that reports every
// reportInterval processed articles. An interval below 1 reports every update.
func NewProgressTracker(writer io.Writer, total, reportInterval int) *ProgressTracker {
	return &ProgressTracker{
		writer:         writer,
		total:          total,
		reportInterval: max(reportInterval, 1),
		now:            time.Now,
	}
}

// Start resets the counters and the clock.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.started = p.now()
	p.running = true
	p.processed = 0
	p.embedded = 0
	p.lastReported = 0
}

// Update records the running totals. processed is capped at the total.
func (p *ProgressTracker) Update(processed, embedded int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	p.processed = min(processed, p.total)
	p.embedded = embedded

	if p.processed-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.processed
	}
}

// Finish prints the final line. Counters keep their last values so a run
// that stopped early is not reported as complete.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	p.running = false
	p.report()
	fmt.Fprintln(p.writer)
}

// Elapsed returns the time since Start, or zero before it.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started.IsZero() {
		return 0
	}
	return p.now().Sub(p.started)
}

// Rate returns processed articles per second.
func (p *ProgressTracker) Rate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rate()
}

func (p *ProgressTracker) rate() float64 {
	elapsed := p.now().Sub(p.started).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(p.processed) / elapsed
}

// eta estimates the remaining time from the current rate.
func (p *ProgressTracker) eta() time.Duration {
	rate := p.rate()
	if rate <= 0 {
		return 0
	}
	remaining := float64(p.total - p.processed)
	return time.Duration(remaining / rate * float64(time.Second)).Round(time.Second)
}

// report prints the current progress. Must be called with lock held.
func (p *ProgressTracker) report() {
	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.processed) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rProgress: %d/%d articles (%.1f%%), %d embedded, %.1f articles/s, ETA %s",
		p.processed, p.total, percentage, p.embedded, p.rate(), p.eta())
}

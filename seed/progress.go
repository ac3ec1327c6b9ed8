package seed

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Progress reports how many records of a seed run have been written.
type Progress struct {
	writer         io.Writer
	total          int
	current        int
	reportInterval int
	lastReported   int
	startTime      time.Time
	started        bool
	mu             sync.Mutex
}

// NewProgress creates a tracker that writes a status line every
// reportInterval records.
func NewProgress(writer io.Writer, total, reportInterval int) *Progress {
	if reportInterval <= 0 {
		reportInterval = 1
	}
	return &Progress{
		writer:         writer,
		total:          total,
		reportInterval: reportInterval,
	}
}

func (p *Progress) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.current = 0
	p.lastReported = 0
}

// Add records delta more written records. Ignored before Start.
func (p *Progress) Add(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.current += delta
	if p.current > p.total {
		p.current = p.total
	}

	if p.current-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.current
	}
}

// Finish prints the final line. The count shown is what was actually
// written, so an aborted run does not claim completion.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.report()
	fmt.Fprintln(p.writer)
}

func (p *Progress) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *Progress) report() {
	elapsed := time.Since(p.startTime)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(p.current) / elapsed.Seconds()
	}

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.current) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rSeeding: %d/%d (%.1f%%) - %.1f records/s",
		p.current, p.total, percentage, rate)
}

// Package progress shows feedback while casebrief waits on the language model.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Reporter signals that a slow step is running.
type Reporter interface {
	Start(message string)
	Stop()
}

// NewReporter returns a CIReporter if the CI environment variable is set,
// otherwise a TerminalReporter. Both write to w.
func NewReporter(w io.Writer) Reporter {
	if w == nil {
		w = os.Stderr
	}
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &CIReporter{w: w}
	}
	return &TerminalReporter{w: w, interval: 100 * time.Millisecond}
}

// TerminalReporter animates a spinner until Stop is called.
type TerminalReporter struct {
	w        io.Writer
	interval time.Duration

	mu   sync.Mutex
	bar  *progressbar.ProgressBar
	done chan struct{}
	wg   sync.WaitGroup
}

func (r *TerminalReporter) Start(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar != nil {
		r.bar.Describe(message)
		return
	}

	r.bar = progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(r.w),
		progressbar.OptionSetDescription(message),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	r.done = make(chan struct{})

	bar, done := r.bar, r.done
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()
}

func (r *TerminalReporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar == nil {
		return
	}
	close(r.done)
	r.wg.Wait()
	_ = r.bar.Finish()
	r.bar, r.done = nil, nil
}

// CIReporter prints one line per step, suitable for CI logs.
type CIReporter struct {
	w     io.Writer
	start time.Time
}

func (r *CIReporter) Start(message string) {
	r.start = time.Now()
	fmt.Fprintf(r.w, "%s...\n", message)
}

func (r *CIReporter) Stop() {
	if r.start.IsZero() {
		return
	}
	fmt.Fprintf(r.w, "done in %s\n", time.Since(r.start).Round(time.Millisecond))
	r.start = time.Time{}
}

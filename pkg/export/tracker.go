package export

import (
	"sync"

	"github.com/gdexport/gdexport/pkg/diagnostic"
)

// tracker forwards to the run's Reporter, dropping progress that would go backwards
// and keeping a copy of every error for the Result
type tracker struct {
	diagnostic.Reporter

	mu       sync.Mutex
	reported bool
	percent  float64
	errors   []string
}

func newTracker(rep diagnostic.Reporter) *tracker {
	return &tracker{Reporter: rep}
}

func (t *tracker) OnPercentUpdate(percent float64) {
	t.mu.Lock()
	if t.reported && percent <= t.percent {
		t.mu.Unlock()
		return
	}
	t.reported = true
	t.percent = percent
	t.mu.Unlock()

	t.Reporter.OnPercentUpdate(percent)
}

func (t *tracker) AddError(text string) {
	t.mu.Lock()
	t.errors = append(t.errors, text)
	t.mu.Unlock()

	t.Reporter.AddError(text)
}

// Errors returns a copy of the errors reported during the run
func (t *tracker) Errors() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.errors...)
}

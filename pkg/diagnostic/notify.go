package diagnostic

import (
	"errors"
	"strings"
	"time"
)

// OutcomeNotifier is told how an export ended
type OutcomeNotifier interface {
	NotifyExportSuccess(project string, duration time.Duration, errorCount int)
	NotifyExportFailure(project string, err error)
}

// NotifyReporter decorates a Reporter and sends a notification on the terminal outcome
type NotifyReporter struct {
	Reporter
	notifier OutcomeNotifier
	project  string
	started  time.Time
}

// NewNotifyReporter wraps inner so that project's outcome is sent to notifier
func NewNotifyReporter(inner Reporter, notifier OutcomeNotifier, project string) *NotifyReporter {
	return &NotifyReporter{
		Reporter: inner,
		notifier: notifier,
		project:  project,
		started:  time.Now(),
	}
}

func (r *NotifyReporter) OnCompilationFailed() {
	r.Reporter.OnCompilationFailed()
	summary := strings.TrimSpace(r.GetErrors())
	if i := strings.IndexByte(summary, '\n'); i >= 0 {
		summary = summary[:i]
	}
	if summary == "" {
		summary = "export failed"
	}
	r.notifier.NotifyExportFailure(r.project, errors.New(summary))
}

func (r *NotifyReporter) OnCompilationSucceeded() {
	r.Reporter.OnCompilationSucceeded()
	errorCount := 0
	if counted, ok := r.Reporter.(interface{ Errors() []string }); ok {
		errorCount = len(counted.Errors())
	} else if text := strings.TrimSpace(r.GetErrors()); text != "" {
		errorCount = strings.Count(text, "\n") + 1
	}
	r.notifier.NotifyExportSuccess(r.project, time.Since(r.started), errorCount)
}

package diagnostic

import (
	"github.com/gdexport/gdexport/pkg/logger"
)

// LogReporter forwards every call to a structured logger
type LogReporter struct {
	*State
	log logger.Logger
}

// NewLogReporter creates a reporter writing to log
func NewLogReporter(log logger.Logger) *LogReporter {
	return &LogReporter{State: NewState(), log: log}
}

func (r *LogReporter) OnMessage(text, detail string) {
	if detail == "" {
		r.log.Info(text)
		return
	}
	r.log.Info(text, logger.WithField("detail", detail))
}

func (r *LogReporter) OnPercentUpdate(percent float64) {
	r.State.OnPercentUpdate(percent)
	r.log.Debug("Progress", logger.WithField("percent", int(percent)))
}

func (r *LogReporter) AddError(text string) {
	r.State.AddError(text)
	r.log.Error(text)
}

func (r *LogReporter) OnCompilationFailed() {
	r.State.OnCompilationFailed()
	r.log.Error("Export failed", logger.WithField("errors", len(r.Errors())))
}

func (r *LogReporter) OnCompilationSucceeded() {
	r.State.OnCompilationSucceeded()
	if n := len(r.Errors()); n > 0 {
		r.log.Warn("Export completed with errors", logger.WithField("errors", n))
		return
	}
	r.log.Success("Export completed")
}

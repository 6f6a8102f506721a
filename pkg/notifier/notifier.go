// Package notifier sends desktop notifications when an export finishes
package notifier

import (
	"fmt"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/gdexport/gdexport/pkg/logger"
)

// ExportNotifier sends export notifications
type ExportNotifier struct {
	enabled bool
	sound   bool
	logger  logger.Logger
	send    func(title, message string) error
}

// Config represents notification configuration
type Config struct {
	Enabled bool
	Sound   bool
}

// New creates a new export notifier backed by desktop notifications
func New(config Config, log logger.Logger) *ExportNotifier {
	return &ExportNotifier{
		enabled: config.Enabled,
		sound:   config.Sound,
		logger:  log,
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

// NewWithSender creates a notifier delivering through send instead of the desktop
func NewWithSender(config Config, log logger.Logger, send func(title, message string) error) *ExportNotifier {
	n := New(config, log)
	n.send = send
	return n
}

// NotifyExportStart notifies that an export has started
func (n *ExportNotifier) NotifyExportStart(project string) {
	if !n.enabled {
		return
	}
	n.sendNotification("gdexport", fmt.Sprintf("Exporting %s...", project), false)
}

// NotifyExportSuccess notifies that an export completed
func (n *ExportNotifier) NotifyExportSuccess(project string, duration time.Duration, errorCount int) {
	if !n.enabled {
		return
	}

	title := "Export Succeeded"
	message := fmt.Sprintf("%s exported in %s", project, formatDuration(duration))
	if errorCount > 0 {
		title = "Export Completed With Errors"
		message = fmt.Sprintf("%s exported in %s with %d error(s)", project, formatDuration(duration), errorCount)
	}
	n.sendNotification(title, message, false)
}

// NotifyExportFailure notifies that an export failed
func (n *ExportNotifier) NotifyExportFailure(project string, err error) {
	if !n.enabled {
		return
	}
	n.sendNotification("Export Failed", fmt.Sprintf("%s: %v", project, err), true)
}

func (n *ExportNotifier) sendNotification(title, message string, alert bool) {
	if err := n.send(title, message); err != nil && n.logger != nil {
		n.logger.Debug("Failed to send notification", logger.WithField("error", err))
	}

	if alert && n.sound {
		if err := beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration); err != nil && n.logger != nil {
			n.logger.Debug("Failed to play sound", logger.WithField("error", err))
		}
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}

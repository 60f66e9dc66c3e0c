// Package notifier sends desktop notifications when an export finishes
package notifier

import (
	"fmt"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/o3de-mps/mpsexport/pkg/logger"
)

// SendFunc delivers one notification. The default uses beeep.
type SendFunc func(title, message string) error

// ExportNotifier reports export progress to the desktop
type ExportNotifier struct {
	enabled bool
	sound   bool
	send    SendFunc
	logger  logger.Logger
}

// Config represents notification configuration
type Config struct {
	Enabled bool
	// Sound beeps on failure.
	Sound bool
}

// New creates a new export notifier
func New(config Config, log logger.Logger) *ExportNotifier {
	return &ExportNotifier{
		enabled: config.Enabled,
		sound:   config.Sound,
		send:    func(title, message string) error { return beeep.Notify(title, message, "") },
		logger:  logger.OrNop(log),
	}
}

// WithSender replaces the delivery function
func (n *ExportNotifier) WithSender(send SendFunc) *ExportNotifier {
	n.send = send
	return n
}

// NotifyExportStart notifies that an export has started
func (n *ExportNotifier) NotifyExportStart(project string) {
	if !n.enabled {
		return
	}
	n.sendNotification("📦 Export started", fmt.Sprintf("Exporting %s...", project))
}

// NotifyExportSuccess notifies that an export succeeded
func (n *ExportNotifier) NotifyExportSuccess(project, outputPath string, duration time.Duration) {
	if !n.enabled {
		return
	}
	n.sendNotification("✅ Export succeeded",
		fmt.Sprintf("%s exported to %s in %s", project, outputPath, formatDuration(duration)))
}

// NotifyExportFailure notifies that an export failed
func (n *ExportNotifier) NotifyExportFailure(project string, err error) {
	if !n.enabled {
		return
	}
	n.sendNotification("❌ Export failed", fmt.Sprintf("%s: %v", project, err))
	if n.sound {
		if err := beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration); err != nil {
			n.logger.Debug("Failed to play sound", logger.WithField("error", err))
		}
	}
}

func (n *ExportNotifier) sendNotification(title, message string) {
	if n.send == nil {
		n.logger.Info(fmt.Sprintf("%s: %s", title, message))
		return
	}
	if err := n.send(title, message); err != nil {
		n.logger.Debug("Failed to send notification", logger.WithField("error", err))
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

// Package notify sends desktop notifications when long runs finish.
package notify

import (
	"log/slog"

	"github.com/gen2brain/beeep"
)

type Notifier struct {
	enabled bool
	logger  *slog.Logger
	send    func(title, message string) error
}

func New(enabled bool, logger *slog.Logger) *Notifier {
	return &Notifier{
		enabled: enabled,
		logger:  logger,
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

// Send shows a notification. Failures are logged and otherwise ignored;
// many headless machines have no notification daemon.
func (n *Notifier) Send(title, message string) {
	if n == nil || !n.enabled {
		return
	}
	if err := n.send(title, message); err != nil && n.logger != nil {
		n.logger.Debug("desktop notification failed", "error", err)
	}
}

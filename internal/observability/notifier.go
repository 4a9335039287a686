package observability

import "log/slog"

// LogNotifier implements domain.Notifier on top of the structured logger.
// In the web application these notices were transient toasts; a headless
// deployment records them with a severity field instead.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logger.With("channel", "notice")}
}

func (n *LogNotifier) Success(msg string) {
	n.log.Info(msg, "level", "success")
}

func (n *LogNotifier) Info(msg string) {
	n.log.Info(msg, "level", "info")
}

func (n *LogNotifier) Error(msg string) {
	n.log.Warn(msg, "level", "error")
}

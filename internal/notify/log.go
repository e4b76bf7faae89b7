package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier renders messages and writes a log line instead of delivering
// them. Used when no transport is configured.
type LogNotifier struct {
	renderer *Renderer
}

func NewLogNotifier(renderer *Renderer) *LogNotifier {
	return &LogNotifier{renderer: renderer}
}

func (n *LogNotifier) Notify(_ context.Context, msg Message) error {
	email, err := n.renderer.Render(msg)
	if err != nil {
		return err
	}
	zap.L().Info("Notification rendered (log driver)",
		zap.String("kind", email.Kind.String()),
		zap.String("withdraw_id", email.Reference),
		zap.String("to", MaskPixKey(email.To)),
		zap.String("subject", email.Subject),
		zap.Int("body_bytes", len(email.HTML)))
	return nil
}

func (n *LogNotifier) Close() error { return nil }

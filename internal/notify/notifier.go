package notify

import (
	"context"
	"errors"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/pkg/config"
	"github.com/wonny/stockpick/pkg/logger"
	"github.com/wonny/stockpick/pkg/retry"
)

// ErrDisabled is returned when no relay is configured
var ErrDisabled = errors.New("notification channel not configured")

// Notifier delivers messages with bounded retries
// ⭐ SSOT: 알림 발송은 여기서만
type Notifier struct {
	sender Sender
	to     []string
	policy retry.Policy
	logger *logger.Logger
}

// New builds the notifier from SMTP config. A nil sender uses SMTP.
func New(cfg config.SMTPConfig, sender Sender, log *logger.Logger) *Notifier {
	if log == nil {
		log = logger.NewNop()
	}
	n := &Notifier{
		to:     ParseRecipients(cfg.To),
		policy: retry.Fixed(cfg.Retries, cfg.RetryDelay),
		logger: log.WithComponent("notify"),
	}
	switch {
	case sender != nil:
		n.sender = sender
	case cfg.Enabled():
		n.sender = NewSMTPSender(cfg)
	}
	return n
}

// Enabled reports whether messages can be sent
func (n *Notifier) Enabled() bool {
	return n != nil && n.sender != nil && len(n.to) > 0
}

// Recipients returns the destination addresses
func (n *Notifier) Recipients() []string {
	return n.to
}

// Notify sends subject and body. Each failed attempt is logged; running
// out of attempts returns a NotificationFailure the caller logs and moves on.
func (n *Notifier) Notify(ctx context.Context, subject, body string) error {
	if !n.Enabled() {
		return ErrDisabled
	}

	err := n.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		err := n.sender.Send(ctx, n.to, subject, body)
		if err != nil {
			n.logger.WithError(err).WithFields(map[string]interface{}{
				"attempt": attempt,
				"of":      n.policy.Attempts,
				"subject": subject,
			}).Warn("notification attempt failed")
		}
		return err
	})
	if err != nil {
		return contracts.Wrap(contracts.KindNotificationFailure, "", err)
	}

	n.logger.WithFields(map[string]interface{}{
		"to":      n.to,
		"subject": subject,
	}).Info("notification sent")
	return nil
}

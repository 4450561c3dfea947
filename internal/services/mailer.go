package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	pkglogger "github.com/opencampus/redressal/pkg/logger"
)

const (
	mailerQueueSize   = 256
	mailerMaxAttempts = 3
	mailerBaseBackoff = 2 * time.Second
	mailerSendTimeout = 15 * time.Second
)

// Mailer decouples mail delivery from the request cycle: Enqueue never
// blocks, and delivery failures are retried with backoff and then logged.
// Nothing a caller does after a successful Enqueue can fail because of mail
// transport.
type Mailer struct {
	sender EmailSender
	logger *slog.Logger
	queue  chan EmailMessage
	wg     sync.WaitGroup
	once   sync.Once
}

func NewMailer(sender EmailSender, logger *slog.Logger) *Mailer {
	return &Mailer{
		sender: sender,
		logger: logger,
		queue:  make(chan EmailMessage, mailerQueueSize),
	}
}

// Start launches the delivery worker; it drains the queue until ctx is
// cancelled and the queue is closed.
func (m *Mailer) Start(ctx context.Context) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for {
			select {
			case msg, ok := <-m.queue:
				if !ok {
					return
				}
				m.deliver(ctx, msg)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop closes the queue and waits for in-flight deliveries.
func (m *Mailer) Stop() {
	m.once.Do(func() {
		close(m.queue)
	})
	m.wg.Wait()
}

// Enqueue hands a message to the worker. A full queue drops the message with
// a log line; the caller's request has already succeeded by this point.
func (m *Mailer) Enqueue(msg EmailMessage) bool {
	select {
	case m.queue <- msg:
		return true
	default:
		m.logger.Warn("mail queue full, dropping message",
			slog.String("to", pkglogger.MaskedEmail(msg.To)),
			slog.String("subject", msg.Subject),
		)
		return false
	}
}

func (m *Mailer) deliver(ctx context.Context, msg EmailMessage) {
	backoff := mailerBaseBackoff

	for attempt := 1; attempt <= mailerMaxAttempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, mailerSendTimeout)
		err := m.sender.Send(sendCtx, msg)
		cancel()

		if err == nil {
			return
		}

		m.logger.Warn("mail delivery attempt failed",
			slog.String("to", pkglogger.MaskedEmail(msg.To)),
			slog.Int("attempt", attempt),
			slog.Any("error", err),
		)

		if attempt == mailerMaxAttempts {
			break
		}

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return
		}
	}

	m.logger.Error("mail delivery abandoned",
		slog.String("to", pkglogger.MaskedEmail(msg.To)),
		slog.String("subject", msg.Subject),
	)
}

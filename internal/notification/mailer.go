package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aroma-tales/internal/config"

	"github.com/sethvargo/go-retry"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Message is a rendered email
type Message struct {
	From     string
	To       string
	ReplyTo  string
	Subject  string
	HTMLBody string
}

// Sender delivers rendered messages
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// SMTPMailer sends through an authenticated SMTP relay, retrying transient failures
type SMTPMailer struct {
	client     *mail.Client
	maxRetries uint64
	backoff    time.Duration
	logger     *zap.Logger
}

// NewSMTPMailer creates an SMTPMailer from the mail configuration
func NewSMTPMailer(cfg config.MailConfig, logger *zap.Logger) (*SMTPMailer, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &SMTPMailer{
		client:     client,
		maxRetries: cfg.MaxRetries,
		backoff:    500 * time.Millisecond,
		logger:     logger,
	}, nil
}

// Send builds the MIME message and delivers it
func (m *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	mm := mail.NewMsg()
	if err := mm.From(msg.From); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := mm.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	if msg.ReplyTo != "" {
		if err := mm.ReplyTo(msg.ReplyTo); err != nil {
			return fmt.Errorf("invalid reply-to address: %w", err)
		}
	}
	mm.Subject(msg.Subject)
	mm.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)

	backoff := retry.WithMaxRetries(m.maxRetries, retry.NewExponential(m.backoff))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := m.client.DialAndSendWithContext(ctx, mm)
		if err == nil {
			return nil
		}

		var sendErr *mail.SendError
		if errors.As(err, &sendErr) && !sendErr.IsTemp() {
			return err
		}

		m.logger.Debug("Transient smtp failure, retrying",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(err),
		)
		return retry.RetryableError(err)
	})
}

// LogSender records messages instead of sending them; used when no SMTP credentials are configured
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a LogSender
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message envelope
func (s *LogSender) Send(_ context.Context, msg *Message) error {
	s.logger.Info("Email not configured, message logged only",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}

// NewSender picks the SMTP mailer when credentials are configured and the log sender otherwise
func NewSender(cfg config.MailConfig, logger *zap.Logger) (Sender, error) {
	if cfg.Password == "" {
		logger.Warn("SMTP password not set, outgoing email will only be logged")
		return NewLogSender(logger), nil
	}
	return NewSMTPMailer(cfg, logger)
}

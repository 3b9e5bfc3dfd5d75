package mail

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/xavierca1/coach-outreach/internal/usecase"
)

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
}

type dialer interface {
	Dial() (gomail.SendCloser, error)
}

// Sender opens one authenticated SMTP connection per batch.
type Sender struct {
	dialer dialer
	from   string
	logger *zap.Logger
}

func NewSender(cfg SMTPConfig, logger *zap.Logger) *Sender {
	return &Sender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.User,
		logger: logger.Named("smtp"),
	}
}

func (s *Sender) Open(ctx context.Context) (usecase.MailSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sc, err := s.dialer.Dial()
	if err != nil {
		return nil, fmt.Errorf("smtp login failed: %w", err)
	}
	s.logger.Info("connected to smtp server")
	return &session{sc: sc, from: s.from}, nil
}

type session struct {
	sc   gomail.SendCloser
	from string
}

func (s *session) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := gomail.Send(s.sc, m); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

func (s *session) Close() error {
	return s.sc.Close()
}

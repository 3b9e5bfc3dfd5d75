package mail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	gomessage "github.com/emersion/go-message/mail"
	"go.uber.org/zap"

	"github.com/xavierca1/coach-outreach/internal/usecase"
)

type IMAPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
}

// Inbox scans the mailbox for replies from known coaches.
type Inbox struct {
	cfg    IMAPConfig
	logger *zap.Logger
}

func NewInbox(cfg IMAPConfig, logger *zap.Logger) *Inbox {
	return &Inbox{cfg: cfg, logger: logger.Named("imap")}
}

// FetchReplies runs one FROM/SINCE search per address over a single session.
func (in *Inbox) FetchReplies(ctx context.Context, from []string, since time.Time) ([]usecase.InboundMessage, error) {
	c, err := client.DialTLS(fmt.Sprintf("%s:%d", in.cfg.Host, in.cfg.Port), nil)
	if err != nil {
		return nil, fmt.Errorf("imap dial: %w", err)
	}
	defer c.Logout()

	if err := c.Login(in.cfg.User, in.cfg.Password); err != nil {
		return nil, fmt.Errorf("imap login: %w", err)
	}
	if _, err := c.Select("INBOX", true); err != nil {
		return nil, fmt.Errorf("imap select: %w", err)
	}

	var out []usecase.InboundMessage
	for _, addr := range from {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		msgs, err := in.fetchFrom(c, addr, since)
		if err != nil {
			in.logger.Warn("imap search failed", zap.Error(err))
			continue
		}
		out = append(out, msgs...)
	}
	return out, nil
}

func (in *Inbox) fetchFrom(c *client.Client, addr string, since time.Time) ([]usecase.InboundMessage, error) {
	criteria := imap.NewSearchCriteria()
	criteria.Header.Add("From", addr)
	criteria.Since = since

	ids, err := c.Search(criteria)
	if err != nil || len(ids) == 0 {
		return nil, err
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchInternalDate, section.FetchItem()}

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, items, messages)
	}()

	var out []usecase.InboundMessage
	for msg := range messages {
		m := usecase.InboundMessage{From: addr, ReceivedAt: msg.InternalDate}
		if msg.Envelope != nil {
			m.Subject = msg.Envelope.Subject
			if len(msg.Envelope.From) > 0 {
				a := msg.Envelope.From[0]
				m.From = a.MailboxName + "@" + a.HostName
			}
		}
		if body := msg.GetBody(section); body != nil {
			text, err := PlainText(body)
			if err != nil {
				in.logger.Debug("could not read reply body", zap.Error(err))
			}
			m.Snippet = Snippet(text)
		}
		out = append(out, m)
	}
	if err := <-done; err != nil {
		return out, err
	}
	return out, nil
}

// PlainText returns the first text/plain part of a message.
func PlainText(r io.Reader) (string, error) {
	mr, err := gomessage.CreateReader(r)
	if err != nil {
		return "", err
	}
	defer mr.Close()

	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return "", nil
		}
		if err != nil {
			return "", err
		}

		h, ok := p.Header.(*gomessage.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := h.ContentType()
		if ct != "" && !strings.EqualFold(ct, "text/plain") {
			continue
		}
		data, err := io.ReadAll(p.Body)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

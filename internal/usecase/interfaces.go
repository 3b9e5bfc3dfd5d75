package usecase

import (
	"context"
	"time"

	"github.com/xavierca1/coach-outreach/internal/entity"
)

// SheetStore is the spreadsheet acting as the coach database.
type SheetStore interface {
	Snapshot(ctx context.Context) (entity.Snapshot, error)
	UpdateCells(ctx context.Context, updates []entity.CellUpdate) error
	DeleteRow(ctx context.Context, row int) error
}

// HeaderWriter is implemented by sheet stores that can add header cells.
type HeaderWriter interface {
	EnsureHeaders(ctx context.Context, headers []string) ([]string, error)
}

// Mailer opens an authenticated SMTP session for one batch.
type Mailer interface {
	Open(ctx context.Context) (MailSession, error)
}

type MailSession interface {
	Send(ctx context.Context, to, subject, body string) error
	Close() error
}

// DMSender opens a logged-in browser session for one batch.
type DMSender interface {
	Open(ctx context.Context) (DMSession, error)
}

type DMSession interface {
	Send(ctx context.Context, handle, message string) error
	Close() error
}

// InboundMessage is a reply found in the inbox.
type InboundMessage struct {
	From       string
	Subject    string
	Snippet    string
	ReceivedAt time.Time
}

type Inbox interface {
	FetchReplies(ctx context.Context, from []string, since time.Time) ([]InboundMessage, error)
}

// OutreachLogWriter appends to the sent/response logs. Implemented by the
// Postgres repository and by the queue producer.
type OutreachLogWriter interface {
	AppendSent(ctx context.Context, sent entity.SentEmail) error
	AppendDM(ctx context.Context, dm entity.DMRecord) error
	AppendResponse(ctx context.Context, resp entity.Response) error
}

type OutreachLogReader interface {
	ListSent(ctx context.Context) ([]entity.SentEmail, error)
	ListDMs(ctx context.Context) ([]entity.DMRecord, error)
	ListResponses(ctx context.Context) ([]entity.Response, error)
}

// QuotaCounter tracks sends per channel per calendar day.
type QuotaCounter interface {
	Count(ctx context.Context, channel entity.Channel, day time.Time) (int, error)
	Incr(ctx context.Context, channel entity.Channel, day time.Time) error
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xavierca1/coach-outreach/internal/entity"
)

const schema = `
CREATE TABLE IF NOT EXISTS sent_emails (
	id              UUID PRIMARY KEY,
	coach_email     TEXT NOT NULL,
	coach_name      TEXT NOT NULL DEFAULT '',
	school          TEXT NOT NULL DEFAULT '',
	division        TEXT NOT NULL DEFAULT '',
	role            TEXT NOT NULL,
	template_id     TEXT NOT NULL DEFAULT '',
	followup_number INT  NOT NULL DEFAULT 0,
	sent_at         TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS sent_emails_sent_at_idx ON sent_emails (sent_at);

CREATE TABLE IF NOT EXISTS responses (
	id          UUID PRIMARY KEY,
	coach_email TEXT NOT NULL,
	coach_name  TEXT NOT NULL DEFAULT '',
	school      TEXT NOT NULL DEFAULT '',
	subject     TEXT NOT NULL DEFAULT '',
	snippet     TEXT NOT NULL DEFAULT '',
	received_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS dm_records (
	id         UUID PRIMARY KEY,
	handle     TEXT NOT NULL,
	coach_name TEXT NOT NULL DEFAULT '',
	school     TEXT NOT NULL DEFAULT '',
	role       TEXT NOT NULL,
	sent_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS dm_records_sent_at_idx ON dm_records (sent_at);
`

// OutreachLogRepository stores the append-only sent, DM and response logs.
type OutreachLogRepository struct {
	DB *sql.DB
}

func NewOutreachLogRepository(db *sql.DB) *OutreachLogRepository {
	return &OutreachLogRepository{DB: db}
}

func (r *OutreachLogRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create outreach schema: %w", err)
	}
	return nil
}

func (r *OutreachLogRepository) AppendSent(ctx context.Context, s entity.SentEmail) error {
	query := `
		INSERT INTO sent_emails (id, coach_email, coach_name, school, division, role, template_id, followup_number, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.DB.ExecContext(ctx, query,
		s.ID, s.CoachEmail, s.CoachName, s.School, s.Division,
		string(s.Role), s.TemplateID, s.FollowupNumber, s.SentAt,
	)
	if err != nil {
		return fmt.Errorf("append sent email: %w", err)
	}
	return nil
}

func (r *OutreachLogRepository) AppendDM(ctx context.Context, dm entity.DMRecord) error {
	query := `
		INSERT INTO dm_records (id, handle, coach_name, school, role, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.DB.ExecContext(ctx, query, dm.ID, dm.Handle, dm.CoachName, dm.School, string(dm.Role), dm.SentAt)
	if err != nil {
		return fmt.Errorf("append dm: %w", err)
	}
	return nil
}

func (r *OutreachLogRepository) AppendResponse(ctx context.Context, resp entity.Response) error {
	query := `
		INSERT INTO responses (id, coach_email, coach_name, school, subject, snippet, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.DB.ExecContext(ctx, query,
		resp.ID, resp.CoachEmail, resp.CoachName, resp.School, resp.Subject, resp.Snippet, resp.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("append response: %w", err)
	}
	return nil
}

func (r *OutreachLogRepository) ListSent(ctx context.Context) ([]entity.SentEmail, error) {
	query := `
		SELECT id, coach_email, coach_name, school, division, role, template_id, followup_number, sent_at
		FROM sent_emails ORDER BY sent_at
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list sent emails: %w", err)
	}
	defer rows.Close()

	var out []entity.SentEmail
	for rows.Next() {
		var s entity.SentEmail
		var role string
		if err := rows.Scan(&s.ID, &s.CoachEmail, &s.CoachName, &s.School, &s.Division,
			&role, &s.TemplateID, &s.FollowupNumber, &s.SentAt); err != nil {
			return nil, err
		}
		s.Role = entity.Role(role)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *OutreachLogRepository) ListDMs(ctx context.Context) ([]entity.DMRecord, error) {
	query := `SELECT id, handle, coach_name, school, role, sent_at FROM dm_records ORDER BY sent_at`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list dms: %w", err)
	}
	defer rows.Close()

	var out []entity.DMRecord
	for rows.Next() {
		var dm entity.DMRecord
		var role string
		if err := rows.Scan(&dm.ID, &dm.Handle, &dm.CoachName, &dm.School, &role, &dm.SentAt); err != nil {
			return nil, err
		}
		dm.Role = entity.Role(role)
		out = append(out, dm)
	}
	return out, rows.Err()
}

func (r *OutreachLogRepository) ListResponses(ctx context.Context) ([]entity.Response, error) {
	query := `
		SELECT id, coach_email, coach_name, school, subject, snippet, received_at
		FROM responses ORDER BY received_at
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	var out []entity.Response
	for rows.Next() {
		var resp entity.Response
		if err := rows.Scan(&resp.ID, &resp.CoachEmail, &resp.CoachName, &resp.School,
			&resp.Subject, &resp.Snippet, &resp.ReceivedAt); err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, rows.Err()
}

// CountSince counts log entries of a channel sent at or after since.
func (r *OutreachLogRepository) CountSince(ctx context.Context, channel entity.Channel, since time.Time) (int, error) {
	var query string
	switch channel {
	case entity.ChannelEmail:
		query = `SELECT COUNT(*) FROM sent_emails WHERE sent_at >= $1`
	case entity.ChannelTwitter:
		query = `SELECT COUNT(*) FROM dm_records WHERE sent_at >= $1`
	default:
		return 0, fmt.Errorf("unknown channel %q", channel)
	}

	var n int
	if err := r.DB.QueryRowContext(ctx, query, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s since %s: %w", channel, since.Format(time.RFC3339), err)
	}
	return n, nil
}

// LogCounter counts today's sends from the log itself. Incr is a no-op
// because appending the log entry is the increment.
type LogCounter struct {
	Repo *OutreachLogRepository
}

func (c LogCounter) Count(ctx context.Context, channel entity.Channel, day time.Time) (int, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return c.Repo.CountSince(ctx, channel, start)
}

func (c LogCounter) Incr(context.Context, entity.Channel, time.Time) error {
	return nil
}

package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xavierca1/coach-outreach/internal/config"
	"github.com/xavierca1/coach-outreach/internal/infra/database"
	"github.com/xavierca1/coach-outreach/internal/infra/http/middleware"
	"github.com/xavierca1/coach-outreach/internal/infra/integration/twitter"
	"github.com/xavierca1/coach-outreach/internal/infra/mail"
	"github.com/xavierca1/coach-outreach/internal/infra/queue"
	"github.com/xavierca1/coach-outreach/internal/infra/quota"
	"github.com/xavierca1/coach-outreach/internal/infra/sheets"
	"github.com/xavierca1/coach-outreach/internal/usecase"
)

// App holds the adapters and use cases shared by the API and the CLI.
type App struct {
	Config *config.Config
	Logger *zap.Logger

	DB    *sql.DB
	Repo  *database.OutreachLogRepository
	Redis *redis.Client
	MQ    *queue.RabbitMQ

	Sheet   *sheets.Client
	Mailer  *mail.Sender
	Inbox   *mail.Inbox
	Twitter *twitter.Sender

	Emails      *usecase.SendEmailsUseCase
	DMs         *usecase.SendDMsUseCase
	Responses   *usecase.ResponsesUseCase
	MarkTwitter *usecase.MarkTwitterUseCase
	Notes       *usecase.MigrateNotesUseCase
	Stats       *usecase.StatsUseCase
}

// New connects every configured backend. Postgres and the spreadsheet are
// required; Redis and RabbitMQ are optional.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	if cfg.Sheets.SpreadsheetID == "" {
		return nil, errors.New("SPREADSHEET_ID is not set")
	}

	db, err := database.NewDBConnection(ctx, cfg.Database.URL, cfg.Database.MaxOpenConns)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	a.DB = db
	a.Repo = database.NewOutreachLogRepository(db)
	if err := a.Repo.EnsureSchema(ctx); err != nil {
		a.Close()
		return nil, err
	}

	var counter usecase.QuotaCounter = database.LogCounter{Repo: a.Repo}
	if cfg.Redis.URL != "" {
		rdb, err := quota.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Redis = rdb
		counter = quota.NewRedisCounter(rdb)
	}

	var logWriter usecase.OutreachLogWriter = a.Repo
	if cfg.Queue.Enabled {
		mq, err := queue.NewRabbitMQ(cfg.Queue.URL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.MQ = mq
		logWriter = queue.NewProducer(mq.Ch)
	}

	sheetCfg := sheets.Config{
		SpreadsheetID:   cfg.Sheets.SpreadsheetID,
		SheetName:       cfg.Sheets.SheetName,
		CredentialsJSON: cfg.Sheets.CredentialsJSON,
		CredentialsFile: cfg.Sheets.CredentialsFile,
	}
	svc, err := sheets.NewService(ctx, sheetCfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	retry := sheets.NewRetrier(cfg.Sheets.MaxRetries, cfg.Sheets.BaseDelay(), cfg.Sheets.MinGap(), logger.Named("sheets"))
	retry.OnRetry = middleware.RecordSheetRetry
	a.Sheet = sheets.NewClient(svc, sheetCfg, retry, logger)

	a.Mailer = mail.NewSender(mail.SMTPConfig{
		Host:     cfg.Email.SMTPHost,
		Port:     cfg.Email.SMTPPort,
		User:     cfg.Email.Address,
		Password: cfg.Email.Password,
	}, logger)
	a.Inbox = mail.NewInbox(mail.IMAPConfig{
		Host:     cfg.Email.IMAPHost,
		Port:     cfg.Email.IMAPPort,
		User:     cfg.Email.Address,
		Password: cfg.Email.Password,
	}, logger)
	a.Twitter = twitter.NewSender(twitter.Config{
		ProfileDir: cfg.Twitter.ProfileDir,
		Headless:   cfg.Twitter.Headless,
		BrowserBin: cfg.Twitter.BrowserBin,
	}, logger)

	a.Emails = usecase.NewSendEmailsUseCase(a.Sheet, a.Mailer, logWriter, counter, usecase.EmailSettings{
		Templates:  cfg.Email.Templates,
		Athlete:    cfg.Athlete,
		DailyLimit: cfg.Email.DailyLimit,
		Delay:      cfg.Email.Delay(),
	}, logger)
	a.DMs = usecase.NewSendDMsUseCase(a.Sheet, a.Twitter, logWriter, a.Repo, counter, usecase.DMSettings{
		Template:   cfg.Email.Templates.DM,
		Athlete:    cfg.Athlete,
		DailyLimit: cfg.Twitter.DailyLimit,
		MinDelay:   cfg.Twitter.MinDelay(),
		MaxDelay:   cfg.Twitter.MaxDelay(),
	}, logger)
	a.Responses = usecase.NewResponsesUseCase(a.Sheet, a.Inbox, logWriter, a.Repo, logger)
	a.MarkTwitter = usecase.NewMarkTwitterUseCase(a.Sheet)
	a.Notes = usecase.NewMigrateNotesUseCase(a.Sheet, logger)
	a.Stats = usecase.NewStatsUseCase(a.Repo, a.Sheet)

	return a, nil
}

func (a *App) Close() {
	if a.MQ != nil {
		if err := a.MQ.Close(); err != nil {
			a.Logger.Warn("close rabbitmq", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/xavierca1/coach-outreach/internal/entity"
)

// Config holds all configuration for the outreach tools
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Sheets   SheetsConfig   `yaml:"sheets"`
	Email    EmailConfig    `yaml:"email"`
	Twitter  TwitterConfig  `yaml:"twitter"`
	Athlete  entity.Athlete `yaml:"athlete"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Queue    QueueConfig    `yaml:"queue"`
	Worker   WorkerConfig   `yaml:"worker"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

func (c ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// SheetsConfig points at the coach spreadsheet.
type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	SheetName       string `yaml:"sheet_name"`
	CredentialsFile string `yaml:"credentials_file"`
	CredentialsJSON string `yaml:"-"`
	MaxRetries      int    `yaml:"max_retries"`
	BaseDelayMillis int    `yaml:"base_delay_ms"`
	MinGapMillis    int    `yaml:"min_gap_ms"`
}

func (c SheetsConfig) BaseDelay() time.Duration {
	return time.Duration(c.BaseDelayMillis) * time.Millisecond
}

func (c SheetsConfig) MinGap() time.Duration {
	return time.Duration(c.MinGapMillis) * time.Millisecond
}

// EmailConfig holds SMTP sending and IMAP scanning settings
type EmailConfig struct {
	Address      string              `yaml:"address"`
	Password     string              `yaml:"-"`
	SMTPHost     string              `yaml:"smtp_host"`
	SMTPPort     int                 `yaml:"smtp_port"`
	IMAPHost     string              `yaml:"imap_host"`
	IMAPPort     int                 `yaml:"imap_port"`
	DailyLimit   int                 `yaml:"daily_limit"`
	DelaySeconds int                 `yaml:"delay_seconds"`
	Templates    entity.TemplateBook `yaml:"templates"`
}

func (c EmailConfig) Delay() time.Duration {
	return time.Duration(c.DelaySeconds) * time.Second
}

type TwitterConfig struct {
	DailyLimit      int    `yaml:"daily_limit"`
	MinDelaySeconds int    `yaml:"min_delay_seconds"`
	MaxDelaySeconds int    `yaml:"max_delay_seconds"`
	ProfileDir      string `yaml:"profile_dir"`
	Headless        bool   `yaml:"headless"`
	BrowserBin      string `yaml:"browser_bin"`
}

func (c TwitterConfig) MinDelay() time.Duration {
	return time.Duration(c.MinDelaySeconds) * time.Second
}

func (c TwitterConfig) MaxDelay() time.Duration {
	return time.Duration(c.MaxDelaySeconds) * time.Second
}

// DatabaseConfig holds the outreach log connection. Empty URL disables it.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type QueueConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// WorkerConfig drives the periodic inbox scan.
type WorkerConfig struct {
	ScanIntervalMinutes int `yaml:"scan_interval_minutes"`
}

func (c WorkerConfig) ScanInterval() time.Duration {
	return time.Duration(c.ScanIntervalMinutes) * time.Minute
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a YAML file and applies defaults. A missing file yields the
// defaults alone.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	cfg.setDefaults()
	return &cfg, nil
}

func (cfg *Config) setDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:5173"}
	}
	if cfg.Sheets.SheetName == "" {
		cfg.Sheets.SheetName = "Sheet1"
	}
	if cfg.Sheets.CredentialsFile == "" {
		cfg.Sheets.CredentialsFile = "credentials.json"
	}
	if cfg.Sheets.MaxRetries == 0 {
		cfg.Sheets.MaxRetries = 5
	}
	if cfg.Sheets.BaseDelayMillis == 0 {
		cfg.Sheets.BaseDelayMillis = 2000
	}
	if cfg.Sheets.MinGapMillis == 0 {
		cfg.Sheets.MinGapMillis = 500
	}
	if cfg.Email.SMTPHost == "" {
		cfg.Email.SMTPHost = "smtp.gmail.com"
	}
	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = 587
	}
	if cfg.Email.IMAPHost == "" {
		cfg.Email.IMAPHost = "imap.gmail.com"
	}
	if cfg.Email.IMAPPort == 0 {
		cfg.Email.IMAPPort = 993
	}
	if cfg.Email.DailyLimit == 0 {
		cfg.Email.DailyLimit = 50
	}
	if cfg.Email.DelaySeconds == 0 {
		cfg.Email.DelaySeconds = 5
	}
	if cfg.Twitter.DailyLimit == 0 {
		cfg.Twitter.DailyLimit = 20
	}
	if cfg.Twitter.MinDelaySeconds == 0 {
		cfg.Twitter.MinDelaySeconds = 30
	}
	if cfg.Twitter.MaxDelaySeconds == 0 {
		cfg.Twitter.MaxDelaySeconds = 90
	}
	if cfg.Twitter.ProfileDir == "" {
		cfg.Twitter.ProfileDir = ".browser-profile"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Worker.ScanIntervalMinutes == 0 {
		cfg.Worker.ScanIntervalMinutes = 60
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	cfg.Email.Templates = cfg.Email.Templates.WithDefaults()
}

// LoadFromEnv loads .env, reads the YAML file and lets the environment
// override secrets and connection strings.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SPREADSHEET_ID"); v != "" {
		cfg.Sheets.SpreadsheetID = v
	}
	if v := os.Getenv("GOOGLE_CREDENTIALS"); v != "" {
		cfg.Sheets.CredentialsJSON = v
	}
	if v := os.Getenv("EMAIL_ADDRESS"); v != "" {
		cfg.Email.Address = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.Email.Password = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("AMQP_URL"); v != "" {
		cfg.Queue.URL = v
		cfg.Queue.Enabled = true
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	return cfg, nil
}

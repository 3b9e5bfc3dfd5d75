package twitter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/xavierca1/coach-outreach/internal/usecase"
)

const (
	baseURL = "https://x.com"

	selDMButton   = `button[data-testid='sendDMFromProfile']`
	selComposer   = `div[data-testid='dmComposerTextInput']`
	selSendButton = `button[data-testid='dmComposerSendButton']`
	selTextbox    = `div[role='textbox']`
)

var ErrNotLoggedIn = errors.New("not logged into twitter")

type Config struct {
	ProfileDir string
	Headless   bool
	BrowserBin string
	// ElementTimeout bounds every selector lookup.
	ElementTimeout time.Duration
	// SettleDelay is the pause after navigation and clicks.
	SettleDelay time.Duration
}

// Sender drives a real browser profile that the user logged into by hand.
type Sender struct {
	cfg    Config
	logger *zap.Logger
}

func NewSender(cfg Config, logger *zap.Logger) *Sender {
	if cfg.ElementTimeout == 0 {
		cfg.ElementTimeout = 10 * time.Second
	}
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = 2 * time.Second
	}
	return &Sender{cfg: cfg, logger: logger.Named("twitter")}
}

func (s *Sender) launch(ctx context.Context, headless bool) (*session, error) {
	l := launcher.New().UserDataDir(s.cfg.ProfileDir).Headless(headless)
	if s.cfg.BrowserBin != "" {
		l = l.Bin(s.cfg.BrowserBin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		browser.Close()
		l.Cleanup()
		return nil, fmt.Errorf("open page: %w", err)
	}
	return &session{cfg: s.cfg, launcher: l, browser: browser, page: page, logger: s.logger}, nil
}

// Open starts the browser and confirms the saved profile is still logged in.
func (s *Sender) Open(ctx context.Context) (usecase.DMSession, error) {
	sess, err := s.launch(ctx, s.cfg.Headless)
	if err != nil {
		return nil, err
	}
	ok, err := sess.loggedIn(ctx)
	if err != nil || !ok {
		sess.Close()
		if err == nil {
			err = ErrNotLoggedIn
		}
		return nil, err
	}
	s.logger.Info("browser session ready")
	return sess, nil
}

// Login opens a visible browser on the login page and waits for the user to
// finish signing in. The profile directory keeps the cookies for later runs.
func (s *Sender) Login(ctx context.Context, timeout time.Duration) error {
	sess, err := s.launch(ctx, false)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.navigate(ctx, baseURL+"/login"); err != nil {
		return err
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
		}
		if ok, _ := sess.loggedIn(ctx); ok {
			s.logger.Info("logged into twitter")
			return nil
		}
	}
	return fmt.Errorf("login not completed within %s", timeout)
}

type session struct {
	cfg      Config
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	logger   *zap.Logger
}

func (s *session) navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx)
	if err := p.Timeout(30 * time.Second).Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	_ = p.Timeout(30 * time.Second).WaitLoad()
	return sleep(ctx, s.cfg.SettleDelay)
}

func (s *session) loggedIn(ctx context.Context) (bool, error) {
	if err := s.navigate(ctx, baseURL+"/home"); err != nil {
		return false, err
	}
	info, err := s.page.Info()
	if err != nil {
		return false, err
	}
	html, err := s.page.HTML()
	if err != nil {
		return false, err
	}
	return LooksLoggedIn(info.URL, html), nil
}

// Send opens the profile, clicks the message button and submits the text.
// Error text is matched by usecase.ClassifyDeliveryError.
func (s *session) Send(ctx context.Context, handle, message string) error {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if err := s.navigate(ctx, ProfileURL(handle)); err != nil {
		return err
	}

	html, err := s.page.HTML()
	if err != nil {
		return err
	}
	if reason := ProfileProblem(html); reason != "" {
		return fmt.Errorf("@%s: %s", handle, reason)
	}

	p := s.page.Context(ctx).Timeout(s.cfg.ElementTimeout)
	if btn, err := p.Element(selDMButton); err == nil {
		if err := btn.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return fmt.Errorf("click message button: %w", err)
		}
		if err := sleep(ctx, s.cfg.SettleDelay); err != nil {
			return err
		}
	} else if err := s.navigate(ctx, baseURL+"/messages/"+handle); err != nil {
		return err
	}

	p = s.page.Context(ctx).Timeout(s.cfg.ElementTimeout)
	box, err := p.Element(selComposer)
	if err != nil {
		if box, err = p.Element(selTextbox); err != nil {
			return fmt.Errorf("@%s: dm composer not available, recipient may not accept messages: %w", handle, err)
		}
	}
	if err := box.Input(message); err != nil {
		return fmt.Errorf("type message: %w", err)
	}

	if btn, err := p.Element(selSendButton); err == nil {
		err = btn.Click(proto.InputMouseButtonLeft, 1)
		if err != nil {
			return fmt.Errorf("click send: %w", err)
		}
	} else if err := s.page.Keyboard.Type(input.Enter); err != nil {
		return fmt.Errorf("press enter: %w", err)
	}

	return sleep(ctx, s.cfg.SettleDelay)
}

func (s *session) Close() error {
	err := s.browser.Close()
	s.launcher.Cleanup()
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func ProfileURL(handle string) string {
	return baseURL + "/" + strings.TrimPrefix(handle, "@")
}

// LooksLoggedIn reports whether the home page rendered for a signed-in user.
func LooksLoggedIn(url, html string) bool {
	if strings.Contains(strings.ToLower(url), "login") {
		return false
	}
	lower := strings.ToLower(html)
	for _, marker := range []string{"compose", "what is happening", "post"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// ProfileProblem returns a reason when the profile page shows the handle
// cannot be messaged, or "" when it looks usable.
func ProfileProblem(html string) string {
	lower := strings.ToLower(html)
	switch {
	case strings.Contains(lower, "your account is suspended"), strings.Contains(lower, "your account is locked"):
		return "account suspended"
	case strings.Contains(lower, "this account doesn’t exist"),
		strings.Contains(lower, "this account doesn't exist"),
		strings.Contains(lower, "account suspended"):
		// a suspended recipient is unreachable, not a block on our side
		return "user does not exist"
	}
	return ""
}

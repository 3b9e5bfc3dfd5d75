package twitter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/xavierca1/coach-outreach/internal/usecase"
)

func TestProfileURL(t *testing.T) {
	assert.Equal(t, "https://x.com/CoachSmith", ProfileURL("@CoachSmith"))
	assert.Equal(t, "https://x.com/CoachSmith", ProfileURL("CoachSmith"))
}

func TestLooksLoggedIn(t *testing.T) {
	assert.False(t, LooksLoggedIn("https://x.com/i/flow/login", "<div>Compose</div>"))
	assert.True(t, LooksLoggedIn("https://x.com/home", "<a aria-label=\"Compose post\"></a>"))
	assert.False(t, LooksLoggedIn("https://x.com/home", "<div>Sign up today</div>"))
}

// TestProfileProblemClassifies - profile page text must map onto the delivery classifier
func TestProfileProblemClassifies(t *testing.T) {
	cases := []struct {
		html string
		want usecase.FailureKind
	}{
		{"<span>This account doesn’t exist</span>", usecase.FailureInvalidRecipient},
		{"<span>Account suspended</span>", usecase.FailureInvalidRecipient},
		{"<div>Your account is locked</div>", usecase.FailureBlocked},
	}
	for _, tc := range cases {
		reason := ProfileProblem(tc.html)
		assert.NotEmpty(t, reason, tc.html)
		assert.Equal(t, tc.want, usecase.ClassifyDeliveryError(reason), tc.html)
	}
	assert.Empty(t, ProfileProblem("<div>Coach Smith @CoachSmith</div>"))
}

func TestNewSenderDefaults(t *testing.T) {
	s := NewSender(Config{ProfileDir: "/tmp/p"}, zap.NewNop())
	assert.Equal(t, 10*time.Second, s.cfg.ElementTimeout)
	assert.Equal(t, 2*time.Second, s.cfg.SettleDelay)
}

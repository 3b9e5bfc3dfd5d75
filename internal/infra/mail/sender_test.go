package mail

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type fakeSendCloser struct {
	from   string
	to     []string
	raw    bytes.Buffer
	closed bool
	err    error
}

func (f *fakeSendCloser) Send(from string, to []string, msg io.WriterTo) error {
	if f.err != nil {
		return f.err
	}
	f.from, f.to = from, to
	_, err := msg.WriteTo(&f.raw)
	return err
}

func (f *fakeSendCloser) Close() error {
	f.closed = true
	return nil
}

type fakeDialer struct {
	sc  *fakeSendCloser
	err error
}

func (d fakeDialer) Dial() (gomail.SendCloser, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.sc, nil
}

func TestSenderSendsPlainText(t *testing.T) {
	sc := &fakeSendCloser{}
	s := &Sender{dialer: fakeDialer{sc: sc}, from: "athlete@example.com", logger: zap.NewNop()}

	session, err := s.Open(context.Background())
	require.NoError(t, err)

	require.NoError(t, session.Send(context.Background(), "coach@alpha.edu", "Recruiting Inquiry", "Dear Coach Rivers,"))
	require.NoError(t, session.Close())

	assert.Equal(t, "athlete@example.com", sc.from)
	assert.Equal(t, []string{"coach@alpha.edu"}, sc.to)
	assert.Contains(t, sc.raw.String(), "Subject: Recruiting Inquiry")
	assert.Contains(t, sc.raw.String(), "text/plain")
	assert.True(t, sc.closed)
}

func TestSenderOpenFailure(t *testing.T) {
	s := &Sender{dialer: fakeDialer{err: errors.New("535 5.7.8 Username and Password not accepted")}, logger: zap.NewNop()}

	_, err := s.Open(context.Background())

	assert.ErrorContains(t, err, "535")
}

// TestSessionSendKeepsSMTPText - the classifier needs the server's reply code
func TestSessionSendKeepsSMTPText(t *testing.T) {
	sc := &fakeSendCloser{err: errors.New("550 5.1.1 user unknown")}
	s := &session{sc: sc, from: "a@b.com"}

	err := s.Send(context.Background(), "gone@alpha.edu", "s", "b")

	assert.ErrorContains(t, err, "550 5.1.1 user unknown")
}

func TestSessionSendCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &session{sc: &fakeSendCloser{}, from: "a@b.com"}

	assert.ErrorIs(t, s.Send(ctx, "x@y.com", "s", "b"), context.Canceled)
}

package mail

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnippet(t *testing.T) {
	assert.Equal(t, "Thanks for reaching out. Come to camp.", Snippet("Thanks for reaching out.\r\n\r\n  Come to camp.  "))

	long := strings.Repeat("a", 200)
	got := Snippet(long)
	assert.Equal(t, strings.Repeat("a", 150)+"...", got)

	assert.Equal(t, "", Snippet(" \n\t "))
}

func TestPlainTextSinglePart(t *testing.T) {
	raw := "From: coach@alpha.edu\r\n" +
		"Subject: Re: Recruiting Inquiry\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"We'd like to see you at camp.\r\n"

	text, err := PlainText(strings.NewReader(raw))

	require.NoError(t, err)
	assert.Equal(t, "We'd like to see you at camp.", strings.TrimSpace(text))
}

func TestPlainTextMultipartPrefersPlain(t *testing.T) {
	raw := "From: coach@alpha.edu\r\n" +
		"Subject: Re: hi\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/alternative; boundary=XYZ\r\n" +
		"\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<p>html body</p>\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"plain body\r\n" +
		"--XYZ--\r\n"

	text, err := PlainText(strings.NewReader(raw))

	require.NoError(t, err)
	assert.Equal(t, "plain body", strings.TrimSpace(text))
}

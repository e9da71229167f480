package notifications

import (
	"context"
	"errors"
	"testing"

	"linkcard/backend/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockNotifier struct {
	SendFunc    func(ctx context.Context, to, subject, bodyHTML, bodyText string) error
	SendCalled  bool
	LastTo      string
	LastSubject string
	LastHTML    string
	LastText    string
}

func (m *MockNotifier) SendEmail(ctx context.Context, to, subject, bodyHTML, bodyText string) error {
	m.SendCalled = true
	m.LastTo, m.LastSubject, m.LastHTML, m.LastText = to, subject, bodyHTML, bodyText
	if m.SendFunc != nil {
		return m.SendFunc(ctx, to, subject, bodyHTML, bodyText)
	}
	return nil
}

func TestResetLink(t *testing.T) {
	assert.Equal(t, "https://linkcard.app/reset-password/abc", ResetLink("https://linkcard.app/", "abc"))
	assert.Equal(t, "http://localhost:3000/reset-password/abc", ResetLink("http://localhost:3000", "abc"))
}

func TestSendPasswordReset(t *testing.T) {
	m := &MockNotifier{}
	link := ResetLink("https://linkcard.app", "deadbeef")

	require.NoError(t, SendPasswordReset(context.Background(), m, "alice@example.com", "alice", link))
	assert.True(t, m.SendCalled)
	assert.Equal(t, "alice@example.com", m.LastTo)
	assert.Equal(t, passwordResetSubject, m.LastSubject)
	assert.Contains(t, m.LastHTML, `href="https://linkcard.app/reset-password/deadbeef"`)
	assert.Contains(t, m.LastText, link)
}

func TestSendPasswordReset_EscapesUsername(t *testing.T) {
	m := &MockNotifier{}
	require.NoError(t, SendPasswordReset(context.Background(), m, "a@example.com", "<b>x</b>", "https://x/reset-password/t"))
	assert.NotContains(t, m.LastHTML, "<b>x</b>")
}

func TestSendPasswordReset_PropagatesError(t *testing.T) {
	boom := errors.New("smtp down")
	m := &MockNotifier{SendFunc: func(context.Context, string, string, string, string) error { return boom }}
	assert.ErrorIs(t, SendPasswordReset(context.Background(), m, "a@example.com", "a", "link"), boom)
}

func TestBuildMessage(t *testing.T) {
	_, err := buildMessage("noreply@linkcard.app", "alice@example.com", "s", "<p>h</p>", "t")
	assert.NoError(t, err)

	_, err = buildMessage("not an address", "alice@example.com", "s", "", "t")
	assert.Error(t, err)
	_, err = buildMessage("noreply@linkcard.app", "", "s", "", "t")
	assert.Error(t, err)
}

func TestInitEmailService(t *testing.T) {
	saved := config.Cfg
	defer func() { config.Cfg = saved }()

	config.Cfg.EmailProvider = "log"
	n, err := InitEmailService(context.Background())
	require.NoError(t, err)
	assert.IsType(t, LogEmailNotifier{}, n)

	config.Cfg.EmailProvider = "smtp"
	config.Cfg.SMTPHost = "smtp.example.com"
	config.Cfg.SMTPPort = 587
	config.Cfg.SMTPUser = "user@example.com"
	config.Cfg.SMTPPass = "secret"
	n, err = InitEmailService(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &SMTPEmailNotifier{}, n)

	config.Cfg.EmailProvider = "ses"
	config.Cfg.AWSRegion = ""
	_, err = InitEmailService(context.Background())
	assert.Error(t, err)

	config.Cfg.EmailProvider = "pigeon"
	_, err = InitEmailService(context.Background())
	assert.Error(t, err)
}

func TestLogEmailNotifier(t *testing.T) {
	assert.NoError(t, LogEmailNotifier{}.SendEmail(context.Background(), "a@example.com", "s", "", "t"))
}

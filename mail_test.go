package identity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identity "github.com/seablast/go-identity"
)

type recordingDispatcher struct {
	to      string
	subject string
	body    string
	calls   int
	err     error
}

func (d *recordingDispatcher) Send(ctx context.Context, to, subject, body string) error {
	d.calls++
	d.to = to
	d.subject = subject
	d.body = body
	return d.err
}

func testMailerConfig(enabled bool) identity.LoginMailerConfig {
	return identity.LoginMailerConfig{
		AppRootURL:          "https://app.example.com",
		LoginSubject:        "Sign in",
		LoginBody:           "Follow %URL% to sign in.",
		RegistrationSubject: "Welcome",
		RegistrationBody:    "Welcome aboard! Follow %URL% to finish registration.",
		Enabled:             enabled,
	}
}

func TestLoginMailerComposeBody(t *testing.T) {
	mailer := identity.NewLoginMailer(testMailerConfig(true), &recordingDispatcher{})

	url := mailer.LoginURL("abc123")
	assert.Equal(t, "https://app.example.com/user/?token=abc123", url)

	body := mailer.ComposeBody("abc123", false)
	assert.Equal(t, "Follow https://app.example.com/user/?token=abc123 to sign in.", body)
	assert.NotContains(t, body, identity.URLPlaceholder)

	body = mailer.ComposeBody("abc123", true)
	assert.Contains(t, body, "Welcome aboard!")
	assert.Contains(t, body, "?token=abc123")
}

func TestSendLoginEmailPicksWording(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	mailer := identity.NewLoginMailer(testMailerConfig(true), dispatcher)
	ctx := context.Background()

	require.NoError(t, mailer.SendLoginEmail(ctx, "alice@example.com", "tok1", false))
	assert.Equal(t, 1, dispatcher.calls)
	assert.Equal(t, "alice@example.com", dispatcher.to)
	assert.Equal(t, "Sign in", dispatcher.subject)
	assert.Contains(t, dispatcher.body, "?token=tok1")

	require.NoError(t, mailer.SendLoginEmail(ctx, "bob@example.com", "tok2", true))
	assert.Equal(t, "Welcome", dispatcher.subject)
	assert.Contains(t, dispatcher.body, "Welcome aboard!")
}

func TestSendLoginEmailDisabled(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	mailer := identity.NewLoginMailer(testMailerConfig(false), dispatcher)

	require.NoError(t, mailer.SendLoginEmail(context.Background(), "alice@example.com", "tok", false))
	assert.Equal(t, 0, dispatcher.calls)
}

func TestSendLoginEmailMissingDispatcher(t *testing.T) {
	mailer := identity.NewLoginMailer(testMailerConfig(true), nil)

	err := mailer.SendLoginEmail(context.Background(), "alice@example.com", "tok", false)
	assert.Error(t, err)
}

func TestSendLoginEmailDispatchFailure(t *testing.T) {
	dispatcher := &recordingDispatcher{err: assert.AnError}
	mailer := identity.NewLoginMailer(testMailerConfig(true), dispatcher)

	err := mailer.SendLoginEmail(context.Background(), "alice@example.com", "tok", false)
	assert.Error(t, err)
}

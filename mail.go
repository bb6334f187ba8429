package identity

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// URLPlaceholder is the marker replaced by the token-bearing login URL in
// mail bodies.
const URLPlaceholder = "%URL%"

// LoginMailerConfig holds the wording and gating for login mail.
// Registration and re-login get different subjects and bodies; both bodies
// should contain the %URL% placeholder.
type LoginMailerConfig struct {
	// AppRootURL is the absolute application root, without trailing slash.
	AppRootURL string

	LoginSubject        string
	LoginBody           string
	RegistrationSubject string
	RegistrationBody    string

	// Enabled gates actual delivery. The flag is owned by the surrounding
	// application configuration, not by this library; when false the mail is
	// composed and logged but never handed to the dispatcher.
	Enabled bool
}

// LoginMailer composes the login/registration email and triggers delivery
// through a MailDispatcher.
type LoginMailer struct {
	config     LoginMailerConfig
	dispatcher MailDispatcher
	logger     Logger
}

// NewLoginMailer builds a LoginMailer. The dispatcher may be nil only when
// delivery is disabled.
func NewLoginMailer(config LoginMailerConfig, dispatcher MailDispatcher) *LoginMailer {
	return &LoginMailer{
		config:     config,
		dispatcher: dispatcher,
		logger:     defLogger{},
	}
}

func (lm *LoginMailer) WithLogger(logger Logger) *LoginMailer {
	if logger != nil {
		lm.logger = logger
	}
	return lm
}

// LoginURL returns the token-bearing URL the user will follow.
func (lm *LoginMailer) LoginURL(token string) string {
	return lm.config.AppRootURL + "/user/?token=" + token
}

// ComposeBody substitutes the login URL into the configured body, picking
// registration or login wording from the new-user flag.
func (lm *LoginMailer) ComposeBody(token string, newUser bool) string {
	body := lm.config.LoginBody
	if newUser {
		body = lm.config.RegistrationBody
	}
	return strings.ReplaceAll(body, URLPlaceholder, lm.LoginURL(token))
}

// SendLoginEmail composes and delivers the login (or registration) email for
// the given token. When delivery is disabled it logs and returns nil.
func (lm *LoginMailer) SendLoginEmail(ctx context.Context, to, token string, newUser bool) error {
	subject := lm.config.LoginSubject
	if newUser {
		subject = lm.config.RegistrationSubject
	}
	body := lm.ComposeBody(token, newUser)

	if !lm.config.Enabled {
		lm.logger.Info("mail delivery disabled, skipping send to %s subject %q", to, subject)
		return nil
	}

	if lm.dispatcher == nil {
		return goerrors.New("mail dispatcher not configured", goerrors.CategoryOperation)
	}

	if err := lm.dispatcher.Send(ctx, to, subject, body); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to dispatch login email")
	}

	lm.logger.Info("login email sent to %s", to)
	return nil
}

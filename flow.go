package identity

import (
	"context"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// FlowRequest is the parsed slice of an inbound request the login flow needs:
// method, the token and logout query parameters, and the posted form fields.
type FlowRequest struct {
	Method    string
	Token     string
	Logout    bool
	Email     string
	CSRFToken string
}

// FlowResult is the outcome record handed back to the rendering layer:
// either a redirect, or what to show plus a user-facing message.
type FlowResult struct {
	RedirectionURL string `json:"redirectionUrl,omitempty"`
	ShowLogin      bool   `json:"showLogin"`
	ShowLogout     bool   `json:"showLogout"`
	Message        string `json:"message,omitempty"`
}

const (
	msgAlreadySignedIn  = "You are already signed in as "
	msgInvalidToken     = "Invalid token."
	msgInvalidEmail     = "Invalid email format."
	msgCSRFMismatch     = "Token mismatch."
	msgShowLoginForm    = "Sign in with your email. We will send you a login link; no passwords needed."
	msgLoginEmailQueued = "A login link is on its way to your inbox. Follow it; no passwords needed."
)

// UserFlow reacts to the different authentication states of the /user route:
//
//  0. if authenticated, listen for logout
//  A. a token GET parameter is redeemed; valid tokens create a session
//  B. auto re-login when the remember-me cookie fits the database
//  C. a POSTed email plus a valid anti-forgery token sends the login email
//  D. otherwise, show the login form to be processed in C
type UserFlow struct {
	manager *Manager
	mailer  *LoginMailer
	csrf    CSRFValidator
	appRoot string
	logger  Logger
}

// NewUserFlow wires the flow. appRoot is the absolute application root URL
// without trailing slash; redirects land on appRoot + "/user".
func NewUserFlow(manager *Manager, mailer *LoginMailer, csrf CSRFValidator, appRoot string) *UserFlow {
	return &UserFlow{
		manager: manager,
		mailer:  mailer,
		csrf:    csrf,
		appRoot: appRoot,
		logger:  defLogger{},
	}
}

func (f *UserFlow) WithLogger(logger Logger) *UserFlow {
	if logger != nil {
		f.logger = logger
	}
	return f
}

func (f *UserFlow) userURL() string {
	return f.appRoot + "/user"
}

// Resolve runs one request through the flow and returns the outcome record.
func (f *UserFlow) Resolve(ctx context.Context, sctx SessionContext, req FlowRequest) (*FlowResult, error) {
	result, err := f.resolve(ctx, sctx, req)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("flow outcome: %s", print.MaybePrettyJSON(result))
	return result, nil
}

func (f *UserFlow) resolve(ctx context.Context, sctx SessionContext, req FlowRequest) (*FlowResult, error) {
	authenticated, err := f.manager.IsAuthenticated(ctx, sctx)
	if err != nil {
		return nil, err
	}

	if authenticated {
		if req.Logout {
			if err := f.manager.Logout(ctx, sctx); err != nil {
				return nil, err
			}
			return &FlowResult{RedirectionURL: f.userURL()}, nil
		}

		email, err := f.manager.Email()
		if err != nil {
			return nil, err
		}
		return &FlowResult{
			ShowLogin:  false,
			ShowLogout: true,
			Message:    msgAlreadySignedIn + email,
		}, nil
	}

	switch req.Method {
	case http.MethodGet:
		return f.resolveGet(ctx, sctx, req)
	case http.MethodPost:
		if req.Email != "" && req.CSRFToken != "" {
			return f.resolvePost(ctx, req)
		}
	}

	return nil, goerrors.New("wrong HTTP request: "+req.Method, goerrors.CategoryBadInput).
		WithCode(goerrors.CodeBadRequest)
}

func (f *UserFlow) resolveGet(ctx context.Context, sctx SessionContext, req FlowRequest) (*FlowResult, error) {
	if req.Token != "" {
		valid, err := f.manager.IsTokenValid(ctx, sctx, req.Token)
		if err != nil {
			return nil, err
		}
		if valid {
			// refresh the page so the authenticated menu renders
			return &FlowResult{RedirectionURL: f.userURL()}, nil
		}
		return &FlowResult{ShowLogin: true, Message: msgInvalidToken}, nil
	}

	remembered, err := f.manager.DoYouRememberMe(ctx, sctx)
	if err != nil {
		return nil, err
	}
	if remembered {
		return &FlowResult{RedirectionURL: f.userURL()}, nil
	}

	return &FlowResult{ShowLogin: true, Message: msgShowLoginForm}, nil
}

func (f *UserFlow) resolvePost(ctx context.Context, req FlowRequest) (*FlowResult, error) {
	if err := validEmail(req.Email); err != nil {
		return &FlowResult{ShowLogin: true, Message: msgInvalidEmail}, nil
	}

	if f.csrf == nil || !f.csrf.Validate(req.CSRFToken) {
		f.logger.Error("anti-forgery token mismatch for %s", req.Email)
		return &FlowResult{ShowLogin: true, Message: msgCSRFMismatch}, nil
	}

	token, err := f.manager.Login(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	newUser, err := f.manager.IsNewUser()
	if err != nil {
		return nil, err
	}

	if f.mailer != nil {
		if err := f.mailer.SendLoginEmail(ctx, req.Email, token, newUser); err != nil {
			return nil, err
		}
	}

	return &FlowResult{ShowLogin: false, ShowLogout: false, Message: msgLoginEmailQueued}, nil
}

package weblogin

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/llmstack/backend/internal/domain/connection"
	"github.com/llmstack/backend/internal/domain/shared"
	"github.com/llmstack/backend/internal/infrastructure/browser"
	"go.uber.org/zap"
)

const (
	DefaultLinkedInLoginURL = "https://www.linkedin.com/login"
	DefaultLinkedInFeedURL  = "https://www.linkedin.com/feed/"

	usernameSelector = `input[name="session_key"]`
	passwordSelector = `input[name="session_password"]`
	submitSelector   = `button[type="submit"]`
	alertSelector    = `div[role="alert"]`

	defaultLoginTimeout = 60 * time.Second
	defaultPollInterval = 250 * time.Millisecond
)

// credentials are the configuration inputs of a LinkedIn web login
type credentials struct {
	Username string `json:"username" validate:"required,max=255"`
	Password string `json:"password" validate:"required"`
}

// LinkedInLogin logs in to LinkedIn in a browser and stores the session cookies
// on the connection.
type LinkedInLogin struct {
	launcher     browser.Launcher
	validate     *validator.Validate
	logger       *zap.Logger
	loginURL     string
	feedURL      string
	timeout      time.Duration
	pollInterval time.Duration
}

// Option configures a LinkedInLogin
type Option func(*LinkedInLogin)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(t *LinkedInLogin) { t.logger = l }
}

// WithURLs overrides the login page and the post-login landing URL
func WithURLs(loginURL, feedURL string) Option {
	return func(t *LinkedInLogin) {
		t.loginURL = loginURL
		t.feedURL = feedURL
	}
}

// WithTimeout bounds the whole login, from browser start to session capture
func WithTimeout(d time.Duration) Option {
	return func(t *LinkedInLogin) { t.timeout = d }
}

// WithPollInterval sets how often the page is checked for an outcome after submit
func WithPollInterval(d time.Duration) Option {
	return func(t *LinkedInLogin) { t.pollInterval = d }
}

// NewLinkedInLogin creates the LinkedIn web-login connection type
func NewLinkedInLogin(launcher browser.Launcher, opts ...Option) *LinkedInLogin {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})

	t := &LinkedInLogin{
		launcher:     launcher,
		validate:     v,
		logger:       zap.NewNop(),
		loginURL:     DefaultLinkedInLoginURL,
		feedURL:      DefaultLinkedInFeedURL,
		timeout:      defaultLoginTimeout,
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Descriptor returns the static type metadata
func (t *LinkedInLogin) Descriptor() connection.TypeDescriptor {
	return connection.TypeDescriptor{
		Name:         "LinkedIn Login",
		ProviderSlug: "linkedin",
		Slug:         "web_login",
		Description:  "Login to LinkedIn",
		BaseType:     connection.BaseTypeCredentials,
		Fields: []connection.ConfigField{
			{Name: "username", Title: "Username", Type: "string", Required: true},
			{Name: "password", Title: "Password", Type: "string", Required: true, Widget: "password"},
		},
	}
}

// Activate signs in with the connection's credentials. A login the site rejects
// yields a result carrying the site's message with the connection FAILED; a
// successful login stores the storage state and leaves the connection ACTIVE.
// An error means the flow broke before either outcome was observed.
func (t *LinkedInLogin) Activate(ctx context.Context, conn *connection.Connection) (*connection.ActivationResult, error) {
	creds := credentials{
		Username: conn.Credential("username"),
		Password: conn.Credential("password"),
	}
	if err := t.validateCredentials(creds); err != nil {
		return nil, err
	}

	if conn.Status != connection.StatusConnecting {
		conn.MarkConnecting()
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	log := t.logger.With(zap.String("connection_id", conn.ID.String()))
	log.Info("starting LinkedIn login", zap.String("login_url", t.loginURL))

	session, err := t.launcher.NewSession(ctx)
	if err != nil {
		return nil, t.flowError(ctx, ErrCodeBrowserUnavailable, "could not start browser", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.Warn("failed to close browser session", zap.Error(cerr))
		}
	}()

	if err := session.Navigate(ctx, t.loginURL); err != nil {
		return nil, t.flowError(ctx, ErrCodeLoginFlow, "could not open login page", err)
	}
	if err := session.Fill(ctx, usernameSelector, creds.Username); err != nil {
		return nil, t.flowError(ctx, ErrCodeLoginFlow, "could not enter username", err)
	}
	if err := session.Fill(ctx, passwordSelector, creds.Password); err != nil {
		return nil, t.flowError(ctx, ErrCodeLoginFlow, "could not enter password", err)
	}
	if err := session.Click(ctx, submitSelector); err != nil {
		return nil, t.flowError(ctx, ErrCodeLoginFlow, "could not submit login form", err)
	}

	alert, err := t.waitForOutcome(ctx, session)
	if err != nil {
		return nil, err
	}
	if alert != "" {
		log.Info("LinkedIn rejected login", zap.String("alert", alert))
		conn.MarkFailed()
		return &connection.ActivationResult{Connection: conn, Error: alert}, nil
	}

	state, err := session.StorageState(ctx)
	if err != nil {
		return nil, t.flowError(ctx, ErrCodeSessionCapture, "could not capture session", err)
	}
	if err := conn.MarkActive(state); err != nil {
		return nil, err
	}

	log.Info("LinkedIn login succeeded", zap.Int("cookies", len(state.Cookies)))
	return &connection.ActivationResult{Connection: conn}, nil
}

// waitForOutcome polls the page until it shows an alert (returned) or lands on
// the feed URL (empty string).
func (t *LinkedInLogin) waitForOutcome(ctx context.Context, page browser.Page) (string, error) {
	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	for {
		html, err := page.HTML(ctx)
		if err == nil {
			if text, found, perr := detectAlert(html, alertSelector); perr == nil && found {
				return text, nil
			}
		}

		if loc, err := page.Location(ctx); err == nil && strings.HasPrefix(loc, t.feedURL) {
			return "", nil
		}

		select {
		case <-ctx.Done():
			return "", t.flowError(ctx, ErrCodeLoginTimeout,
				fmt.Sprintf("did not reach %s", t.feedURL), ctx.Err())
		case <-ticker.C:
		}
	}
}

func (t *LinkedInLogin) validateCredentials(c credentials) error {
	err := t.validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return shared.NewDomainError("INVALID_INPUT",
		"invalid connection configuration: "+strings.Join(fields, ", "))
}

// flowError classifies a failure, reporting deadline expiry as a timeout
func (t *LinkedInLogin) flowError(ctx context.Context, code, msg string, cause error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		code = ErrCodeLoginTimeout
		msg = fmt.Sprintf("%s (timed out after %v)", msg, t.timeout)
	}
	return NewLoginError(code, msg, cause)
}

var _ connection.Type = (*LinkedInLogin)(nil)

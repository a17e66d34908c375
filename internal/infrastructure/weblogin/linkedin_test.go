package weblogin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/llmstack/backend/internal/domain/connection"
	"github.com/llmstack/backend/internal/domain/shared"
	"github.com/llmstack/backend/internal/infrastructure/browser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSession scripts page behaviour after the form is submitted
type fakeSession struct {
	mu         sync.Mutex
	calls      []string
	filled     map[string]string
	submitted  bool
	afterPolls int // polls before the outcome appears
	polls      int
	alertHTML  string
	landingURL string
	state      *connection.StorageState
	navErr     error
	stateErr   error
	closed     bool
}

func (f *fakeSession) record(c string) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *fakeSession) Navigate(_ context.Context, url string) error {
	f.record("navigate " + url)
	return f.navErr
}

func (f *fakeSession) Fill(_ context.Context, selector, value string) error {
	f.record("fill " + selector)
	if f.filled == nil {
		f.filled = map[string]string{}
	}
	f.filled[selector] = value
	return nil
}

func (f *fakeSession) Click(_ context.Context, selector string) error {
	f.record("click " + selector)
	f.submitted = true
	return nil
}

func (f *fakeSession) outcomeReady() bool {
	return f.submitted && f.polls >= f.afterPolls
}

func (f *fakeSession) HTML(context.Context) (string, error) {
	f.polls++
	if f.outcomeReady() && f.alertHTML != "" {
		return f.alertHTML, nil
	}
	return `<html><body><div role="alert"></div></body></html>`, nil
}

func (f *fakeSession) Location(context.Context) (string, error) {
	if f.outcomeReady() && f.landingURL != "" {
		return f.landingURL, nil
	}
	return "https://login.test/login", nil
}

func (f *fakeSession) StorageState(context.Context) (*connection.StorageState, error) {
	return f.state, f.stateErr
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

type fakeLauncher struct {
	session *fakeSession
	err     error
}

func (l *fakeLauncher) NewSession(context.Context) (browser.Session, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.session, nil
}

func newLogin(l browser.Launcher, timeout time.Duration) *LinkedInLogin {
	return NewLinkedInLogin(l,
		WithURLs("https://login.test/login", "https://login.test/feed/"),
		WithTimeout(timeout),
		WithPollInterval(5*time.Millisecond),
	)
}

func newConn(t *testing.T, cfg map[string]any) *connection.Connection {
	t.Helper()
	c, err := connection.NewConnection(uuid.New(), "LinkedIn", "", NewLinkedInLogin(nil).Descriptor(), cfg)
	require.NoError(t, err)
	return c
}

func validConfig() map[string]any {
	return map[string]any{"username": "jane@example.com", "password": "hunter2"}
}

func TestLinkedInLogin_Descriptor(t *testing.T) {
	d := NewLinkedInLogin(nil).Descriptor()
	assert.Equal(t, "LinkedIn Login", d.Name)
	assert.Equal(t, "linkedin", d.ProviderSlug)
	assert.Equal(t, "web_login", d.Slug)
	assert.Equal(t, "Login to LinkedIn", d.Description)
	assert.Equal(t, connection.BaseTypeCredentials, d.BaseType)
	assert.Equal(t, []string{"password"}, d.SecretFields())
}

func TestLinkedInLogin_Success(t *testing.T) {
	state := &connection.StorageState{Cookies: []connection.Cookie{{Name: "li_at", Value: "tok"}}}
	sess := &fakeSession{afterPolls: 3, landingURL: "https://login.test/feed/?trk=login", state: state}
	conn := newConn(t, validConfig())

	res, err := newLogin(&fakeLauncher{session: sess}, time.Second).Activate(context.Background(), conn)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.False(t, res.Rejected())
	assert.Same(t, conn, res.Connection)
	assert.Equal(t, connection.StatusActive, conn.Status)

	stored, err := conn.StorageState()
	require.NoError(t, err)
	assert.Equal(t, state, stored)

	assert.Equal(t, "jane@example.com", sess.filled[usernameSelector])
	assert.Equal(t, "hunter2", sess.filled[passwordSelector])
	assert.Equal(t, []string{
		"navigate https://login.test/login",
		"fill " + usernameSelector,
		"fill " + passwordSelector,
		"click " + submitSelector,
	}, sess.calls)
	assert.True(t, sess.closed)
}

func TestLinkedInLogin_SiteRejectsLogin(t *testing.T) {
	sess := &fakeSession{
		alertHTML: `<div role="alert">Wrong email or password. Try again or create an account.</div>`,
	}
	conn := newConn(t, validConfig())

	res, err := newLogin(&fakeLauncher{session: sess}, time.Second).Activate(context.Background(), conn)
	require.NoError(t, err)
	require.True(t, res.Rejected())
	assert.Equal(t, "Wrong email or password. Try again or create an account.", res.Error)
	assert.Equal(t, connection.StatusFailed, res.Connection.Status)
	assert.False(t, conn.HasStorageState())
	assert.True(t, sess.closed)
}

func TestLinkedInLogin_InvalidCredentials(t *testing.T) {
	launcher := &fakeLauncher{err: errors.New("must not be called")}
	conn := newConn(t, map[string]any{"username": "jane"})

	res, err := newLogin(launcher, time.Second).Activate(context.Background(), conn)
	assert.Nil(t, res)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.Contains(t, err.Error(), "password")
	assert.Equal(t, connection.StatusCreated, conn.Status)
}

func TestLinkedInLogin_FlowErrors(t *testing.T) {
	t.Run("browser unavailable", func(t *testing.T) {
		_, err := newLogin(&fakeLauncher{err: errors.New("dial ws: refused")}, time.Second).
			Activate(context.Background(), newConn(t, validConfig()))

		var le *LoginError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, ErrCodeBrowserUnavailable, le.Code)
	})

	t.Run("navigation failure", func(t *testing.T) {
		sess := &fakeSession{navErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}
		_, err := newLogin(&fakeLauncher{session: sess}, time.Second).
			Activate(context.Background(), newConn(t, validConfig()))

		var le *LoginError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, ErrCodeLoginFlow, le.Code)
		assert.True(t, sess.closed)
	})

	t.Run("never reaches feed", func(t *testing.T) {
		sess := &fakeSession{}
		_, err := newLogin(&fakeLauncher{session: sess}, 50*time.Millisecond).
			Activate(context.Background(), newConn(t, validConfig()))

		var le *LoginError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, ErrCodeLoginTimeout, le.Code)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("session capture failure", func(t *testing.T) {
		sess := &fakeSession{landingURL: "https://login.test/feed/", stateErr: errors.New("target closed")}
		conn := newConn(t, validConfig())
		_, err := newLogin(&fakeLauncher{session: sess}, time.Second).Activate(context.Background(), conn)

		var le *LoginError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, ErrCodeSessionCapture, le.Code)
		assert.Equal(t, connection.StatusConnecting, conn.Status)
	})
}

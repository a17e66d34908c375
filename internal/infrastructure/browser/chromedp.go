package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"github.com/llmstack/backend/internal/domain/connection"
	"go.uber.org/zap"
)

const defaultActionTimeout = 30 * time.Second

// localStorageScript returns the current origin and its localStorage entries
const localStorageScript = `(() => {
	const entries = [];
	try {
		for (let i = 0; i < window.localStorage.length; i++) {
			const name = window.localStorage.key(i);
			entries.push({name: name, value: window.localStorage.getItem(name)});
		}
	} catch (e) {}
	return {origin: window.location.origin, localStorage: entries};
})()`

// ChromedpLauncher opens sessions on a local or remote Chrome
type ChromedpLauncher struct {
	config Config
	logger *zap.Logger
}

// NewChromedpLauncher creates a launcher. A nil logger discards browser logs.
func NewChromedpLauncher(cfg Config, logger *zap.Logger) *ChromedpLauncher {
	if cfg.ActionTimeout == 0 {
		cfg.ActionTimeout = defaultActionTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChromedpLauncher{config: cfg, logger: logger.Named("browser")}
}

// allocatorOptions returns the flags for a locally launched Chrome
func (l *ChromedpLauncher) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.config.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
	)
	if l.config.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	return opts
}

// NewSession opens a tab in a fresh browser context. Locally that means a
// new Chrome process; on a remote browser the context isolates cookies from
// every other session. ctx bounds startup only; callers must Close the session.
func (l *ChromedpLauncher) NewSession(ctx context.Context) (Session, error) {
	logOpts := []chromedp.ContextOption{
		chromedp.WithLogf(func(format string, args ...any) {
			l.logger.Debug(fmt.Sprintf(format, args...))
		}),
		chromedp.WithErrorf(func(format string, args ...any) {
			l.logger.Warn(fmt.Sprintf(format, args...))
		}),
	}

	s := &chromedpSession{actionTimeout: l.config.ActionTimeout}
	var cancels []context.CancelFunc
	s.cancel = func() {
		for i := len(cancels) - 1; i >= 0; i-- {
			cancels[i]()
		}
	}

	var parent context.Context
	if l.config.RemoteURL != "" {
		allocCtx, allocCancel := chromedp.NewRemoteAllocator(context.Background(), l.config.RemoteURL)
		cancels = append(cancels, allocCancel)
		parent = allocCtx
	} else {
		allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), l.allocatorOptions()...)
		browserCtx, browserCancel := chromedp.NewContext(allocCtx, logOpts...)
		cancels = append(cancels, allocCancel, browserCancel)
		// The first Run launches Chrome; the browser context can only be
		// created once it is running.
		if err := start(ctx, browserCtx, s.cancel); err != nil {
			return nil, fmt.Errorf("start browser: %w", err)
		}
		parent = browserCtx
		logOpts = nil
	}

	tabCtx, tabCancel := chromedp.NewContext(parent, append(logOpts, chromedp.WithNewBrowserContext())...)
	cancels = append(cancels, tabCancel)
	s.ctx = tabCtx
	if err := start(ctx, tabCtx, s.cancel); err != nil {
		return nil, fmt.Errorf("open browser context: %w", err)
	}

	l.logger.Debug("browser session started",
		zap.Bool("remote", l.config.RemoteURL != ""),
		zap.String("browser_context", string(chromedp.FromContext(tabCtx).BrowserContextID)),
	)
	return s, nil
}

// start performs the first Run on a chromedp context. That Run allocates the
// browser and attaches the tab, both of which live as long as the context
// passed to it, so it runs on the chromedp context itself. ctx can only abort
// startup, by tearing the session down.
func start(ctx context.Context, chromeCtx context.Context, teardown func()) error {
	stop := context.AfterFunc(ctx, teardown)
	err := chromedp.Run(chromeCtx)
	if !stop() {
		// teardown already ran or is running
		return errors.Join(ctx.Err(), err)
	}
	if err != nil {
		teardown()
		return err
	}
	return nil
}

type chromedpSession struct {
	ctx           context.Context
	cancel        context.CancelFunc
	actionTimeout time.Duration
}

// run executes actions on the already attached tab, bounded by both the
// caller's context and the per-action timeout.
func (s *chromedpSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, s.actionTimeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return errors.Join(ctx.Err(), err)
	}
	return err
}

func (s *chromedpSession) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (s *chromedpSession) Fill(ctx context.Context, selector, value string) error {
	err := s.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.SetValue(selector, "", chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("fill %s: %w", selector, err)
	}
	return nil
}

func (s *chromedpSession) Click(ctx context.Context, selector string) error {
	if err := s.run(ctx, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

func (s *chromedpSession) Location(ctx context.Context) (string, error) {
	var loc string
	if err := s.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return loc, nil
}

func (s *chromedpSession) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return html, nil
}

func (s *chromedpSession) StorageState(ctx context.Context) (*connection.StorageState, error) {
	var cookies []*network.Cookie
	var origin originSnapshot

	err := s.run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			// Cookies live on the browser, scoped to this session's context
			c := chromedp.FromContext(s.ctx)
			var err error
			cookies, err = storage.GetCookies().
				WithBrowserContextID(c.BrowserContextID).
				Do(cdp.WithExecutor(ctx, c.Browser))
			return err
		}),
		chromedp.Evaluate(localStorageScript, &origin),
	)
	if err != nil {
		return nil, fmt.Errorf("capture storage state: %w", err)
	}

	state := &connection.StorageState{
		Cookies: convertCookies(cookies),
		Origins: []connection.OriginState{},
	}
	if len(origin.LocalStorage) > 0 {
		state.Origins = append(state.Origins, connection.OriginState{
			Origin:       origin.Origin,
			LocalStorage: origin.LocalStorage,
		})
	}
	return state, nil
}

func (s *chromedpSession) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

type originSnapshot struct {
	Origin       string                 `json:"origin"`
	LocalStorage []connection.NameValue `json:"localStorage"`
}

// convertCookies maps DevTools cookies into the storage-state shape.
// Session cookies get expires -1.
func convertCookies(in []*network.Cookie) []connection.Cookie {
	out := make([]connection.Cookie, 0, len(in))
	for _, c := range in {
		if c == nil {
			continue
		}
		expires := c.Expires
		if c.Session {
			expires = -1
		}
		sameSite := c.SameSite.String()
		if sameSite == "" {
			sameSite = "Lax"
		}
		out = append(out, connection.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: sameSite,
		})
	}
	return out
}

var _ Launcher = (*ChromedpLauncher)(nil)

package browser

import (
	"context"
	"time"

	"github.com/llmstack/backend/internal/domain/connection"
)

// Page is the page-level automation surface used by login flows.
// Selectors are CSS selectors.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Fill(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	// Location returns the current URL of the page
	Location(ctx context.Context) (string, error)
	// HTML returns a snapshot of the current document
	HTML(ctx context.Context) (string, error)
	// StorageState captures cookies and the current origin's localStorage
	StorageState(ctx context.Context) (*connection.StorageState, error)
}

// Session is a Page backed by a browser that is torn down by Close
type Session interface {
	Page
	Close() error
}

// Launcher opens browser sessions
type Launcher interface {
	NewSession(ctx context.Context) (Session, error)
}

// Config configures the chromedp launcher
type Config struct {
	// RemoteURL is the DevTools endpoint of a remote browser (ws:// or http://).
	// Empty launches a local Chrome.
	RemoteURL string
	Headless  bool
	NoSandbox bool
	// ActionTimeout bounds each single page action
	ActionTimeout time.Duration
}

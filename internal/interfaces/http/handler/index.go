package handler

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/llmstack/backend/internal/infrastructure/logger"
	"github.com/llmstack/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// TitleResolver derives the page title for a request path
type TitleResolver interface {
	PageTitle(ctx context.Context, path string) string
}

// ShellConfig locates the built SPA
type ShellConfig struct {
	AppDir string
	// Reload re-reads index.html on every request.
	Reload bool
}

// placeholders written by the frontend build, e.g. {{ page_title }}
var shellPlaceholder = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)

// ShellHandler renders the SPA's index.html with a page title
type ShellHandler struct {
	BaseHandler
	titles TitleResolver
	cfg    ShellConfig

	mu   sync.Mutex
	tmpl *template.Template
}

// NewShellHandler creates a new ShellHandler
func NewShellHandler(titles TitleResolver, cfg ShellConfig) *ShellHandler {
	return &ShellHandler{titles: titles, cfg: cfg}
}

// IndexPath is the shell template location
func (h *ShellHandler) IndexPath() string {
	return filepath.Join(h.cfg.AppDir, "build", "index.html")
}

// StaticDir is the directory served under /static
func (h *ShellHandler) StaticDir() string {
	return filepath.Join(h.cfg.AppDir, "build", "static")
}

func (h *ShellHandler) template() (*template.Template, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.tmpl != nil && !h.cfg.Reload {
		return h.tmpl, nil
	}

	raw, err := os.ReadFile(h.IndexPath())
	if err != nil {
		return nil, fmt.Errorf("read shell template: %w", err)
	}
	src := shellPlaceholder.ReplaceAllString(string(raw), "{{.$1}}")
	tmpl, err := template.New("index.html").Option("missingkey=zero").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse shell template: %w", err)
	}
	h.tmpl = tmpl
	return tmpl, nil
}

// Index renders the shell for the request path
func (h *ShellHandler) Index(c *gin.Context) {
	ctx := c.Request.Context()
	tmpl, err := h.template()
	if err != nil {
		logger.L(ctx).Error("shell template unavailable", zap.String("path", h.IndexPath()), zap.Error(err))
		h.InternalError(c, "Frontend is not built")
		return
	}

	data := map[string]any{"page_title": h.titles.PageTitle(ctx, c.Request.URL.Path)}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		logger.L(ctx).Error("render shell template", zap.Error(err))
		h.InternalError(c, "Failed to render page")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// NoRoute renders the shell for unknown GET/HEAD paths outside the API
func (h *ShellHandler) NoRoute(c *gin.Context) {
	method := c.Request.Method
	if (method != http.MethodGet && method != http.MethodHead) || strings.HasPrefix(c.Request.URL.Path, "/api/") {
		h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, "Route not found")
		return
	}
	h.Index(c)
}

// Package router assembles the HTTP routes of the service.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/llmstack/backend/internal/interfaces/http/handler"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Handlers bundles everything the router mounts
type Handlers struct {
	Connection *handler.ConnectionHandler
	App        *handler.AppHandler
	Health     *handler.HealthHandler
	Shell      *handler.ShellHandler
	// Auth guards the API groups; nil leaves them open.
	Auth gin.HandlerFunc
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers the versioned API groups with the engine
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// Mount wires the service routes: health, the API, static assets and the SPA
// shell as the fallback for every other GET.
func Mount(engine *gin.Engine, h Handlers) {
	if h.Health != nil {
		engine.GET("/health", h.Health.Health)
	}

	r := NewRouter(engine)
	if h.Connection != nil {
		r.Register(ConnectionRoutes(h.Connection, h.Auth))
	}
	if h.App != nil {
		r.Register(AppRoutes(h.App, h.Auth))
	}
	r.Setup()

	if h.Shell != nil {
		engine.Static("/static", h.Shell.StaticDir())
		engine.GET("/", h.Shell.Index)
		engine.NoRoute(h.Shell.NoRoute)
	}
}

// ConnectionRoutes is the connection API
func ConnectionRoutes(h *handler.ConnectionHandler, auth gin.HandlerFunc) *DomainGroup {
	g := NewDomainGroup("connections", "")
	if auth != nil {
		g.Use(auth)
	}
	g.GET("/connection-types", h.ListTypes)

	conns := g.Group("connection", "/connections")
	conns.POST("", h.Create)
	conns.GET("", h.List)
	conns.GET("/:id", h.Get)
	conns.PATCH("/:id", h.Update)
	conns.DELETE("/:id", h.Delete)
	conns.POST("/:id/activate", h.Activate)
	return g
}

// AppRoutes is the read-only app API
func AppRoutes(h *handler.AppHandler, auth gin.HandlerFunc) *DomainGroup {
	g := NewDomainGroup("apps", "/apps")
	if auth != nil {
		g.Use(auth)
	}
	g.GET("/published/:uuid", h.GetPublished)
	return g
}

// DomainGroup is a route group for one API area, registered under the
// versioned API group.
type DomainGroup struct {
	name       string
	prefix     string
	routes     []routeDefinition
	subgroups  []*DomainGroup
	middleware []gin.HandlerFunc
}

type routeDefinition struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewDomainGroup creates a new domain-specific route group
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Use adds middleware to this group
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

func (dg *DomainGroup) handle(method, path string, handlers []gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, routeDefinition{method: method, path: path, handlers: handlers})
	return dg
}

// GET registers a GET route
func (dg *DomainGroup) GET(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodGet, path, handlers)
}

// POST registers a POST route
func (dg *DomainGroup) POST(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPost, path, handlers)
}

// PATCH registers a PATCH route
func (dg *DomainGroup) PATCH(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPatch, path, handlers)
}

// DELETE registers a DELETE route
func (dg *DomainGroup) DELETE(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodDelete, path, handlers)
}

// Group creates a sub-group within this domain. Subgroups inherit the
// parent's middleware.
func (dg *DomainGroup) Group(name, prefix string) *DomainGroup {
	subgroup := NewDomainGroup(name, prefix)
	dg.subgroups = append(dg.subgroups, subgroup)
	return subgroup
}

// RegisterRoutes implements RouteRegistrar interface
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix, dg.middleware...)
	for _, route := range dg.routes {
		group.Handle(route.method, route.path, route.handlers...)
	}
	for _, subgroup := range dg.subgroups {
		subgroup.RegisterRoutes(group)
	}
}

// Name returns the group name
func (dg *DomainGroup) Name() string {
	return dg.name
}

// Prefix returns the group prefix
func (dg *DomainGroup) Prefix() string {
	return dg.prefix
}

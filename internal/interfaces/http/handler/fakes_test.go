package handler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/llmstack/backend/internal/domain/app"
	"github.com/llmstack/backend/internal/domain/connection"
	"github.com/llmstack/backend/internal/domain/shared"
	"github.com/llmstack/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memConnections is an in-memory ConnectionRepository
type memConnections struct {
	mu    sync.Mutex
	items map[uuid.UUID]connection.Connection
	saves int
}

func newMemConnections() *memConnections {
	return &memConnections{items: make(map[uuid.UUID]connection.Connection)}
}

func (r *memConnections) FindByID(_ context.Context, id uuid.UUID) (*connection.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

func (r *memConnections) FindByOwner(_ context.Context, ownerID uuid.UUID, filter shared.Filter) ([]connection.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []connection.Connection
	for _, c := range r.items {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	start := filter.Offset()
	if start > len(out) {
		return nil, nil
	}
	end := start + filter.PageSize
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], nil
}

func (r *memConnections) CountByOwner(_ context.Context, ownerID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.items {
		if c.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (r *memConnections) Save(_ context.Context, c *connection.Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	r.items[c.ID] = *c
	return nil
}

func (r *memConnections) FailStaleConnecting(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, c := range r.items {
		if c.Status == connection.StatusConnecting && c.UpdatedAt.Before(cutoff) {
			c.MarkFailed()
			r.items[id] = c
			n++
		}
	}
	return n, nil
}

func (r *memConnections) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// memApps is an in-memory AppRepository
type memApps struct {
	byPublished map[uuid.UUID]*app.App
	err         error
}

func (r *memApps) FindByID(_ context.Context, id uuid.UUID) (*app.App, error) {
	for _, a := range r.byPublished {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memApps) FindByPublishedUUID(_ context.Context, id uuid.UUID) (*app.App, error) {
	if r.err != nil {
		return nil, r.err
	}
	a, ok := r.byPublished[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return a, nil
}

func (r *memApps) Save(_ context.Context, a *app.App) error {
	if a.PublishedUUID != nil {
		r.byPublished[*a.PublishedUUID] = a
	}
	return nil
}

// scriptedType is a connection type with a scripted activation
type scriptedType struct {
	activate func(ctx context.Context, conn *connection.Connection) (*connection.ActivationResult, error)
}

func (s *scriptedType) Descriptor() connection.TypeDescriptor {
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

func (s *scriptedType) Activate(ctx context.Context, conn *connection.Connection) (*connection.ActivationResult, error) {
	return s.activate(ctx, conn)
}

// authAs injects the JWT user the way JWTAuth does
func authAs(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.JWTUserIDKey, userID.String())
		c.Next()
	}
}

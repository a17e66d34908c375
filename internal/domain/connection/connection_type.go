package connection

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BaseType groups connection types by how they authenticate
type BaseType string

const (
	BaseTypeCredentials BaseType = "credentials"
	BaseTypeOAuth2      BaseType = "oauth2"
)

// ConfigField describes one configuration input of a connection type
type ConfigField struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Widget   string `json:"widget,omitempty"`
}

// IsSecret reports whether the field must never be echoed back
func (f ConfigField) IsSecret() bool {
	return f.Widget == "password"
}

// TypeDescriptor is the static metadata of a connection type
type TypeDescriptor struct {
	Name         string        `json:"name"`
	ProviderSlug string        `json:"provider_slug"`
	Slug         string        `json:"slug"`
	Description  string        `json:"description"`
	BaseType     BaseType      `json:"base_connection_type"`
	Fields       []ConfigField `json:"fields"`
}

// Key returns the registry key of the descriptor
func (d TypeDescriptor) Key() string {
	return TypeKey(d.ProviderSlug, d.Slug)
}

// SecretFields returns the names of fields rendered as passwords
func (d TypeDescriptor) SecretFields() []string {
	var out []string
	for _, f := range d.Fields {
		if f.IsSecret() {
			out = append(out, f.Name)
		}
	}
	return out
}

// TypeKey joins provider and type slugs
func TypeKey(provider, slug string) string {
	return provider + "/" + slug
}

// ActivationResult is the outcome of an activation that reached the remote site.
// Error carries the message the site displayed when it rejected the login.
type ActivationResult struct {
	Connection *Connection `json:"connection"`
	Error      string      `json:"error,omitempty"`
}

// Rejected reports whether the remote site refused the login
func (r *ActivationResult) Rejected() bool {
	return r != nil && r.Error != ""
}

// Type is a pluggable connection type. Activate mutates conn's status and
// configuration; returning an error means the flow itself broke before an
// outcome was known.
type Type interface {
	Descriptor() TypeDescriptor
	Activate(ctx context.Context, conn *Connection) (*ActivationResult, error)
}

// ActivationLock excludes concurrent activations of the same connection
type ActivationLock interface {
	// Acquire returns false when another activation holds the lock
	Acquire(ctx context.Context, id uuid.UUID, ttl time.Duration) (bool, error)
	Release(ctx context.Context, id uuid.UUID) error
}

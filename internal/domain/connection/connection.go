package connection

import (
	"strings"

	"github.com/google/uuid"
	"github.com/llmstack/backend/internal/domain/shared"
)

// StorageStateKey is the configuration key holding the captured browser session.
const StorageStateKey = "_storage_state"

// Status is the lifecycle state of a connection
type Status string

const (
	StatusCreated    Status = "CREATED"
	StatusConnecting Status = "CONNECTING"
	StatusActive     Status = "ACTIVE"
	StatusFailed     Status = "FAILED"
)

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	switch s {
	case StatusCreated, StatusConnecting, StatusActive, StatusFailed:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// Connection is a user-owned link to an external provider. Its Configuration
// holds both the inputs the user supplied (credentials) and outputs written by
// activation, which use keys prefixed with an underscore.
type Connection struct {
	shared.BaseAggregateRoot
	OwnerID       uuid.UUID      `json:"owner_id"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	BaseType      BaseType       `json:"base_type"`
	ProviderSlug  string         `json:"provider_slug"`
	TypeSlug      string         `json:"connection_type_slug"`
	Status        Status         `json:"status"`
	Configuration map[string]any `json:"configuration"`
}

// NewConnection creates a connection in CREATED state for the given type
func NewConnection(ownerID uuid.UUID, name, description string, desc TypeDescriptor, configuration map[string]any) (*Connection, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Connection owner is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Connection name cannot be empty")
	}
	if len(name) > 255 {
		return nil, shared.NewDomainError("INVALID_NAME", "Connection name cannot exceed 255 characters")
	}

	c := &Connection{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OwnerID:           ownerID,
		Name:              name,
		Description:       description,
		BaseType:          desc.BaseType,
		ProviderSlug:      desc.ProviderSlug,
		TypeSlug:          desc.Slug,
		Status:            StatusCreated,
		Configuration:     userConfiguration(configuration),
	}
	return c, nil
}

// TypeKey identifies the connection type in the registry
func (c *Connection) TypeKey() string {
	return TypeKey(c.ProviderSlug, c.TypeSlug)
}

// IsOwnedBy reports whether the user owns this connection
func (c *Connection) IsOwnedBy(userID uuid.UUID) bool {
	return c.OwnerID == userID
}

// MarkConnecting moves the connection into CONNECTING. Any status may
// re-enter activation; concurrent activations are excluded by the activation lock.
func (c *Connection) MarkConnecting() {
	c.setStatus(StatusConnecting)
}

// MarkActive stores the captured session and moves the connection to ACTIVE.
func (c *Connection) MarkActive(state *StorageState) error {
	if c.Status != StatusConnecting {
		return shared.NewDomainError("INVALID_STATE", "Connection can only become active while connecting")
	}
	if state == nil {
		return shared.NewDomainError("INVALID_STORAGE_STATE", "Storage state is required")
	}
	if c.Configuration == nil {
		c.Configuration = make(map[string]any)
	}
	c.Configuration[StorageStateKey] = state.ToMap()
	c.setStatus(StatusActive)
	return nil
}

// MarkFailed moves the connection to FAILED. A previously captured session is kept
// so callers can decide whether it is still usable.
func (c *Connection) MarkFailed() {
	c.setStatus(StatusFailed)
}

// StorageState returns the captured session, or nil when none has been stored.
func (c *Connection) StorageState() (*StorageState, error) {
	raw, ok := c.Configuration[StorageStateKey]
	if !ok || raw == nil {
		return nil, nil
	}
	return StorageStateFromAny(raw)
}

// Credential returns a string configuration value, or "" when absent or not a string.
func (c *Connection) Credential(key string) string {
	v, ok := c.Configuration[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Update replaces name, description and user configuration. Changing the
// configuration discards any captured session and resets the status to CREATED.
func (c *Connection) Update(name, description string, configuration map[string]any) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Connection name cannot be empty")
	}
	c.Name = name
	c.Description = description
	if configuration != nil {
		c.Configuration = userConfiguration(configuration)
		c.Status = StatusCreated
	}
	c.Touch()
	return nil
}

// PublicConfiguration returns the configuration without secret fields and without
// activation outputs.
func (c *Connection) PublicConfiguration(secretFields []string) map[string]any {
	out := make(map[string]any, len(c.Configuration))
	for k, v := range c.Configuration {
		if strings.HasPrefix(k, "_") {
			continue
		}
		out[k] = v
	}
	for _, f := range secretFields {
		delete(out, f)
	}
	return out
}

// HasStorageState reports whether a session has been captured
func (c *Connection) HasStorageState() bool {
	v, ok := c.Configuration[StorageStateKey]
	return ok && v != nil
}

func (c *Connection) setStatus(s Status) {
	c.Status = s
	c.Touch()
}

// userConfiguration copies the input, dropping reserved underscore keys
func userConfiguration(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if strings.HasPrefix(k, "_") {
			continue
		}
		out[k] = v
	}
	return out
}

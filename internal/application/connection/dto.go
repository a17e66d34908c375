package connection

import (
	"time"

	"github.com/google/uuid"
	"github.com/llmstack/backend/internal/domain/connection"
)

// CreateConnectionRequest represents a request to create a connection
type CreateConnectionRequest struct {
	Name          string         `json:"name" binding:"required,min=1,max=255"`
	Description   string         `json:"description" binding:"max=2000"`
	ProviderSlug  string         `json:"provider_slug" binding:"required,max=100"`
	TypeSlug      string         `json:"connection_type_slug" binding:"required,max=100"`
	Configuration map[string]any `json:"configuration"`
}

// UpdateConnectionRequest represents a request to update a connection.
// A nil Configuration leaves the stored configuration untouched; secret fields
// omitted from a non-nil Configuration keep their stored values.
type UpdateConnectionRequest struct {
	Name          string         `json:"name" binding:"required,min=1,max=255"`
	Description   string         `json:"description" binding:"max=2000"`
	Configuration map[string]any `json:"configuration"`
}

// ListFilter represents paging and ordering for connection lists
type ListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=created_at updated_at name status"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ConnectionResponse is the API view of a connection. Secret fields and
// activation outputs are never included in Configuration.
type ConnectionResponse struct {
	ID              uuid.UUID      `json:"id"`
	OwnerID         uuid.UUID      `json:"owner_id"`
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	BaseType        string         `json:"base_connection_type"`
	ProviderSlug    string         `json:"provider_slug"`
	TypeSlug        string         `json:"connection_type_slug"`
	Status          string         `json:"status"`
	Configuration   map[string]any `json:"configuration"`
	HasStorageState bool           `json:"has_storage_state"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Version         int            `json:"version"`
}

// ActivationResponse is the outcome of an activation. Error is set when the
// provider rejected the login.
type ActivationResponse struct {
	Connection ConnectionResponse `json:"connection"`
	Error      string             `json:"error,omitempty"`
}

// ToConnectionResponse converts a domain connection, hiding secretFields
func ToConnectionResponse(c *connection.Connection, secretFields []string) ConnectionResponse {
	return ConnectionResponse{
		ID:              c.ID,
		OwnerID:         c.OwnerID,
		Name:            c.Name,
		Description:     c.Description,
		BaseType:        string(c.BaseType),
		ProviderSlug:    c.ProviderSlug,
		TypeSlug:        c.TypeSlug,
		Status:          c.Status.String(),
		Configuration:   c.PublicConfiguration(secretFields),
		HasStorageState: c.HasStorageState(),
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
		Version:         c.Version,
	}
}

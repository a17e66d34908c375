package models

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/llmstack/backend/internal/domain/connection"
	"github.com/llmstack/backend/internal/infrastructure/crypto"
)

// ConnectionModel is the persistence model for connections. Configuration is
// stored as JSON, sealed by the configured cipher because it carries credentials
// and session cookies.
type ConnectionModel struct {
	AggregateModel
	OwnerID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Name          string    `gorm:"type:varchar(255);not null"`
	Description   string    `gorm:"type:text"`
	BaseType      string    `gorm:"type:varchar(50);not null"`
	ProviderSlug  string    `gorm:"type:varchar(100);not null"`
	TypeSlug      string    `gorm:"type:varchar(100);not null"`
	Status        string    `gorm:"type:varchar(20);not null;default:'CREATED';index"`
	Configuration string    `gorm:"type:text;not null"`
}

// TableName returns the table name for GORM
func (ConnectionModel) TableName() string {
	return "connections"
}

// ToDomain converts the model to a domain Connection, opening the configuration
func (m *ConnectionModel) ToDomain(c crypto.Cipher) (*connection.Connection, error) {
	configuration := map[string]any{}
	if m.Configuration != "" {
		raw, err := c.Open(m.Configuration)
		if err != nil {
			return nil, fmt.Errorf("connection %s: %w", m.ID, err)
		}
		if err := json.Unmarshal(raw, &configuration); err != nil {
			return nil, fmt.Errorf("connection %s: decode configuration: %w", m.ID, err)
		}
	}
	return &connection.Connection{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		OwnerID:           m.OwnerID,
		Name:              m.Name,
		Description:       m.Description,
		BaseType:          connection.BaseType(m.BaseType),
		ProviderSlug:      m.ProviderSlug,
		TypeSlug:          m.TypeSlug,
		Status:            connection.Status(m.Status),
		Configuration:     configuration,
	}, nil
}

// ConnectionModelFromDomain creates a persistence model, sealing the configuration
func ConnectionModelFromDomain(conn *connection.Connection, c crypto.Cipher) (*ConnectionModel, error) {
	cfg := conn.Configuration
	if cfg == nil {
		cfg = map[string]any{}
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode configuration: %w", err)
	}
	sealed, err := c.Seal(raw)
	if err != nil {
		return nil, err
	}
	m := &ConnectionModel{
		OwnerID:       conn.OwnerID,
		Name:          conn.Name,
		Description:   conn.Description,
		BaseType:      string(conn.BaseType),
		ProviderSlug:  conn.ProviderSlug,
		TypeSlug:      conn.TypeSlug,
		Status:        string(conn.Status),
		Configuration: sealed,
	}
	m.FromDomainAggregateRoot(conn.BaseAggregateRoot)
	return m, nil
}

// AllModels lists every model managed by AutoMigrate
func AllModels() []any {
	return []any{&AppModel{}, &ConnectionModel{}}
}

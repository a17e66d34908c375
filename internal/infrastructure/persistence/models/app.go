package models

import (
	"github.com/google/uuid"
	"github.com/llmstack/backend/internal/domain/app"
)

// AppModel is the persistence model for apps
type AppModel struct {
	AggregateModel
	OwnerID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	Name          string     `gorm:"type:varchar(255);not null"`
	Description   string     `gorm:"type:text"`
	PublishedUUID *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	IsPublished   bool       `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (AppModel) TableName() string {
	return "apps"
}

// ToDomain converts the persistence model to a domain App
func (m *AppModel) ToDomain() *app.App {
	return &app.App{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		OwnerID:           m.OwnerID,
		Name:              m.Name,
		Description:       m.Description,
		PublishedUUID:     m.PublishedUUID,
		IsPublished:       m.IsPublished,
	}
}

// AppModelFromDomain creates a persistence model from a domain App
func AppModelFromDomain(a *app.App) *AppModel {
	m := &AppModel{
		OwnerID:       a.OwnerID,
		Name:          a.Name,
		Description:   a.Description,
		PublishedUUID: a.PublishedUUID,
		IsPublished:   a.IsPublished,
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	return m
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Service - услуга из каталога (сантехника, уборка и т.д.).
type Service struct {
	ID                uuid.UUID `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	Description       *string   `db:"description" json:"description,omitempty"`
	BasePrice         float64   `db:"base_price" json:"base_price"`
	EstimatedDuration *string   `db:"estimated_duration" json:"estimated_duration,omitempty"`
	Location          *string   `db:"location" json:"location,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// ServiceCascadeResult описывает последствия удаления услуги.
type ServiceCascadeResult struct {
	UnlinkedProfessionals int64 `json:"unlinked_professionals"`
	DeletedRequests       int64 `json:"deleted_requests"`
}

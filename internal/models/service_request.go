package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/household-backend/internal/domain/valueobject"
)

// ServiceRequest - заявка заказчика. Отклик специалиста на открытую заявку
// хранится отдельной строкой с тем же service_id и customer_id.
type ServiceRequest struct {
	ID               uuid.UUID                 `db:"id" json:"id"`
	ServiceID        uuid.UUID                 `db:"service_id" json:"service_id"`
	CustomerID       uuid.UUID                 `db:"customer_id" json:"customer_id"`
	ProfessionalID   *uuid.UUID                `db:"professional_id" json:"professional_id,omitempty"`
	RequestType      valueobject.RequestType   `db:"request_type" json:"request_type"`
	Status           valueobject.RequestStatus `db:"status" json:"status"`
	Description      *string                   `db:"description" json:"description,omitempty"`
	CustomerRating   *float64                  `db:"customer_rating" json:"customer_rating,omitempty"`
	CustomerFeedback *string                   `db:"customer_feedback" json:"customer_feedback,omitempty"`
	Version          int                       `db:"version" json:"version"`
	CreatedOn        time.Time                 `db:"created_on" json:"created_on"`
	ClosedOn         *time.Time                `db:"closed_on" json:"closed_on,omitempty"`
}

// IsOpenCall - открытая заявка без назначенного специалиста.
func (r *ServiceRequest) IsOpenCall() bool {
	return r.RequestType == valueobject.RequestTypePublic &&
		r.Status == valueobject.RequestStatusPending &&
		r.ProfessionalID == nil
}

// IsPendingBid - отклик специалиста, ожидающий решения заказчика.
func (r *ServiceRequest) IsPendingBid() bool {
	return r.RequestType == valueobject.RequestTypePublic &&
		r.Status == valueobject.RequestStatusPending &&
		r.ProfessionalID != nil
}

// AssignedTo проверяет, назначена ли заявка указанному специалисту.
func (r *ServiceRequest) AssignedTo(professionalID uuid.UUID) bool {
	return r.ProfessionalID != nil && *r.ProfessionalID == professionalID
}

// RequestDetails - заявка вместе с именами связанных сущностей для выдачи в списках.
type RequestDetails struct {
	ServiceRequest
	ServiceName          string  `db:"service_name" json:"service_name"`
	CustomerUsername     string  `db:"customer_username" json:"customer_username"`
	CustomerAddress      *string `db:"customer_address" json:"customer_address,omitempty"`
	CustomerPincode      *string `db:"customer_pincode" json:"customer_pincode,omitempty"`
	ProfessionalUsername *string `db:"professional_username" json:"professional_username,omitempty"`
}

// RequestFilter задаёт условия выборки заявок. Пустые поля не участвуют в фильтре.
type RequestFilter struct {
	CustomerID     *uuid.UUID
	ProfessionalID *uuid.UUID
	ServiceID      *uuid.UUID
	Status         *valueobject.RequestStatus
	RequestType    *valueobject.RequestType
	// Assigned: nil - без условия, true - professional_id IS NOT NULL, false - IS NULL.
	Assigned *bool
	// OrderByRating сортирует по оценке заказчика по убыванию.
	OrderByRating bool
	Limit         int
}

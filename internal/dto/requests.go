package dto

import (
	"github.com/google/uuid"
)

// RegisterCustomerRequest represents customer self-registration
type RegisterCustomerRequest struct {
	Username    string  `json:"username" binding:"required"`
	Password    string  `json:"password" binding:"required"`
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phone_number"`
	Address     *string `json:"address"`
	Pincode     *string `json:"pincode"`
}

// RegisterProfessionalForm represents the multipart professional registration form.
// The PDF document is sent in the "document" file field.
type RegisterProfessionalForm struct {
	Username    string  `form:"username" binding:"required"`
	Password    string  `form:"password" binding:"required"`
	Email       *string `form:"email"`
	PhoneNumber *string `form:"phone_number"`
	Address     *string `form:"address"`
	Pincode     *string `form:"pincode"`
	ServiceID   string  `form:"service_id" binding:"required,uuid"`
	Experience  *string `form:"experience"`
}

// LoginRequest represents the login payload
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents the token refresh payload
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ServiceRequestBody represents admin create/update of a catalogue service
type ServiceRequestBody struct {
	Name              string   `json:"name" binding:"required"`
	Description       *string  `json:"description"`
	BasePrice         *float64 `json:"base_price" binding:"required"`
	EstimatedDuration *string  `json:"estimated_duration"`
	Location          *string  `json:"location"`
}

// CreatePrivateRequest represents a customer request addressed to one professional
type CreatePrivateRequest struct {
	ServiceID      uuid.UUID `json:"service_id" binding:"required"`
	ProfessionalID uuid.UUID `json:"professional_id" binding:"required"`
	Description    *string   `json:"description"`
}

// CreateOpenRequest represents a public request broadcast to all professionals of a service
type CreateOpenRequest struct {
	ServiceID   uuid.UUID `json:"service_id" binding:"required"`
	Description *string   `json:"description"`
}

// EditRequestBody represents a change of request description
type EditRequestBody struct {
	Description *string `json:"description"`
}

// SubmitBidRequest represents a professional's bid on an open request
type SubmitBidRequest struct {
	Description *string `json:"description"`
}

// CloseRequestBody represents closure with rating and optional feedback
type CloseRequestBody struct {
	Rating   *float64 `json:"rating" binding:"required"`
	Feedback *string  `json:"feedback"`
}

// SearchQuery represents role-scoped substring search parameters
type SearchQuery struct {
	Entity string `form:"entity" binding:"required"`
	Field  string `form:"field"`
	Q      string `form:"q"`
}

// RequestListQuery represents admin/customer request list filters
type RequestListQuery struct {
	Status string `form:"status"`
	Type   string `form:"type"`
}

package dto

import (
	"github.com/ignatzorin/household-backend/internal/models"
)

// RequestResponse wraps a lifecycle result with the action that produced it
type RequestResponse struct {
	Request *models.ServiceRequest `json:"request"`
	Action  string                 `json:"action"`
}

// NewRequestResponse creates a RequestResponse
func NewRequestResponse(req *models.ServiceRequest, action string) *RequestResponse {
	return &RequestResponse{Request: req, Action: action}
}

// MessageResponse is returned by operations without a body, e.g. delete or reject
type MessageResponse struct {
	Message string `json:"message"`
}

// DocumentLinkResponse is returned when the document store issues a download URL
type DocumentLinkResponse struct {
	URL string `json:"url"`
}

package models

import "github.com/google/uuid"

// StatusCounts - количество заявок по статусам.
type StatusCounts struct {
	Pending  int `db:"pending" json:"pending"`
	Accepted int `db:"accepted" json:"accepted"`
	Rejected int `db:"rejected" json:"rejected"`
	Closed   int `db:"closed" json:"closed"`
}

func (c StatusCounts) Total() int {
	return c.Pending + c.Accepted + c.Rejected + c.Closed
}

// AdminSummary - данные для сводки администратора.
type AdminSummary struct {
	CustomerCount     int          `json:"customer_count"`
	ProfessionalCount int          `json:"professional_count"`
	Requests          StatusCounts `json:"requests"`
}

// ProfessionalSummary - сводка специалиста.
type ProfessionalSummary struct {
	ProfessionalID uuid.UUID    `json:"professional_id"`
	Requests       StatusCounts `json:"requests"`
	TotalRequests  int          `json:"total_requests"`
	AvgRating      *float64     `json:"avg_rating"`
	RatingCount    int          `json:"rating_count"`
}

// CustomerSummary - сводка заказчика.
type CustomerSummary struct {
	CustomerID    uuid.UUID    `json:"customer_id"`
	Requests      StatusCounts `json:"requests"`
	TotalRequests int          `json:"total_requests"`
}

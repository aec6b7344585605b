package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/household-backend/internal/domain/valueobject"
)

// User описывает пользователя платформы: администратора, заказчика или специалиста.
type User struct {
	ID           uuid.UUID        `db:"id" json:"id"`
	Username     string           `db:"username" json:"username"`
	PasswordHash string           `db:"password_hash" json:"-"`
	Email        *string          `db:"email" json:"email,omitempty"`
	PhoneNumber  *string          `db:"phone_number" json:"phone_number,omitempty"`
	Address      *string          `db:"address" json:"address,omitempty"`
	Pincode      *string          `db:"pincode" json:"pincode,omitempty"`
	Role         valueobject.Role `db:"role" json:"role"`
	IsVerified   bool             `db:"is_verified" json:"is_verified"`
	IsBlocked    bool             `db:"is_blocked" json:"is_blocked"`
	ServiceID    *uuid.UUID       `db:"service_id" json:"service_id,omitempty"`
	Experience   *string          `db:"experience" json:"experience,omitempty"`
	DocumentPath *string          `db:"document_path" json:"-"`
	AvgRating    float64          `db:"avg_rating" json:"avg_rating"`
	RatingCount  int              `db:"rating_count" json:"rating_count"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// Rating возвращает накопленный рейтинг пользователя.
func (u *User) Rating() valueobject.RatingAggregate {
	return valueobject.RatingAggregate{Average: u.AvgRating, Count: u.RatingCount}
}

// IsActiveProfessional - специалист, допущенный к работе.
func (u *User) IsActiveProfessional() bool {
	return u.Role == valueobject.RoleProfessional && u.IsVerified && !u.IsBlocked && u.ServiceID != nil
}

// HasDocument сообщает, загружен ли документ специалиста.
func (u *User) HasDocument() bool {
	return u.DocumentPath != nil && *u.DocumentPath != ""
}

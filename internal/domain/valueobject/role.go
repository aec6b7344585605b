package valueobject

import "github.com/ignatzorin/household-backend/internal/pkg/apperror"

// Role - единственная роль пользователя. Пользователь не может быть
// одновременно заказчиком и специалистом.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleCustomer     Role = "customer"
	RoleProfessional Role = "professional"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleCustomer, RoleProfessional:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

func NewRole(value string) (Role, error) {
	r := Role(value)
	if !r.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректная роль пользователя")
	}
	return r, nil
}

package service

import (
	"github.com/google/uuid"

	"github.com/ignatzorin/household-backend/internal/domain/valueobject"
	"github.com/ignatzorin/household-backend/internal/pkg/apperror"
)

// Actor - аутентифицированный пользователь, от имени которого выполняется операция.
type Actor struct {
	ID   uuid.UUID
	Role valueobject.Role
}

// NewActor создаёт актора из данных токена.
func NewActor(id uuid.UUID, role valueobject.Role) Actor {
	return Actor{ID: id, Role: role}
}

func (a Actor) IsAdmin() bool        { return a.Role == valueobject.RoleAdmin }
func (a Actor) IsCustomer() bool     { return a.Role == valueobject.RoleCustomer }
func (a Actor) IsProfessional() bool { return a.Role == valueobject.RoleProfessional }

// require проверяет роль актора.
func (a Actor) require(role valueobject.Role) error {
	if a.ID == uuid.Nil {
		return apperror.ErrUnauthorized
	}
	if a.Role != role {
		return apperror.ErrForbidden
	}
	return nil
}

package scrim

import (
	"github.com/google/uuid"
	"github.com/thereayou/scrimhub/internal/models"
)

// Actor описывает инициатора операции: id, имя и роли из токена
type Actor struct {
	ID       uuid.UUID
	Username string
	Roles    []string
}

func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (a Actor) IsAdmin() bool {
	return a.HasRole(models.RoleAdmin)
}

// canManage: администратор или создатель скрима
func (a Actor) canManage(scrim *models.Scrim) bool {
	return a.IsAdmin() || scrim.CreatorID == a.ID
}

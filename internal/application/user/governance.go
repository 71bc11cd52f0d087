package user

import (
	authsvc "stablebricks-backend/internal/application/auth"
	"stablebricks-backend/internal/domain"
	"stablebricks-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// checkRoleChange applies the role governance rules inside tx: admins cannot
// change their own role, and the last ADMIN cannot be demoted.
func checkRoleChange(tx *gorm.DB, actor authsvc.Principal, target *domain.User, role string) error {
	if actor.UserID != uuid.Nil && actor.UserID == target.ID {
		return ErrCannotChangeOwnRole
	}
	if target.Role != constants.RoleAdmin || role == constants.RoleAdmin {
		return nil
	}
	var admins int64
	if err := tx.Model(&domain.User{}).Where("role = ?", constants.RoleAdmin).Count(&admins).Error; err != nil {
		return err
	}
	if admins <= 1 {
		return ErrLastAdmin
	}
	return nil
}

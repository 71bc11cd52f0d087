package auth

import (
	"stablebricks-backend/internal/domain"
	"stablebricks-backend/internal/pkg/constants"

	"github.com/google/uuid"
)

// Principal is the authenticated caller. Handlers build it from the session and pass it to services.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Name   string
	Role   string
}

func (p Principal) IsAdmin() bool {
	return p.Role == constants.RoleAdmin
}

// CanAccess reports whether the caller owns the resource or is an admin.
func (p Principal) CanAccess(ownerID uuid.UUID) bool {
	return p.IsAdmin() || p.UserID == ownerID
}

// SessionUser is the object stored in the session under "user" and returned by /me.
type SessionUser struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

func NewSessionUser(u *domain.User) SessionUser {
	return SessionUser{
		UserID: u.ID.String(),
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
	}
}

// Map returns the JSON-compatible form persisted in Redis.
func (s SessionUser) Map() map[string]interface{} {
	return map[string]interface{}{
		"user_id": s.UserID,
		"name":    s.Name,
		"email":   s.Email,
		"role":    s.Role,
	}
}

// PrincipalFromSession validates the session user and converts it to a Principal.
func PrincipalFromSession(sessionUser interface{}) (*Principal, error) {
	if sessionUser == nil {
		return nil, ErrNotAuthenticated
	}
	m, ok := sessionUser.(map[string]interface{})
	if !ok {
		return nil, ErrNotAuthenticated
	}
	id, err := uuid.Parse(str(m["user_id"]))
	if err != nil {
		return nil, ErrNotAuthenticated
	}
	return &Principal{
		UserID: id,
		Email:  str(m["email"]),
		Name:   str(m["name"]),
		Role:   str(m["role"]),
	}, nil
}

func str(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

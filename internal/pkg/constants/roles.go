package constants

const (
	RoleUser      = "USER"
	RoleAdmin     = "ADMIN"
	RoleDeveloper = "DEVELOPER"
)

// ValidRoles is the set of allowed values for User.Role.
var ValidRoles = []string{RoleUser, RoleDeveloper, RoleAdmin}

// IsValidRole returns true if role is one of the allowed values.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

package models

// Role constants for authenticated callers. The role is carried in the
// JWT "role" claim issued by the external identity service.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAnalyst   = "analyst"
	RoleAdmin     = "admin"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleUser, RoleModerator, RoleAnalyst, RoleAdmin}

// IsValidRole checks if the given role is valid.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// internal/models/roles.go

package models

// UserRole is the role a user acts under in the system
type UserRole string

const (
	RoleDonor    UserRole = "donor"
	RoleReceiver UserRole = "receiver"
	RoleAdmin    UserRole = "admin"
)

// IsValid checks whether the role is one of the known roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleDonor, RoleReceiver, RoleAdmin:
		return true
	}
	return false
}

// CanDonate reports whether the role may create donations
func (r UserRole) CanDonate() bool {
	return r == RoleDonor || r == RoleAdmin
}

// CanRequestPickup reports whether the role may request pickups
func (r UserRole) CanRequestPickup() bool {
	return r == RoleReceiver || r == RoleAdmin
}

// CanModerate reports whether the role may access admin endpoints
func (r UserRole) CanModerate() bool {
	return r == RoleAdmin
}

// String returns the string representation of the role
func (r UserRole) String() string {
	return string(r)
}

// AllRoles returns the list of assignable roles
func AllRoles() []UserRole {
	return []UserRole{RoleDonor, RoleReceiver, RoleAdmin}
}

// RoleFromString converts a string into a UserRole
func RoleFromString(role string) (UserRole, bool) {
	r := UserRole(role)
	if r.IsValid() {
		return r, true
	}
	return "", false
}

package auth

const roleAdmin = "admin"

// IsAdmin reports whether the role carries admin privileges.
func IsAdmin(role string) bool {
	return role == roleAdmin
}

// CanModify is the single ownership rule for mutating a resource: the owner
// may, an admin may, nobody else. Every update/delete handler goes through
// this function so the rule cannot drift between endpoints.
func CanModify(callerID uint, callerRole string, ownerID uint) bool {
	if IsAdmin(callerRole) {
		return true
	}
	return callerID != 0 && callerID == ownerID
}

package auth

// Permission represents a named capability in the system.
type Permission string

// Permission constants.
const (
	PermUserRead      Permission = "user:read"
	PermUserDelete    Permission = "user:delete"
	PermCaseRead      Permission = "case:read"
	PermCaseWrite     Permission = "case:write"
	PermEvidenceRead  Permission = "evidence:read"
	PermEvidenceWrite Permission = "evidence:write"
	PermAuditRead     Permission = "audit:read"
	PermSystemMetrics Permission = "system:metrics"
)

// fieldWork is granted to every authenticated role.
var fieldWork = []Permission{
	PermUserRead,
	PermCaseRead,
	PermCaseWrite,
	PermEvidenceRead,
	PermEvidenceWrite,
}

// rolePermissions maps each role to its granted permissions.
// This is the single source of truth for the authorisation model.
var rolePermissions = map[Role][]Permission{
	RoleAdmin: append([]Permission{
		PermUserDelete,
		PermAuditRead,
		PermSystemMetrics,
	}, fieldWork...),
	RoleExaminer:  fieldWork,
	RoleAssistant: fieldWork,
}

// HasPermission returns true if the given role has the specified permission.
func HasPermission(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

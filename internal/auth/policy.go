package auth

import "fmt"

// Rule decides whether an identity may act on a resource owned by ownerID.
// ownerID is empty for operations without a single owning account.
type Rule interface {
	Authorize(id Identity, ownerID string) error
}

// RuleFunc adapts a function to the Rule interface.
type RuleFunc func(id Identity, ownerID string) error

// Authorize calls f.
func (f RuleFunc) Authorize(id Identity, ownerID string) error {
	return f(id, ownerID)
}

// SelfOnly permits an operation only on the caller's own account.
type SelfOnly struct{}

// Authorize implements Rule.
func (SelfOnly) Authorize(id Identity, ownerID string) error {
	if id.UserID == "" || id.UserID != ownerID {
		return fmt.Errorf("%w: only the account owner may do this", ErrForbidden)
	}
	return nil
}

type roleGate []Role

// RoleGated permits an operation only for the listed roles.
func RoleGated(roles ...Role) Rule {
	return roleGate(roles)
}

// Authorize implements Rule. Roles are compared as parsed values, so a
// lower-case role string in the identity still matches.
func (g roleGate) Authorize(id Identity, _ string) error {
	role, err := ParseRole(string(id.Role))
	if err != nil || id.Role == "" {
		return fmt.Errorf("%w: role %q", ErrForbidden, id.Role)
	}
	for _, r := range g {
		if r == role {
			return nil
		}
	}
	return fmt.Errorf("%w: role %s not allowed", ErrForbidden, role)
}

type permitted Permission

// Permitted gates an operation on the static role-permission table.
func Permitted(perm Permission) Rule {
	return permitted(perm)
}

// Authorize implements Rule.
func (p permitted) Authorize(id Identity, _ string) error {
	role, err := ParseRole(string(id.Role))
	if err != nil || id.Role == "" || !HasPermission(role, Permission(p)) {
		return fmt.Errorf("%w: missing %s", ErrForbidden, Permission(p))
	}
	return nil
}

// AllOf permits an operation only if every rule does.
func AllOf(rules ...Rule) Rule {
	return RuleFunc(func(id Identity, ownerID string) error {
		for _, r := range rules {
			if err := r.Authorize(id, ownerID); err != nil {
				return err
			}
		}
		return nil
	})
}

package auth

import (
	"errors"
	"testing"
)

func TestHasPermission(t *testing.T) {
	adminOnly := []Permission{PermUserDelete, PermAuditRead, PermSystemMetrics}

	for _, perm := range append(adminOnly, fieldWork...) {
		if !HasPermission(RoleAdmin, perm) {
			t.Errorf("Admin should have %s", perm)
		}
	}

	for _, role := range []Role{RoleExaminer, RoleAssistant} {
		for _, perm := range fieldWork {
			if !HasPermission(role, perm) {
				t.Errorf("%s should have %s", role, perm)
			}
		}
		for _, perm := range adminOnly {
			if HasPermission(role, perm) {
				t.Errorf("%s should not have %s", role, perm)
			}
		}
	}

	if HasPermission("intruder", PermCaseRead) {
		t.Error("unknown role should have no permissions")
	}
}

func TestSelfOnly(t *testing.T) {
	rule := SelfOnly{}
	ana := Identity{UserID: "usr-a", Role: RoleExaminer}

	if err := rule.Authorize(ana, "usr-a"); err != nil {
		t.Errorf("self access denied: %v", err)
	}
	if err := rule.Authorize(ana, "usr-b"); !errors.Is(err, ErrForbidden) {
		t.Errorf("other access error = %v, want ErrForbidden", err)
	}
	// Admin gets no bypass on self-only operations.
	admin := Identity{UserID: "usr-admin", Role: RoleAdmin}
	if err := rule.Authorize(admin, "usr-a"); !errors.Is(err, ErrForbidden) {
		t.Errorf("admin on other account error = %v, want ErrForbidden", err)
	}
	if err := rule.Authorize(Identity{}, ""); !errors.Is(err, ErrForbidden) {
		t.Errorf("empty identity error = %v, want ErrForbidden", err)
	}
}

func TestRoleGated(t *testing.T) {
	rule := RoleGated(RoleAdmin)

	tests := []struct {
		name    string
		role    Role
		allowed bool
	}{
		{"admin", RoleAdmin, true},
		{"admin lower case", "admin", true},
		{"admin upper case", "ADMIN", true},
		{"examiner", RoleExaminer, false},
		{"assistant", RoleAssistant, false},
		{"empty", "", false},
		{"unknown", "root", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rule.Authorize(Identity{UserID: "usr-1", Role: tt.role}, "")
			if tt.allowed && err != nil {
				t.Errorf("Authorize() error = %v, want nil", err)
			}
			if !tt.allowed && !errors.Is(err, ErrForbidden) {
				t.Errorf("Authorize() error = %v, want ErrForbidden", err)
			}
		})
	}
}

func TestRoleGated_MultipleRoles(t *testing.T) {
	rule := RoleGated(RoleAdmin, RoleExaminer)

	if err := rule.Authorize(Identity{Role: RoleExaminer}, ""); err != nil {
		t.Errorf("examiner denied: %v", err)
	}
	if err := rule.Authorize(Identity{Role: RoleAssistant}, ""); !errors.Is(err, ErrForbidden) {
		t.Errorf("assistant error = %v, want ErrForbidden", err)
	}
}

func TestPermitted(t *testing.T) {
	rule := Permitted(PermUserDelete)

	if err := rule.Authorize(Identity{Role: RoleAdmin}, ""); err != nil {
		t.Errorf("admin denied: %v", err)
	}
	if err := rule.Authorize(Identity{Role: RoleExaminer}, ""); !errors.Is(err, ErrForbidden) {
		t.Errorf("examiner error = %v, want ErrForbidden", err)
	}
	if err := Permitted(PermCaseWrite).Authorize(Identity{Role: RoleAssistant}, ""); err != nil {
		t.Errorf("assistant denied case:write: %v", err)
	}
}

func TestAllOf(t *testing.T) {
	rule := AllOf(Permitted(PermUserRead), SelfOnly{})

	if err := rule.Authorize(Identity{UserID: "usr-a", Role: RoleAssistant}, "usr-a"); err != nil {
		t.Errorf("AllOf() self error = %v", err)
	}
	if err := rule.Authorize(Identity{UserID: "usr-a", Role: RoleAssistant}, "usr-b"); !errors.Is(err, ErrForbidden) {
		t.Errorf("AllOf() other error = %v, want ErrForbidden", err)
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"Admin", RoleAdmin, false},
		{"admin", RoleAdmin, false},
		{" examiner ", RoleExaminer, false},
		{"ASSISTANT", RoleAssistant, false},
		{"", RoleExaminer, false},
		{"Perito", "", true},
		{"owner", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRole) {
					t.Errorf("ParseRole(%q) error = %v, want ErrInvalidRole", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRole(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseRole(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

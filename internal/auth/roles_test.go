package auth

import "testing"

func TestRoleAtLeast(t *testing.T) {
	cases := []struct {
		role     Role
		required Role
		want     bool
	}{
		{RoleAdmin, RoleManager, true},
		{RoleManager, RoleManager, true},
		{RoleUser, RoleManager, false},
		{RoleManager, RoleAdmin, false},
		{Role("owner"), RoleUser, false},
		{Role(""), Role(""), false},
	}
	for _, tc := range cases {
		if got := RoleAtLeast(tc.role, tc.required); got != tc.want {
			t.Fatalf("RoleAtLeast(%q, %q) = %v, want %v", tc.role, tc.required, got, tc.want)
		}
	}
}

func TestNormalizeRole(t *testing.T) {
	if role, ok := NormalizeRole(" Manager "); !ok || role != RoleManager {
		t.Fatalf("expected manager, got %q %v", role, ok)
	}
	if _, ok := NormalizeRole("root"); ok {
		t.Fatalf("unknown role accepted")
	}
}

package auth

import "testing"

func TestHasPermission(t *testing.T) {
	perms := []string{"users.add_user", "users.change_user"}

	if !HasPermission(perms, "users.add_user") {
		t.Fatal("exact match must grant")
	}
	if HasPermission(perms, "users.delete_user") {
		t.Fatal("missing permission must not grant")
	}
	if HasPermission(nil, "users.add_user") {
		t.Fatal("empty set must not grant")
	}
}

func TestHasPermissionWildcard(t *testing.T) {
	perms := []string{WildcardPermission}

	for _, required := range []string{"users.add_user", "groups.delete_group", "anything.at_all"} {
		if !HasPermission(perms, required) {
			t.Fatalf("wildcard must grant %s", required)
		}
	}
}

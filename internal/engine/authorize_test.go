package engine

import (
	"testing"

	"fastadmin/internal/admin"
)

func TestAuthorizeNilPrincipal(t *testing.T) {
	d := Authorize(nil, "users", "read")
	if d.Allowed {
		t.Fatal("nil principal must be denied")
	}

	appErr := Require(nil, "users", "read")
	if appErr == nil || appErr.Code != "UNAUTHENTICATED" || appErr.Status != 401 {
		t.Fatalf("expected 401 UNAUTHENTICATED, got %+v", appErr)
	}
}

func TestAuthorizeInactiveDeniedEvenIfSuperuser(t *testing.T) {
	p := &admin.Principal{ID: 1, Active: false, Staff: true, Superuser: true}
	if d := Authorize(p, "users", "delete"); d.Allowed {
		t.Fatal("inactive account must be denied before the superuser check")
	}
	if appErr := Require(p, "users", "delete"); appErr == nil || appErr.Status != 403 {
		t.Fatalf("expected 403, got %+v", appErr)
	}
}

func TestAuthorizeSuperuserAllowed(t *testing.T) {
	p := &admin.Principal{ID: 1, Active: true, Superuser: true}
	if d := Authorize(p, "permissions", "delete"); !d.Allowed {
		t.Fatalf("superuser must be allowed: %s", d.Reason)
	}
}

func TestAuthorizeNonStaffDenied(t *testing.T) {
	p := &admin.Principal{ID: 2, Active: true, Staff: false}
	d := Authorize(p, "groups", "read")
	if d.Allowed {
		t.Fatal("non-staff must be denied")
	}
	if appErr := Require(p, "groups", "read"); appErr == nil || appErr.Code != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN, got %+v", appErr)
	}
}

func TestAuthorizeStaffAllowedForAllActions(t *testing.T) {
	p := &admin.Principal{ID: 3, Active: true, Staff: true}
	for _, action := range []string{"read", "create", "update", "delete"} {
		if d := Authorize(p, "groups", action); !d.Allowed {
			t.Fatalf("staff must be allowed to %s: %s", action, d.Reason)
		}
	}
}

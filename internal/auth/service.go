package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fastadmin/internal/admin"
	"fastadmin/internal/auth/credentials"
	"fastadmin/internal/store"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// WildcardPermission grants every admin permission when present in a user's
// effective permission set.
const WildcardPermission = "admin.*"

// Service implements credential checks and permission queries.
type Service struct {
	store *store.Store
}

func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

var dummyHashOnce sync.Once
var dummyHash string

// Authenticate verifies an identifier (username or email) and password.
// Every failure mode returns ErrInvalidCredentials so responses never reveal
// whether the account exists or is disabled. The unknown-account path still
// runs a hash verification to keep its timing close to the known-account one.
func (s *Service) Authenticate(ctx context.Context, identifier, password string) (*admin.Principal, error) {
	row, err := store.QueryRow(ctx, s.store.Pool,
		`SELECT id, username, email, password_hash, is_active, is_staff, is_superuser
		 FROM users WHERE username = $1 OR email = $1`,
		identifier,
	)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			dummyHashOnce.Do(func() { dummyHash, _ = credentials.Hash("!") })
			_, _ = credentials.Verify(password, dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}

	hash, _ := row["password_hash"].(string)
	ok, err := credentials.Verify(password, hash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	active, _ := row["is_active"].(bool)
	if !active {
		return nil, ErrInvalidCredentials
	}

	staff, _ := row["is_staff"].(bool)
	superuser, _ := row["is_superuser"].(bool)
	return &admin.Principal{
		ID:        rowInt64(row["id"]),
		Username:  rowString(row["username"]),
		Email:     rowString(row["email"]),
		Active:    active,
		Staff:     staff,
		Superuser: superuser,
	}, nil
}

// EffectivePermissions returns the union of a user's direct permissions and
// those inherited through group membership, as "content_type.codename"
// strings, deduplicated and sorted.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	rows, err := store.QueryRows(ctx, s.store.Pool,
		`SELECT p.content_type || '.' || p.codename AS perm
		 FROM permissions p
		 JOIN user_permission up ON up.permission_id = p.id
		 WHERE up.user_id = $1
		 UNION
		 SELECT p.content_type || '.' || p.codename AS perm
		 FROM permissions p
		 JOIN group_permission gp ON gp.permission_id = p.id
		 JOIN user_group ug ON ug.group_id = gp.group_id
		 WHERE ug.user_id = $1
		 ORDER BY perm`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("effective permissions: %w", err)
	}

	perms := make([]string, 0, len(rows))
	for _, row := range rows {
		perms = append(perms, rowString(row["perm"]))
	}
	return perms, nil
}

// HasPermission reports whether a permission set grants the required
// permission, honoring the wildcard.
func HasPermission(perms []string, required string) bool {
	for _, p := range perms {
		if p == required || p == WildcardPermission {
			return true
		}
	}
	return false
}

package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"fastadmin/internal/admin"
	"fastadmin/internal/store"
)

// CookieName is the session cookie set on browser login.
const CookieName = "admin_session_id"

// Session is a server-side browser session row.
type Session struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
}

// SessionStore manages opaque browser sessions backed by the sessions table.
type SessionStore struct {
	store *store.Store
	ttl   time.Duration
}

func NewSessionStore(s *store.Store, ttl time.Duration) *SessionStore {
	return &SessionStore{store: s, ttl: ttl}
}

func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}

// Create issues a fresh session for a user. The session insert and the
// user's last_login stamp commit together.
func (s *SessionStore) Create(ctx context.Context, userID int64, ip string) (*Session, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	expires := time.Now().UTC().Add(s.ttl)

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := store.Exec(ctx, tx,
		`INSERT INTO sessions (token, user_id, expires_at, ip_address) VALUES ($1, $2, $3, NULLIF($4, ''))`,
		token, userID, expires, ip,
	); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	if _, err := store.Exec(ctx, tx,
		`UPDATE users SET last_login = NOW() WHERE id = $1`, userID,
	); err != nil {
		return nil, fmt.Errorf("stamp last_login: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return &Session{Token: token, UserID: userID, ExpiresAt: expires}, nil
}

// Resolve looks up a session token, refreshes its activity stamp, and
// returns the owning principal. One statement covers the happy path; an
// expired session is deleted and resolves to nil without error.
func (s *SessionStore) Resolve(ctx context.Context, token string) (*admin.Principal, error) {
	row, err := store.QueryRow(ctx, s.store.Pool,
		`UPDATE sessions s SET last_activity = NOW()
		 FROM users u
		 WHERE s.token = $1 AND u.id = s.user_id
		 RETURNING s.expires_at, u.id, u.username, u.email, u.is_active, u.is_staff, u.is_superuser`,
		token,
	)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve session: %w", err)
	}

	expiresAt, _ := row["expires_at"].(time.Time)
	if time.Now().UTC().After(expiresAt.UTC()) {
		if _, err := store.Exec(ctx, s.store.Pool,
			`DELETE FROM sessions WHERE token = $1`, token); err != nil {
			logrus.WithError(err).Warn("deleting expired session failed")
		}
		return nil, nil
	}

	active, _ := row["is_active"].(bool)
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

// Destroy removes a session. Destroying an unknown token is a no-op.
func (s *SessionStore) Destroy(ctx context.Context, token string) error {
	_, err := store.Exec(ctx, s.store.Pool, `DELETE FROM sessions WHERE token = $1`, token)
	return err
}

// Sweep deletes all expired sessions and returns how many were removed.
func (s *SessionStore) Sweep(ctx context.Context) (int64, error) {
	return store.Exec(ctx, s.store.Pool, `DELETE FROM sessions WHERE expires_at < NOW()`)
}

// RunSweeper deletes expired sessions on an interval until the context ends.
func (s *SessionStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.Sweep(ctx)
			if err != nil {
				logrus.WithError(err).Error("session sweep failed")
				continue
			}
			if removed > 0 {
				logrus.WithField("removed", removed).Info("swept expired sessions")
			}
		}
	}
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func rowInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	}
	return 0
}

func rowString(v any) string {
	s, _ := v.(string)
	return s
}

package store

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"fastadmin/internal/auth/credentials"
)

const authTablesSQL = `
CREATE TABLE IF NOT EXISTS users (
    id            BIGSERIAL PRIMARY KEY,
    username      VARCHAR(150) NOT NULL UNIQUE,
    email         VARCHAR(254) NOT NULL UNIQUE,
    password_hash VARCHAR(128) NOT NULL,
    first_name    VARCHAR(30),
    last_name     VARCHAR(150),
    is_active     BOOLEAN NOT NULL DEFAULT true,
    is_staff      BOOLEAN NOT NULL DEFAULT false,
    is_superuser  BOOLEAN NOT NULL DEFAULT false,
    date_joined   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    last_login    TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS groups (
    id          BIGSERIAL PRIMARY KEY,
    name        VARCHAR(150) NOT NULL UNIQUE,
    description TEXT,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS permissions (
    id           BIGSERIAL PRIMARY KEY,
    name         VARCHAR(100) NOT NULL,
    codename     VARCHAR(100) NOT NULL,
    content_type VARCHAR(100) NOT NULL,
    description  TEXT,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (codename, content_type)
);

CREATE TABLE IF NOT EXISTS user_group (
    id          BIGSERIAL PRIMARY KEY,
    user_id     BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    group_id    BIGINT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
    assigned_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (user_id, group_id)
);

CREATE TABLE IF NOT EXISTS group_permission (
    id            BIGSERIAL PRIMARY KEY,
    group_id      BIGINT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
    permission_id BIGINT NOT NULL REFERENCES permissions(id) ON DELETE CASCADE,
    assigned_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (group_id, permission_id)
);

CREATE TABLE IF NOT EXISTS user_permission (
    id            BIGSERIAL PRIMARY KEY,
    user_id       BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    permission_id BIGINT NOT NULL REFERENCES permissions(id) ON DELETE CASCADE,
    assigned_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (user_id, permission_id)
);

CREATE TABLE IF NOT EXISTS sessions (
    id            BIGSERIAL PRIMARY KEY,
    token         VARCHAR(64) NOT NULL UNIQUE,
    user_id       BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    expires_at    TIMESTAMPTZ NOT NULL,
    last_activity TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    ip_address    VARCHAR(45)
);
CREATE INDEX IF NOT EXISTS idx_sessions_token ON sessions(token);
CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
`

// Bootstrap creates the built-in auth tables and seeds the initial superuser.
// Idempotent; safe to run on every startup.
func (s *Store) Bootstrap(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, authTablesSQL); err != nil {
		return fmt.Errorf("bootstrap auth tables: %w", err)
	}
	if err := s.seedSuperuser(ctx); err != nil {
		return fmt.Errorf("seed superuser: %w", err)
	}
	return nil
}

func (s *Store) seedSuperuser(ctx context.Context) error {
	var count int
	if err := s.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := credentials.Hash("changeme")
	if err != nil {
		return err
	}

	_, err = s.Pool.Exec(ctx,
		`INSERT INTO users (username, email, password_hash, is_active, is_staff, is_superuser)
		 VALUES ($1, $2, $3, true, true, true)`,
		"admin", "admin@localhost", hash,
	)
	if err != nil {
		return err
	}

	logrus.Warn("default superuser created (admin / changeme), change the password immediately")
	return nil
}

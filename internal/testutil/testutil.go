// Package testutil holds helpers shared by integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/autodoc/autodoc/internal/model"
)

// RequireEnv returns the variable or skips the test when it is unset.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// dbLockName identifies the session lock serializing packages that rebuild
// the schema. go test runs packages in parallel against one database.
const dbLockName = "autodoc-integration-tests"

// AcquireDBLock holds a session advisory lock on a dedicated connection
// until the returned func is called.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock(hashtext($1))", dbLockName); err != nil {
		conn.Release()
		return nil, fmt.Errorf("lock %s: %w", dbLockName, err)
	}

	return func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock(hashtext($1))", dbLockName); err != nil {
			return fmt.Errorf("unlock %s: %w", dbLockName, err)
		}
		return nil
	}, nil
}

// DropSchema drops the application tables and the migration history so the
// next Migrate starts from scratch.
func DropSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `DROP TABLE IF EXISTS documents, users, schema_migrations CASCADE`); err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	return nil
}

// FlushRedis clears the selected Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// UniqueID returns prefix followed by a fresh lowercase ULID.
func UniqueID(prefix string) string {
	return prefix + "-" + strings.ToLower(ulid.Make().String())
}

// UserOption customizes NewTestUser.
type UserOption func(*model.User)

// WithPlan sets the plan and, for PRO, a subscription ending in a month.
func WithPlan(plan model.Plan) UserOption {
	return func(u *model.User) {
		u.Plan = plan
		if plan == model.PlanPro {
			expires := u.CreatedAt.AddDate(0, 1, 0)
			u.SubscriptionExpires = &expires
		}
	}
}

// WithRole sets the role.
func WithRole(role model.Role) UserOption {
	return func(u *model.User) { u.Role = role }
}

// NewTestUser returns a free user with a unique email. The password hash is
// well-formed but matches no password.
func NewTestUser(t testing.TB, opts ...UserOption) *model.User {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := ulid.Make().String()
	u := &model.User{
		ID:           id,
		FullName:     "Usuária Teste",
		Email:        "user-" + strings.ToLower(id) + "@example.com",
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		Role:         model.RoleUser,
		Plan:         model.PlanFree,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// NewTestDocument returns a generated residency declaration owned by userID.
func NewTestDocument(t testing.TB, userID string) *model.Document {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := ulid.Make().String()
	return &model.Document{
		ID:    id,
		Type:  model.TypeDeclaracaoResidencia,
		Title: "Declaração de Residência - Maria",
		FormData: map[string]string{
			"nome_completo":     "Maria",
			"cpf":               "123.456.789-01",
			"endereco_completo": "Rua A, 1",
			"tempo_residencia":  "2 anos",
		},
		HTMLContent:  "<html><body>Declaração</body></html>",
		ArtifactPath: model.ArtifactPathFor(id),
		Status:       model.StatusGenerated,
		CreatorName:  "Maria",
		CreatedBy:    userID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

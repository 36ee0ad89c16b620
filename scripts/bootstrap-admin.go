package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/autodoc/autodoc/internal/auth"
	"github.com/autodoc/autodoc/internal/cache"
	"github.com/autodoc/autodoc/internal/model"
	"github.com/autodoc/autodoc/internal/repository"
	"github.com/autodoc/autodoc/internal/service"
)

type output struct {
	UserID  string     `json:"user_id"`
	Email   string     `json:"email"`
	Role    model.Role `json:"role"`
	Created bool       `json:"created"`
}

type bootstrapOptions struct {
	databaseURL string
	redisURL    string
	email       string
	fullName    string
	password    string
	format      string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &bootstrapOptions{}
	cmd := &cobra.Command{
		Use:   "bootstrap-admin",
		Short: "Create or promote the administrator account",
		Long: `Promotes the account with --email to admin, creating it with --password when
it does not exist. Safe to run repeatedly. When --redis-url is set the cached
copy of a promoted user is evicted so the new role applies immediately.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBootstrap(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	f.StringVar(&opts.redisURL, "redis-url", os.Getenv("REDIS_URL"), "Redis connection string")
	f.StringVar(&opts.email, "email", "admin@autodoc.local", "admin email")
	f.StringVar(&opts.fullName, "name", "Administrador", "admin full name")
	f.StringVar(&opts.password, "password", os.Getenv("ADMIN_PASSWORD"), "password for a new account, ignored when the account exists")
	f.StringVar(&opts.format, "format", "plain", "output format: plain or json")
	return cmd
}

func runBootstrap(parent context.Context, opts *bootstrapOptions) error {
	if opts.databaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	format := strings.ToLower(opts.format)
	if format != "plain" && format != "json" {
		return fmt.Errorf("invalid format %q: use plain or json", opts.format)
	}
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, opts.databaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer repo.Close()

	user, created, err := ensureAdmin(ctx, repo, strings.ToLower(strings.TrimSpace(opts.email)), opts.fullName, opts.password)
	if err != nil {
		return err
	}

	if opts.redisURL != "" && !created {
		if err := evictCachedUser(ctx, opts.redisURL, user.ID); err != nil {
			fmt.Fprintln(os.Stderr, "warning: cached user not evicted:", err)
		}
	}

	out := output{UserID: user.ID, Email: user.Email, Role: user.Role, Created: created}
	if format == "plain" {
		fmt.Println(out.UserID)
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// ensureAdmin promotes the account with email, creating it first when needed.
func ensureAdmin(ctx context.Context, repo *repository.Repository, email, fullName, password string) (*model.User, bool, error) {
	existing, err := repo.GetUserByEmail(ctx, email)
	if err == nil {
		if existing.Role == model.RoleAdmin {
			return existing, false, nil
		}
		user, err := repo.UpdateUserRole(ctx, existing.ID, model.RoleAdmin)
		if err != nil {
			return nil, false, fmt.Errorf("promote user: %w", err)
		}
		return user, false, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, false, fmt.Errorf("get user: %w", err)
	}

	if len([]rune(password)) < service.MinPasswordLength {
		return nil, false, fmt.Errorf("password of at least %d characters is required for a new account", service.MinPasswordLength)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           ulid.Make().String(),
		FullName:     strings.TrimSpace(fullName),
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		Plan:         model.PlanFree,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		return nil, false, fmt.Errorf("create user: %w", err)
	}
	return user, true, nil
}

func evictCachedUser(ctx context.Context, redisURL, userID string) error {
	c, err := cache.New(ctx, redisURL)
	if err != nil {
		return err
	}
	defer c.Close()
	return c.DeleteUser(ctx, userID)
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/autodoc/autodoc/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
)

const userColumns = `id, full_name, email, password_hash, role, plan, subscription_expires, created_at, updated_at`

// UserSummary is a user with the number of documents they created.
type UserSummary struct {
	User          *model.User
	DocumentCount int
}

// CreateUser inserts a new user into the database.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, full_name, email, password_hash, role, plan, subscription_expires, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.FullName,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Plan,
		user.SubscriptionExpires,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email address, ignoring case.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// UpdateUserProfile changes the display name of a user.
func (r *Repository) UpdateUserProfile(ctx context.Context, id, fullName string) (*model.User, error) {
	query := `
		UPDATE users SET full_name = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, id, fullName))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user profile: %w", err)
	}
	return user, nil
}

// UpdateUserPlan sets the plan and subscription expiry of a user.
func (r *Repository) UpdateUserPlan(ctx context.Context, id string, plan model.Plan, expires *time.Time) (*model.User, error) {
	query := `
		UPDATE users SET plan = $2, subscription_expires = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, id, plan, expires))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user plan: %w", err)
	}
	return user, nil
}

// UpdateUserRole sets the role of a user. Used by the admin bootstrap script.
func (r *Repository) UpdateUserRole(ctx context.Context, id string, role model.Role) (*model.User, error) {
	query := `
		UPDATE users SET role = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, id, role))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user role: %w", err)
	}
	return user, nil
}

// UpdateUserPassword replaces the password hash of a user.
func (r *Repository) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update user password: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListUsersWithDocumentCounts returns every user, newest first, with their document totals.
func (r *Repository) ListUsersWithDocumentCounts(ctx context.Context) ([]UserSummary, error) {
	query := `
		SELECT u.id, u.full_name, u.email, u.password_hash, u.role, u.plan, u.subscription_expires,
		       u.created_at, u.updated_at, COUNT(d.id)
		FROM users u
		LEFT JOIN documents d ON d.created_by = u.id
		GROUP BY u.id
		ORDER BY u.created_at DESC, u.id DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var summaries []UserSummary
	for rows.Next() {
		var u model.User
		var count int
		if err := rows.Scan(
			&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role, &u.Plan,
			&u.SubscriptionExpires, &u.CreatedAt, &u.UpdatedAt, &count,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		summaries = append(summaries, UserSummary{User: &u, DocumentCount: count})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return summaries, nil
}

// CountUsersByPlan counts users by effective plan at now.
// A PRO subscription whose expiry has passed is counted as free.
func (r *Repository) CountUsersByPlan(ctx context.Context, now time.Time) (map[model.Plan]int, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE plan = 'pro' AND (subscription_expires IS NULL OR subscription_expires > $1)),
			COUNT(*)
		FROM users
	`

	var pro, total int
	if err := r.pool.QueryRow(ctx, query, now).Scan(&pro, &total); err != nil {
		return nil, fmt.Errorf("failed to count users by plan: %w", err)
	}

	return map[model.Plan]int{
		model.PlanPro:  pro,
		model.PlanFree: total - pro,
	}, nil
}

// scanUser scans a single row into a User model.
func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Plan,
		&user.SubscriptionExpires,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return &user, err
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-records-api/internal/models"
)

// UserRepository handles persistence for staff accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new repository instance.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns a user by id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT id, name, email, mobile, password_hash, refresh_token, created_at, updated_at FROM users WHERE id = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByMobile returns a user by mobile number.
func (r *UserRepository) FindByMobile(ctx context.Context, mobile string) (*models.User, error) {
	const query = `SELECT id, name, email, mobile, password_hash, refresh_token, created_at, updated_at FROM users WHERE mobile = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, mobile); err != nil {
		return nil, err
	}
	return &user, nil
}

// ExistsByEmailOrMobile checks whether an account already claims either
// identifier.
func (r *UserRepository) ExistsByEmailOrMobile(ctx context.Context, email, mobile string) (bool, error) {
	const query = `SELECT 1 FROM users WHERE email = $1 OR mobile = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, email, mobile); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check user identifiers: %w", err)
	}
	return true, nil
}

// Create persists a new user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO users (id, name, email, mobile, password_hash, refresh_token, created_at, updated_at)
VALUES (:id, :name, :email, :mobile, :password_hash, :refresh_token, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdateRefreshToken stores the single active refresh token for the user.
// Passing nil clears it (logout).
func (r *UserRepository) UpdateRefreshToken(ctx context.Context, id string, token *string) error {
	const query = `UPDATE users SET refresh_token = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, token, time.Now().UTC()); err != nil {
		return fmt.Errorf("update refresh token: %w", err)
	}
	return nil
}

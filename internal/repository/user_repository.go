package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/turfbook/turf-booking/internal/model"
)

// UserRepo reads account identities from the 'users' table.  Accounts
// and credentials are created by the authentication service; this
// service only needs to show who a user is.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var (
		u    model.User
		name sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,role,is_active,created_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &name, &u.Email, &u.Role, &u.IsActive, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	u.Name = name.String
	return u, err
}

// DisplayName returns the name shown to admins for a reserver.
func (r *UserRepo) DisplayName(ctx context.Context, id uint64) (string, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return u.DisplayName(), nil
}

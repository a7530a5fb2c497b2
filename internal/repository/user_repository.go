package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/book-lending/internal/model"
)

// UserRepo persists wallet identities.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a UserRepo backed by db.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) get(ctx context.Context, q string, arg any) (*model.User, error) {
	var u model.User
	if err := r.db.QueryRowContext(ctx, q, arg).Scan(&u.ID, &u.WalletAddress, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByWallet looks a user up by lower-cased wallet address.
func (r *UserRepo) GetByWallet(ctx context.Context, wallet string) (*model.User, error) {
	return r.get(ctx, "SELECT id, wallet_address, created_at FROM users WHERE wallet_address = ?", model.NormalizeAddress(wallet))
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.get(ctx, "SELECT id, wallet_address, created_at FROM users WHERE id = ?", id)
}

// Create inserts u.  A wallet that is already registered yields ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	_, err := r.db.ExecContext(ctx, "INSERT INTO users (id, wallet_address, created_at) VALUES (?, ?, ?)",
		u.ID, u.WalletAddress, u.CreatedAt)
	return translate(err)
}

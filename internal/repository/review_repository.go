package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/book-lending/internal/model"
)

const reviewColumns = "id, book_id, user_address, review_text, rating, review_hash, timestamp"

// ReviewRepo reads and writes the reviews table.
type ReviewRepo struct {
	db *sql.DB
}

// NewReviewRepo returns a ReviewRepo backed by db.
func NewReviewRepo(db *sql.DB) *ReviewRepo {
	return &ReviewRepo{db: db}
}

func scanReview(s scanner, rv *model.Review) error {
	return s.Scan(&rv.ID, &rv.BookID, &rv.UserAddress, &rv.ReviewText, &rv.Rating, &rv.ReviewHash, &rv.Timestamp)
}

// List returns the reviews matching f, newest first.
func (r *ReviewRepo) List(ctx context.Context, f ReviewFilter) ([]model.Review, error) {
	where, args := f.filter().Where()
	rows, err := r.db.QueryContext(ctx, "SELECT "+reviewColumns+" FROM reviews"+where+" ORDER BY timestamp DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Review{}
	for rows.Next() {
		var rv model.Review
		if err := scanReview(rows, &rv); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByBookAndUser returns the single review a user left on a book, or
// ErrNotFound.
func (r *ReviewRepo) GetByBookAndUser(ctx context.Context, bookID uint64, userAddress string) (*model.Review, error) {
	var rv model.Review
	row := r.db.QueryRowContext(ctx, "SELECT "+reviewColumns+" FROM reviews WHERE book_id = ? AND user_address = ?",
		bookID, model.NormalizeAddress(userAddress))
	if err := scanReview(row, &rv); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rv, nil
}

// Create inserts rv.  A second review for the same (book, user) pair fails
// with ErrDuplicate.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	const q = `INSERT INTO reviews (id, book_id, user_address, review_text, rating, review_hash, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, rv.ID, rv.BookID, rv.UserAddress, rv.ReviewText, rv.Rating, rv.ReviewHash, rv.Timestamp)
	return translate(err)
}

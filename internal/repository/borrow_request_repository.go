package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/book-lending/internal/model"
)

const borrowRequestColumns = "id, book_id, borrower_address, duration_days, status, tx_hash, created_at, updated_at"

// BorrowRequestPatch lists the fields an update may change.  Nil fields are
// left as stored.
type BorrowRequestPatch struct {
	Status *model.BorrowStatus
	TxHash *string
}

// BorrowRequestRepo reads and writes the borrow_requests table.
type BorrowRequestRepo struct {
	db *sql.DB
}

// NewBorrowRequestRepo returns a BorrowRequestRepo backed by db.
func NewBorrowRequestRepo(db *sql.DB) *BorrowRequestRepo {
	return &BorrowRequestRepo{db: db}
}

func scanBorrowRequest(s scanner, br *model.BorrowRequest) error {
	var status string
	var tx sql.NullString
	if err := s.Scan(&br.ID, &br.BookID, &br.BorrowerAddress, &br.DurationDays, &status, &tx,
		&br.CreatedAt, &br.UpdatedAt); err != nil {
		return err
	}
	br.Status = model.BorrowStatus(status)
	br.TxHash = nullString(tx)
	return nil
}

func (r *BorrowRequestRepo) query(ctx context.Context, q string, args ...any) ([]model.BorrowRequest, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.BorrowRequest{}
	for rows.Next() {
		var br model.BorrowRequest
		if err := scanBorrowRequest(rows, &br); err != nil {
			return nil, err
		}
		out = append(out, br)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// List returns the requests matching f, newest first.
func (r *BorrowRequestRepo) List(ctx context.Context, f BorrowRequestFilter) ([]model.BorrowRequest, error) {
	where, args := f.filter().Where()
	return r.query(ctx, "SELECT "+borrowRequestColumns+" FROM borrow_requests"+where+" ORDER BY created_at DESC", args...)
}

// GetByID fetches one request or ErrNotFound.
func (r *BorrowRequestRepo) GetByID(ctx context.Context, id string) (*model.BorrowRequest, error) {
	var br model.BorrowRequest
	row := r.db.QueryRowContext(ctx, "SELECT "+borrowRequestColumns+" FROM borrow_requests WHERE id = ?", id)
	if err := scanBorrowRequest(row, &br); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &br, nil
}

// FindPending returns a pending request of borrower for book, or ErrNotFound.
func (r *BorrowRequestRepo) FindPending(ctx context.Context, bookID uint64, borrower string) (*model.BorrowRequest, error) {
	where, args := BorrowRequestFilter{BookID: bookID, BorrowerAddress: borrower, Status: model.BorrowPending}.filter().Where()
	found, err := r.query(ctx, "SELECT "+borrowRequestColumns+" FROM borrow_requests"+where+" LIMIT 1", args...)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return &found[0], nil
}

func (r *BorrowRequestRepo) Create(ctx context.Context, br *model.BorrowRequest) error {
	const q = `INSERT INTO borrow_requests (id, book_id, borrower_address, duration_days, status, tx_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, br.ID, br.BookID, br.BorrowerAddress, br.DurationDays, string(br.Status),
		br.TxHash, br.CreatedAt, br.UpdatedAt)
	return translate(err)
}

// Update applies p to the request and returns the stored row.  updated_at is
// always bumped to now.
func (r *BorrowRequestRepo) Update(ctx context.Context, id string, p BorrowRequestPatch, now time.Time) (*model.BorrowRequest, error) {
	sets := []string{}
	args := []any{}
	if p.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*p.Status))
	}
	if p.TxHash != nil {
		sets = append(sets, "tx_hash = ?")
		args = append(args, *p.TxHash)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, now, id)

	q := "UPDATE borrow_requests SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes the request, returning ErrNotFound when nothing was deleted.
func (r *BorrowRequestRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM borrow_requests WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

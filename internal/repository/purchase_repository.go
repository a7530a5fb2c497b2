package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/book-lending/internal/model"
)

// purchaseSelect joins every purchase with its book.
const purchaseSelect = `SELECT
		p.id, p.book_id, p.buyer_address, p.amount, p.tx_hash, p.timestamp,
		b.id, b.title, b.description, b.author, b.genre, b.published_year,
		b.cover_image, b.owner_address, b.created_at, b.updated_at
	FROM purchases p
	JOIN books b ON b.id = p.book_id`

// PurchaseRepo records purchases and aggregates their totals.
type PurchaseRepo struct {
	db *sql.DB
}

// NewPurchaseRepo returns a PurchaseRepo backed by db.
func NewPurchaseRepo(db *sql.DB) *PurchaseRepo {
	return &PurchaseRepo{db: db}
}

type purchaseRow struct {
	p     model.Purchase
	b     model.Book
	cover sql.NullString
	owner sql.NullString
}

func scanPurchase(s scanner) (model.Purchase, error) {
	var r purchaseRow
	err := s.Scan(
		&r.p.ID, &r.p.BookID, &r.p.BuyerAddress, &r.p.Amount, &r.p.TxHash, &r.p.Timestamp,
		&r.b.ID, &r.b.Title, &r.b.Description, &r.b.Author, &r.b.Genre, &r.b.PublishedYear,
		&r.cover, &r.owner, &r.b.CreatedAt, &r.b.UpdatedAt,
	)
	if err != nil {
		return model.Purchase{}, err
	}
	r.b.CoverImage = nullString(r.cover)
	r.b.OwnerAddress = nullString(r.owner)
	r.p.Book = &r.b
	return r.p, nil
}

// List returns purchases matching f with their books, newest first.
func (r *PurchaseRepo) List(ctx context.Context, f PurchaseFilter) ([]model.Purchase, error) {
	where, args := f.filter().Where()
	rows, err := r.db.QueryContext(ctx, purchaseSelect+where+" ORDER BY p.timestamp DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Purchase{}
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByTxHash fetches the purchase recorded for txHash, or ErrNotFound.
func (r *PurchaseRepo) GetByTxHash(ctx context.Context, txHash string) (*model.Purchase, error) {
	p, err := scanPurchase(r.db.QueryRowContext(ctx, purchaseSelect+" WHERE p.tx_hash = ?", txHash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts p and attaches its book.  A reused tx hash fails with
// ErrDuplicate and an unknown book with ErrMissingReference.
func (r *PurchaseRepo) Create(ctx context.Context, p *model.Purchase) error {
	const q = `INSERT INTO purchases (id, book_id, buyer_address, amount, tx_hash, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, p.ID, p.BookID, p.BuyerAddress, p.Amount, p.TxHash, p.Timestamp); err != nil {
		return translate(err)
	}
	stored, err := r.GetByTxHash(ctx, p.TxHash)
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}

// Totals returns the number of purchases and of distinct buyers.
func (r *PurchaseRepo) Totals(ctx context.Context) (purchases, buyers int64, err error) {
	err = r.db.QueryRowContext(ctx, "SELECT COUNT(*), COUNT(DISTINCT buyer_address) FROM purchases").Scan(&purchases, &buyers)
	return purchases, buyers, err
}

// Amounts returns every recorded amount.  Summation happens in the service
// with arbitrary precision.
func (r *PurchaseRepo) Amounts(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT amount FROM purchases")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

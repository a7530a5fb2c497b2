package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/book-lending/internal/model"
)

const bookColumns = "id, title, description, author, genre, published_year, cover_image, owner_address, created_at, updated_at"

// BookRepo encapsulates all queries on the books table.
type BookRepo struct {
	db *sql.DB
}

// NewBookRepo returns a BookRepo backed by db.
func NewBookRepo(db *sql.DB) *BookRepo {
	return &BookRepo{db: db}
}

func scanBook(s scanner, b *model.Book) error {
	var cover, owner sql.NullString
	if err := s.Scan(&b.ID, &b.Title, &b.Description, &b.Author, &b.Genre, &b.PublishedYear,
		&cover, &owner, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return err
	}
	b.CoverImage = nullString(cover)
	b.OwnerAddress = nullString(owner)
	return nil
}

// List returns every book, newest first.
func (r *BookRepo) List(ctx context.Context) ([]model.Book, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+bookColumns+" FROM books ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Book{}
	for rows.Next() {
		var b model.Book
		if err := scanBook(rows, &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches one book or ErrNotFound.
func (r *BookRepo) GetByID(ctx context.Context, id uint64) (*model.Book, error) {
	var b model.Book
	row := r.db.QueryRowContext(ctx, "SELECT "+bookColumns+" FROM books WHERE id = ?", id)
	if err := scanBook(row, &b); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// Create inserts b and then re-reads the row so the caller receives the
// generated id and timestamps.
func (r *BookRepo) Create(ctx context.Context, b *model.Book) error {
	const q = `INSERT INTO books (title, description, author, genre, published_year, cover_image, owner_address)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, b.Title, b.Description, b.Author, b.Genre, b.PublishedYear,
		b.CoverImage, b.OwnerAddress)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*b = *stored
	return nil
}

// SetCoverImage replaces the cover (nil clears it) and returns the updated
// row.  ErrNotFound is returned when the book does not exist.
func (r *BookRepo) SetCoverImage(ctx context.Context, id uint64, cover *string) (*model.Book, error) {
	if _, err := r.db.ExecContext(ctx, "UPDATE books SET cover_image = ? WHERE id = ?", cover, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Count returns the number of books in the catalog.
func (r *BookRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM books").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

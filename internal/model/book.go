// Package model contains the persisted entities of the lending backend and
// their JSON representation.
package model

import "time"

// Book is a catalog entry.  The numeric ID is assigned by storage and is the
// same token id the lending contract uses for the book.
//
// Fields:
//
//	ID            – books.id, auto incremented.
//	Title         – non-empty title.
//	Description   – non-empty description.
//	Author        – non-empty author.
//	Genre         – non-empty genre.
//	PublishedYear – four digit year in [1000, 9999].
//	CoverImage    – URL or data URL, nil when the book has no cover.
//	OwnerAddress  – lower-cased wallet address of the owner, nil when unknown.
//	CreatedAt     – creation time.
//	UpdatedAt     – last modification time.
type Book struct {
	ID            uint64    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Author        string    `json:"author"`
	Genre         string    `json:"genre"`
	PublishedYear int       `json:"publishedYear"`
	CoverImage    *string   `json:"coverImage"`
	OwnerAddress  *string   `json:"ownerAddress"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// BookDetail is a book together with its reviews and borrow requests, as
// returned by the single book lookup.
type BookDetail struct {
	Book
	Reviews        []Review        `json:"reviews"`
	BorrowRequests []BorrowRequest `json:"borrowRequests"`
}

package model

import "time"

// Review is a user's rating and text for a book.  At most one review exists
// per (BookID, UserAddress).  ReviewHash is the keccak256 digest of the text
// that the client also commits on chain; it is stored as given.
type Review struct {
	ID          string    `json:"id"`
	BookID      uint64    `json:"bookId"`
	UserAddress string    `json:"userAddress"`
	ReviewText  string    `json:"reviewText"`
	Rating      int       `json:"rating"`
	ReviewHash  string    `json:"reviewHash"`
	Timestamp   time.Time `json:"timestamp"`
}

package model

import "time"

// BorrowStatus is the lifecycle state of a borrow request.
type BorrowStatus string

const (
	BorrowPending  BorrowStatus = "pending"
	BorrowApproved BorrowStatus = "approved"
	BorrowRejected BorrowStatus = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s BorrowStatus) Valid() bool {
	switch s {
	case BorrowPending, BorrowApproved, BorrowRejected:
		return true
	}
	return false
}

// BorrowRequest asks the owner of a book to lend it for DurationDays.
// TxHash is attached once the on-chain borrow transaction exists.
type BorrowRequest struct {
	ID              string       `json:"id"`
	BookID          uint64       `json:"bookId"`
	BorrowerAddress string       `json:"borrowerAddress"`
	DurationDays    int          `json:"durationDays"`
	Status          BorrowStatus `json:"status"`
	TxHash          *string      `json:"txHash"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

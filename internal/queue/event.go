// Package queue defines the activity events exchanged over RabbitMQ and the
// publisher and consumer that move them.
package queue

// EventType names what happened.
type EventType string

const (
	ReviewCreated        EventType = "review.created"
	BorrowRequestCreated EventType = "borrow_request.created"
	BorrowRequestUpdated EventType = "borrow_request.updated"
	BorrowRequestDeleted EventType = "borrow_request.deleted"
	PurchaseRecorded     EventType = "purchase.recorded"
)

// ActivityEvent is published after a successful write so downstream
// consumers can log, notify or index without querying the database.
type ActivityEvent struct {
	Type       EventType `json:"type"`
	RefID      string    `json:"ref_id"`
	BookID     uint64    `json:"book_id"`
	Address    string    `json:"address,omitempty"`
	Status     string    `json:"status,omitempty"`
	TxHash     string    `json:"tx_hash,omitempty"`
	Amount     string    `json:"amount,omitempty"`
	Rating     int       `json:"rating,omitempty"`
	OccurredAt string    `json:"occurred_at"`
}

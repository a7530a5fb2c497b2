// Package service holds the business rules of the lending backend.  Services
// depend on the store interfaces below, implemented by the MySQL repositories
// and by memstore.
package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/book-lending/internal/model"
	"github.com/iliyamo/book-lending/internal/queue"
	"github.com/iliyamo/book-lending/internal/repository"
)

type BookStore interface {
	List(ctx context.Context) ([]model.Book, error)
	GetByID(ctx context.Context, id uint64) (*model.Book, error)
	Create(ctx context.Context, b *model.Book) error
	SetCoverImage(ctx context.Context, id uint64, cover *string) (*model.Book, error)
	Count(ctx context.Context) (int64, error)
}

type ReviewStore interface {
	List(ctx context.Context, f repository.ReviewFilter) ([]model.Review, error)
	GetByBookAndUser(ctx context.Context, bookID uint64, userAddress string) (*model.Review, error)
	Create(ctx context.Context, r *model.Review) error
}

type BorrowRequestStore interface {
	List(ctx context.Context, f repository.BorrowRequestFilter) ([]model.BorrowRequest, error)
	GetByID(ctx context.Context, id string) (*model.BorrowRequest, error)
	FindPending(ctx context.Context, bookID uint64, borrower string) (*model.BorrowRequest, error)
	Create(ctx context.Context, br *model.BorrowRequest) error
	Update(ctx context.Context, id string, p repository.BorrowRequestPatch, now time.Time) (*model.BorrowRequest, error)
	Delete(ctx context.Context, id string) error
}

type PurchaseStore interface {
	List(ctx context.Context, f repository.PurchaseFilter) ([]model.Purchase, error)
	GetByTxHash(ctx context.Context, txHash string) (*model.Purchase, error)
	Create(ctx context.Context, p *model.Purchase) error
	Totals(ctx context.Context) (purchases, buyers int64, err error)
	Amounts(ctx context.Context) ([]string, error)
}

type UserStore interface {
	GetByWallet(ctx context.Context, wallet string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
}

// Stores bundles one implementation of every store.
type Stores struct {
	Books          BookStore
	Reviews        ReviewStore
	BorrowRequests BorrowRequestStore
	Purchases      PurchaseStore
	Users          UserStore
}

// EventPublisher receives activity events after successful writes.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ActivityEvent) error
}

type discardPublisher struct{}

func (discardPublisher) Publish(context.Context, queue.ActivityEvent) error { return nil }

func orDiscard(p EventPublisher) EventPublisher {
	if p == nil {
		return discardPublisher{}
	}
	return p
}

// publish sends ev and only logs failures; a broker outage never fails the
// request that raised the event.
func publish(ctx context.Context, p EventPublisher, log logrus.FieldLogger, ev queue.ActivityEvent) {
	ev.OccurredAt = time.Now().UTC().Format(time.RFC3339Nano)
	if err := p.Publish(ctx, ev); err != nil {
		log.WithError(err).WithField("event", ev.Type).Warn("activity event dropped")
	}
}

// now is the storage clock: UTC truncated to the millisecond precision of
// DATETIME(3) columns.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

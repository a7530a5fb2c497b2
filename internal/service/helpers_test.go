package service

import (
	"context"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/book-lending/internal/model"
	"github.com/iliyamo/book-lending/internal/queue"
	"github.com/iliyamo/book-lending/internal/repository/memstore"
	"github.com/iliyamo/book-lending/internal/validation"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ActivityEvent
	fail   error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.ActivityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.fail
}

func (p *recordingPublisher) types() []queue.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]queue.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	mem      *memstore.Store
	stores   Stores
	events   *recordingPublisher
	hook     *logtest.Hook
	log      *logrus.Logger
	v        *validation.Validator
	books    *BookService
	reviews  *ReviewService
	requests *BorrowRequestService
	buys     *PurchaseService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log, hook := logtest.NewNullLogger()
	mem := memstore.New()
	f := &fixture{
		mem: mem,
		stores: Stores{
			Books:          mem.Books,
			Reviews:        mem.Reviews,
			BorrowRequests: mem.BorrowRequests,
			Purchases:      mem.Purchases,
			Users:          mem.Users,
		},
		events: &recordingPublisher{},
		hook:   hook,
		log:    log,
		v:      validation.New(),
	}
	f.books = NewBookService(f.stores, f.v, log)
	f.reviews = NewReviewService(f.stores, f.events, f.v, log)
	f.requests = NewBorrowRequestService(f.stores, f.events, f.v, log)
	f.buys = NewPurchaseService(f.stores, f.events, f.v, log)
	return f
}

func (f *fixture) book(t *testing.T) *model.Book {
	t.Helper()
	b, err := f.books.Create(context.Background(), CreateBookInput{
		Title: "Dune", Description: "Spice", Author: "Frank Herbert", Genre: "SF", PublishedYear: 1965,
	})
	require.NoError(t, err)
	return b
}

func requireKind(t *testing.T, err error, kind Kind) *Error {
	t.Helper()
	require.Error(t, err)
	var se *Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, kind, se.Kind, "unexpected kind for %v", err)
	return se
}

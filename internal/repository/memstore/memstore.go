// Package memstore is an in-memory implementation of the repository stores.
// It enforces the same unique keys and foreign keys as the MySQL schema and
// is used for local runs (STORE_DRIVER=memory) and tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/book-lending/internal/model"
	"github.com/iliyamo/book-lending/internal/repository"
)

type data struct {
	mu       sync.RWMutex
	seq      int64
	nextBook uint64
	books    map[uint64]*entry[model.Book]
	reviews  map[string]*entry[model.Review]
	requests map[string]*entry[model.BorrowRequest]
	purchase map[string]*entry[model.Purchase]
	users    map[string]*entry[model.User]
}

// entry remembers insertion order so equal timestamps sort deterministically.
type entry[T any] struct {
	seq int64
	v   T
}

// Store exposes one view per table over shared state.
type Store struct {
	Books          *Books
	Reviews        *Reviews
	BorrowRequests *BorrowRequests
	Purchases      *Purchases
	Users          *Users
}

// New returns an empty Store.
func New() *Store {
	d := &data{
		books:    map[uint64]*entry[model.Book]{},
		reviews:  map[string]*entry[model.Review]{},
		requests: map[string]*entry[model.BorrowRequest]{},
		purchase: map[string]*entry[model.Purchase]{},
		users:    map[string]*entry[model.User]{},
	}
	return &Store{
		Books:          &Books{d: d},
		Reviews:        &Reviews{d: d},
		BorrowRequests: &BorrowRequests{d: d},
		Purchases:      &Purchases{d: d},
		Users:          &Users{d: d},
	}
}

func (d *data) next() int64 {
	d.seq++
	return d.seq
}

// newestFirst sorts by the given time descending, then by insertion order
// descending.
func newestFirst[T any](es []*entry[T], at func(T) time.Time) []T {
	sort.Slice(es, func(i, j int) bool {
		ti, tj := at(es[i].v), at(es[j].v)
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return es[i].seq > es[j].seq
	})
	out := make([]T, 0, len(es))
	for _, e := range es {
		out = append(out, e.v)
	}
	return out
}

func clonePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneBook(b model.Book) model.Book {
	b.CoverImage = clonePtr(b.CoverImage)
	b.OwnerAddress = clonePtr(b.OwnerAddress)
	return b
}

// Books is the in-memory books table.
type Books struct{ d *data }

// List returns every book, newest first.
func (s *Books) List(_ context.Context) ([]model.Book, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	es := make([]*entry[model.Book], 0, len(s.d.books))
	for _, e := range s.d.books {
		es = append(es, &entry[model.Book]{seq: e.seq, v: cloneBook(e.v)})
	}
	return newestFirst(es, func(b model.Book) time.Time { return b.CreatedAt }), nil
}

// GetByID returns a copy of the book or repository.ErrNotFound.
func (s *Books) GetByID(_ context.Context, id uint64) (*model.Book, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	e, ok := s.d.books[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	b := cloneBook(e.v)
	return &b, nil
}

// Create assigns b the next ID and its timestamps, then stores a copy.
func (s *Books) Create(_ context.Context, b *model.Book) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	s.d.nextBook++
	ts := time.Now().UTC().Truncate(time.Millisecond)
	b.ID = s.d.nextBook
	b.CreatedAt, b.UpdatedAt = ts, ts
	s.d.books[b.ID] = &entry[model.Book]{seq: s.d.next(), v: cloneBook(*b)}
	return nil
}

// SetCoverImage replaces the cover (nil clears it) and returns the updated book.
func (s *Books) SetCoverImage(_ context.Context, id uint64, cover *string) (*model.Book, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	e, ok := s.d.books[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	e.v.CoverImage = clonePtr(cover)
	e.v.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	b := cloneBook(e.v)
	return &b, nil
}

// Count reports how many books are stored.
func (s *Books) Count(_ context.Context) (int64, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	return int64(len(s.d.books)), nil
}

// Reviews is the in-memory reviews table, unique on (book, user).
type Reviews struct{ d *data }

// List returns the reviews matching f, newest first.
func (s *Reviews) List(_ context.Context, f repository.ReviewFilter) ([]model.Review, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	var es []*entry[model.Review]
	for _, e := range s.d.reviews {
		if f.Match(e.v) {
			es = append(es, e)
		}
	}
	return newestFirst(es, func(r model.Review) time.Time { return r.Timestamp }), nil
}

// GetByBookAndUser returns the user's review of the book or
// repository.ErrNotFound.
func (s *Reviews) GetByBookAndUser(_ context.Context, bookID uint64, userAddress string) (*model.Review, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	f := repository.ReviewFilter{BookID: bookID, UserAddress: userAddress}
	for _, e := range s.d.reviews {
		if f.Match(e.v) {
			rv := e.v
			return &rv, nil
		}
	}
	return nil, repository.ErrNotFound
}

// Create stores rv.  It fails with repository.ErrMissingReference for an
// unknown book and repository.ErrDuplicate for a second review by the same user.
func (s *Reviews) Create(_ context.Context, rv *model.Review) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.books[rv.BookID]; !ok {
		return repository.ErrMissingReference
	}
	if _, ok := s.d.reviews[rv.ID]; ok {
		return repository.ErrDuplicate
	}
	for _, e := range s.d.reviews {
		if e.v.BookID == rv.BookID && e.v.UserAddress == rv.UserAddress {
			return repository.ErrDuplicate
		}
	}
	s.d.reviews[rv.ID] = &entry[model.Review]{seq: s.d.next(), v: *rv}
	return nil
}

// BorrowRequests is the in-memory borrow_requests table.
type BorrowRequests struct{ d *data }

func cloneRequest(br model.BorrowRequest) model.BorrowRequest {
	br.TxHash = clonePtr(br.TxHash)
	return br
}

func (s *BorrowRequests) list(f repository.BorrowRequestFilter) []model.BorrowRequest {
	var es []*entry[model.BorrowRequest]
	for _, e := range s.d.requests {
		if f.Match(e.v) {
			es = append(es, &entry[model.BorrowRequest]{seq: e.seq, v: cloneRequest(e.v)})
		}
	}
	return newestFirst(es, func(br model.BorrowRequest) time.Time { return br.CreatedAt })
}

// List returns the requests matching f, newest first.
func (s *BorrowRequests) List(_ context.Context, f repository.BorrowRequestFilter) ([]model.BorrowRequest, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	return s.list(f), nil
}

// GetByID returns a copy of the request or repository.ErrNotFound.
func (s *BorrowRequests) GetByID(_ context.Context, id string) (*model.BorrowRequest, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	e, ok := s.d.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	br := cloneRequest(e.v)
	return &br, nil
}

// FindPending returns the borrower's newest pending request for the book.
func (s *BorrowRequests) FindPending(_ context.Context, bookID uint64, borrower string) (*model.BorrowRequest, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	found := s.list(repository.BorrowRequestFilter{BookID: bookID, BorrowerAddress: borrower, Status: model.BorrowPending})
	if len(found) == 0 {
		return nil, repository.ErrNotFound
	}
	return &found[0], nil
}

// Create stores br.  The book must exist and the ID must be unused.
func (s *BorrowRequests) Create(_ context.Context, br *model.BorrowRequest) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.books[br.BookID]; !ok {
		return repository.ErrMissingReference
	}
	if _, ok := s.d.requests[br.ID]; ok {
		return repository.ErrDuplicate
	}
	s.d.requests[br.ID] = &entry[model.BorrowRequest]{seq: s.d.next(), v: cloneRequest(*br)}
	return nil
}

// Update applies p, stamps UpdatedAt with now and returns the result.
func (s *BorrowRequests) Update(_ context.Context, id string, p repository.BorrowRequestPatch, now time.Time) (*model.BorrowRequest, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	e, ok := s.d.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if p.Status != nil {
		e.v.Status = *p.Status
	}
	if p.TxHash != nil {
		e.v.TxHash = clonePtr(p.TxHash)
	}
	e.v.UpdatedAt = now
	br := cloneRequest(e.v)
	return &br, nil
}

// Delete removes the request or reports repository.ErrNotFound.
func (s *BorrowRequests) Delete(_ context.Context, id string) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.requests[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.d.requests, id)
	return nil
}

// Purchases is the in-memory purchases table, unique on tx hash.
type Purchases struct{ d *data }

// joined returns p with a copy of its book attached.  Callers hold the lock.
func (s *Purchases) joined(p model.Purchase) model.Purchase {
	if e, ok := s.d.books[p.BookID]; ok {
		b := cloneBook(e.v)
		p.Book = &b
	}
	return p
}

// List returns the purchases matching f, newest first, each with its book.
func (s *Purchases) List(_ context.Context, f repository.PurchaseFilter) ([]model.Purchase, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	var es []*entry[model.Purchase]
	for _, e := range s.d.purchase {
		if f.Match(e.v) {
			es = append(es, &entry[model.Purchase]{seq: e.seq, v: s.joined(e.v)})
		}
	}
	return newestFirst(es, func(p model.Purchase) time.Time { return p.Timestamp }), nil
}

// GetByTxHash returns the purchase recorded for txHash or
// repository.ErrNotFound.
func (s *Purchases) GetByTxHash(_ context.Context, txHash string) (*model.Purchase, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	for _, e := range s.d.purchase {
		if e.v.TxHash == txHash {
			p := s.joined(e.v)
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

// Create stores p unless its tx hash is taken or its book is unknown.
func (s *Purchases) Create(_ context.Context, p *model.Purchase) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	for _, e := range s.d.purchase {
		if e.v.TxHash == p.TxHash {
			return repository.ErrDuplicate
		}
	}
	if _, ok := s.d.books[p.BookID]; !ok {
		return repository.ErrMissingReference
	}
	stored := *p
	stored.Book = nil
	s.d.purchase[p.ID] = &entry[model.Purchase]{seq: s.d.next(), v: stored}
	*p = s.joined(stored)
	return nil
}

// Totals returns the purchase count and the number of distinct buyers.
func (s *Purchases) Totals(_ context.Context) (int64, int64, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	buyers := map[string]struct{}{}
	for _, e := range s.d.purchase {
		buyers[e.v.BuyerAddress] = struct{}{}
	}
	return int64(len(s.d.purchase)), int64(len(buyers)), nil
}

// Amounts returns every purchase amount as stored, for summing in decimal.
func (s *Purchases) Amounts(_ context.Context) ([]string, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	out := make([]string, 0, len(s.d.purchase))
	for _, e := range s.d.purchase {
		out = append(out, e.v.Amount)
	}
	return out, nil
}

// Users is the in-memory users table, unique on wallet.
type Users struct{ d *data }

// GetByWallet returns the user owning wallet or repository.ErrNotFound.
func (s *Users) GetByWallet(_ context.Context, wallet string) (*model.User, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	wallet = model.NormalizeAddress(wallet)
	for _, e := range s.d.users {
		if e.v.WalletAddress == wallet {
			u := e.v
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

// GetByID returns the user or repository.ErrNotFound.
func (s *Users) GetByID(_ context.Context, id string) (*model.User, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	e, ok := s.d.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := e.v
	return &u, nil
}

// Create stores u.  ID and wallet must both be unused.
func (s *Users) Create(_ context.Context, u *model.User) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.users[u.ID]; ok {
		return repository.ErrDuplicate
	}
	for _, e := range s.d.users {
		if e.v.WalletAddress == u.WalletAddress {
			return repository.ErrDuplicate
		}
	}
	s.d.users[u.ID] = &entry[model.User]{seq: s.d.next(), v: *u}
	return nil
}

// Delete removes a user; used to exercise tokens that outlive their user.
func (s *Users) Delete(_ context.Context, id string) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	delete(s.d.users, id)
}

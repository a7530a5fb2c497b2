package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/book-lending/internal/model"
	"github.com/iliyamo/book-lending/internal/queue"
	"github.com/iliyamo/book-lending/internal/repository"
	"github.com/iliyamo/book-lending/internal/validation"
)

// CreateBorrowRequestInput asks to borrow BookID for DurationDays.
type CreateBorrowRequestInput struct {
	BookID          uint64 `json:"bookId" validate:"required" msg:"Missing required fields"`
	BorrowerAddress string `json:"borrowerAddress" validate:"required" msg:"Missing required fields"`
	DurationDays    int    `json:"durationDays" validate:"min=1,max=30" msg:"Duration must be between 1 and 30 days"`
}

// UpdateBorrowRequestInput carries the optional fields of a status update.
// Empty strings mean "leave unchanged".
type UpdateBorrowRequestInput struct {
	Status string `json:"status"`
	TxHash string `json:"txHash"`
}

// BorrowRequestService implements the borrow request lifecycle.  Status
// transitions are not restricted: any known status may follow any other.
type BorrowRequestService struct {
	books    BookStore
	requests BorrowRequestStore
	events   EventPublisher
	v        *validation.Validator
	log      logrus.FieldLogger
}

func NewBorrowRequestService(s Stores, events EventPublisher, v *validation.Validator, log logrus.FieldLogger) *BorrowRequestService {
	return &BorrowRequestService{books: s.Books, requests: s.BorrowRequests, events: orDiscard(events), v: v, log: log}
}

// Create opens a pending request.  A borrower may hold at most one pending
// request per book; this is checked before the insert and is not backed by a
// storage constraint, so two concurrent creates can both succeed.
func (s *BorrowRequestService) Create(ctx context.Context, in CreateBorrowRequestInput) (*model.BorrowRequest, error) {
	in.BorrowerAddress = model.NormalizeAddress(in.BorrowerAddress)
	if fields := s.v.Check(&in); fields != nil {
		return nil, invalidFields(fields)
	}

	if _, err := s.books.GetByID(ctx, in.BookID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("Book not found")
		}
		return nil, storage("Failed to create borrow request", err)
	}

	_, err := s.requests.FindPending(ctx, in.BookID, in.BorrowerAddress)
	switch {
	case err == nil:
		return nil, conflict("You already have a pending borrow request for this book")
	case !errors.Is(err, repository.ErrNotFound):
		return nil, storage("Failed to create borrow request", err)
	}

	ts := now()
	br := &model.BorrowRequest{
		ID:              "req-" + uuid.NewString(),
		BookID:          in.BookID,
		BorrowerAddress: in.BorrowerAddress,
		DurationDays:    in.DurationDays,
		Status:          model.BorrowPending,
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}
	if err := s.requests.Create(ctx, br); err != nil {
		return nil, storage("Failed to create borrow request", err)
	}

	publish(ctx, s.events, s.log, queue.ActivityEvent{
		Type: queue.BorrowRequestCreated, RefID: br.ID, BookID: br.BookID, Address: br.BorrowerAddress, Status: string(br.Status),
	})
	return br, nil
}

// Update merges the supplied status and tx hash into the request.
func (s *BorrowRequestService) Update(ctx context.Context, id string, in UpdateBorrowRequestInput) (*model.BorrowRequest, error) {
	if _, err := s.get(ctx, id, "Failed to update borrow request"); err != nil {
		return nil, err
	}

	var patch repository.BorrowRequestPatch
	if st := strings.TrimSpace(in.Status); st != "" {
		status := model.BorrowStatus(st)
		if !status.Valid() {
			return nil, invalidField("status", "Invalid status")
		}
		patch.Status = &status
	}
	if tx := strings.TrimSpace(in.TxHash); tx != "" {
		patch.TxHash = &tx
	}

	br, err := s.requests.Update(ctx, id, patch, now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("Borrow request not found")
		}
		return nil, storage("Failed to update borrow request", err)
	}

	ev := queue.ActivityEvent{
		Type: queue.BorrowRequestUpdated, RefID: br.ID, BookID: br.BookID, Address: br.BorrowerAddress, Status: string(br.Status),
	}
	if br.TxHash != nil {
		ev.TxHash = *br.TxHash
	}
	publish(ctx, s.events, s.log, ev)
	return br, nil
}

// Delete removes the request.
func (s *BorrowRequestService) Delete(ctx context.Context, id string) error {
	br, err := s.get(ctx, id, "Failed to delete borrow request")
	if err != nil {
		return err
	}
	if err := s.requests.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("Borrow request not found")
		}
		return storage("Failed to delete borrow request", err)
	}
	publish(ctx, s.events, s.log, queue.ActivityEvent{
		Type: queue.BorrowRequestDeleted, RefID: br.ID, BookID: br.BookID, Address: br.BorrowerAddress,
	})
	return nil
}

// List returns requests matching f, newest first.  An unknown status filter
// is rejected rather than silently matching nothing.
func (s *BorrowRequestService) List(ctx context.Context, f repository.BorrowRequestFilter) ([]model.BorrowRequest, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, invalidField("status", "Invalid status")
	}
	out, err := s.requests.List(ctx, f)
	if err != nil {
		return nil, storage("Failed to fetch borrow requests", err)
	}
	return out, nil
}

func (s *BorrowRequestService) get(ctx context.Context, id, failure string) (*model.BorrowRequest, error) {
	br, err := s.requests.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("Borrow request not found")
	}
	if err != nil {
		return nil, storage(failure, err)
	}
	return br, nil
}

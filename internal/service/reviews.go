package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/book-lending/internal/model"
	"github.com/iliyamo/book-lending/internal/queue"
	"github.com/iliyamo/book-lending/internal/repository"
	"github.com/iliyamo/book-lending/internal/utils"
	"github.com/iliyamo/book-lending/internal/validation"
)

// CreateReviewInput is a review submission.  Rating 0 means no rating.
type CreateReviewInput struct {
	BookID      uint64 `json:"bookId" validate:"required" msg:"Missing required fields"`
	UserAddress string `json:"userAddress" validate:"required" msg:"Missing required fields"`
	ReviewText  string `json:"reviewText" validate:"required" msg:"Missing required fields"`
	Rating      int    `json:"rating" validate:"omitempty,min=1,max=5" msg:"Rating must be between 1 and 5"`
	ReviewHash  string `json:"reviewHash" validate:"required" msg:"Missing required fields"`
}

// ReviewService creates and lists book reviews.  A wallet may review a
// book once.
type ReviewService struct {
	books   BookStore
	reviews ReviewStore
	events  EventPublisher
	v       *validation.Validator
	log     logrus.FieldLogger
}

// NewReviewService wires the review use cases.  events may be nil.
func NewReviewService(s Stores, events EventPublisher, v *validation.Validator, log logrus.FieldLogger) *ReviewService {
	return &ReviewService{books: s.Books, reviews: s.Reviews, events: orDiscard(events), v: v, log: log}
}

// Create stores a review.  A user may review each book once; the pre-check
// gives the friendly conflict and the unique key covers concurrent inserts.
func (s *ReviewService) Create(ctx context.Context, in CreateReviewInput) (*model.Review, error) {
	in.UserAddress = model.NormalizeAddress(in.UserAddress)
	if fields := s.v.Check(&in); fields != nil {
		return nil, invalidFields(fields)
	}

	if _, err := s.books.GetByID(ctx, in.BookID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("Book not found")
		}
		return nil, storage("Failed to create review", err)
	}

	_, err := s.reviews.GetByBookAndUser(ctx, in.BookID, in.UserAddress)
	switch {
	case err == nil:
		return nil, conflict("User has already reviewed this book")
	case !errors.Is(err, repository.ErrNotFound):
		return nil, storage("Failed to create review", err)
	}

	if !utils.SameDigest(utils.Keccak256Hex(in.ReviewText), in.ReviewHash) {
		s.log.WithFields(logrus.Fields{"book_id": in.BookID, "user": in.UserAddress}).
			Warn("review hash does not match keccak256 of review text")
	}

	ts := now()
	rv := &model.Review{
		ID:          fmt.Sprintf("%d-%s-%d", in.BookID, in.UserAddress, ts.UnixMilli()),
		BookID:      in.BookID,
		UserAddress: in.UserAddress,
		ReviewText:  in.ReviewText,
		Rating:      in.Rating,
		ReviewHash:  in.ReviewHash,
		Timestamp:   ts,
	}
	if err := s.reviews.Create(ctx, rv); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("User has already reviewed this book")
		}
		return nil, storage("Failed to create review", err)
	}

	publish(ctx, s.events, s.log, queue.ActivityEvent{
		Type: queue.ReviewCreated, RefID: rv.ID, BookID: rv.BookID, Address: rv.UserAddress, Rating: rv.Rating,
	})
	return rv, nil
}

// List returns reviews matching f, newest first.
func (s *ReviewService) List(ctx context.Context, f repository.ReviewFilter) ([]model.Review, error) {
	out, err := s.reviews.List(ctx, f)
	if err != nil {
		return nil, storage("Failed to fetch reviews", err)
	}
	return out, nil
}

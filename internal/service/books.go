package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/book-lending/internal/model"
	"github.com/iliyamo/book-lending/internal/repository"
	"github.com/iliyamo/book-lending/internal/validation"
)

// MaxCoverBytes is the largest decoded cover image accepted by UploadCover.
const MaxCoverBytes = 5 * 1024 * 1024

const dataImagePrefix = "data:image/"

// CreateBookInput is the catalog entry submitted by a client.
type CreateBookInput struct {
	Title         string `json:"title" validate:"required" msg:"Title is required"`
	Description   string `json:"description" validate:"required" msg:"Description is required"`
	Author        string `json:"author" validate:"required" msg:"Author is required"`
	Genre         string `json:"genre" validate:"required" msg:"Genre is required"`
	PublishedYear int    `json:"publishedYear" validate:"min=1000,max=9999" msg:"Valid published year is required"`
	CoverImage    string `json:"coverImage" validate:"omitempty,http_url|startswith=data:image/" msg:"Cover image must be a valid URL"`
	OwnerAddress  string `json:"ownerAddress" validate:"omitempty,ethaddr" msg:"Invalid wallet address format"`
}

func (in *CreateBookInput) sanitize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Author = strings.TrimSpace(in.Author)
	in.Genre = strings.TrimSpace(in.Genre)
	in.CoverImage = strings.TrimSpace(in.CoverImage)
	in.OwnerAddress = model.NormalizeAddress(in.OwnerAddress)
}

// BookService manages the catalog and cover images.
type BookService struct {
	books    BookStore
	reviews  ReviewStore
	requests BorrowRequestStore
	v        *validation.Validator
	log      logrus.FieldLogger
}

func NewBookService(s Stores, v *validation.Validator, log logrus.FieldLogger) *BookService {
	return &BookService{books: s.Books, reviews: s.Reviews, requests: s.BorrowRequests, v: v, log: log}
}

// List returns the whole catalog, newest first.
func (s *BookService) List(ctx context.Context) ([]model.Book, error) {
	books, err := s.books.List(ctx)
	if err != nil {
		return nil, storage("Failed to fetch books", err)
	}
	return books, nil
}

// Get returns a book with its reviews and borrow requests.
func (s *BookService) Get(ctx context.Context, id uint64) (*model.BookDetail, error) {
	b, err := s.lookup(ctx, id, "Failed to fetch book")
	if err != nil {
		return nil, err
	}
	reviews, err := s.reviews.List(ctx, repository.ReviewFilter{BookID: id})
	if err != nil {
		return nil, storage("Failed to fetch book", err)
	}
	requests, err := s.requests.List(ctx, repository.BorrowRequestFilter{BookID: id})
	if err != nil {
		return nil, storage("Failed to fetch book", err)
	}
	return &model.BookDetail{Book: *b, Reviews: reviews, BorrowRequests: requests}, nil
}

// Create validates and stores a new catalog entry.  Text fields are trimmed
// and the owner address is lower-cased before validation.
func (s *BookService) Create(ctx context.Context, in CreateBookInput) (*model.Book, error) {
	in.sanitize()
	if fields := s.v.Check(&in); fields != nil {
		return nil, invalidFields(fields)
	}

	b := &model.Book{
		Title:         in.Title,
		Description:   in.Description,
		Author:        in.Author,
		Genre:         in.Genre,
		PublishedYear: in.PublishedYear,
	}
	if in.CoverImage != "" {
		b.CoverImage = &in.CoverImage
	}
	if in.OwnerAddress != "" {
		b.OwnerAddress = &in.OwnerAddress
	}
	if err := s.books.Create(ctx, b); err != nil {
		return nil, storage("Failed to create book", err)
	}
	s.log.WithField("book_id", b.ID).Info("book created")
	return b, nil
}

// UploadCover stores imageData, a base64 data URL, as the book's cover.
// Validation runs before the book lookup so malformed input never touches
// storage.
func (s *BookService) UploadCover(ctx context.Context, id uint64, imageData string) (*model.Book, error) {
	if imageData == "" {
		return nil, invalidField("imageData", "Image data is required")
	}
	if !strings.HasPrefix(imageData, dataImagePrefix) {
		return nil, invalidField("imageData", "Invalid image format. Must be a data URL")
	}
	comma := strings.IndexByte(imageData, ',')
	if comma < 0 || comma == len(imageData)-1 {
		return nil, invalidField("imageData", "Invalid image format. Must be a data URL")
	}
	if coverTooLarge(imageData[comma+1:]) {
		return nil, invalidField("imageData", "Image too large. Maximum size is 5MB")
	}

	if _, err := s.lookup(ctx, id, "Failed to upload cover image"); err != nil {
		return nil, err
	}
	b, err := s.books.SetCoverImage(ctx, id, &imageData)
	if err != nil {
		return nil, s.coverErr(err, "Failed to upload cover image")
	}
	return b, nil
}

// DeleteCover clears the book's cover image.
func (s *BookService) DeleteCover(ctx context.Context, id uint64) (*model.Book, error) {
	if _, err := s.lookup(ctx, id, "Failed to delete cover image"); err != nil {
		return nil, err
	}
	b, err := s.books.SetCoverImage(ctx, id, nil)
	if err != nil {
		return nil, s.coverErr(err, "Failed to delete cover image")
	}
	return b, nil
}

// SeedSamples inserts the sample catalog when no book exists yet and reports
// how many books were added.
func (s *BookService) SeedSamples(ctx context.Context) (int, error) {
	n, err := s.books.Count(ctx)
	if err != nil {
		return 0, storage("Failed to count books", err)
	}
	if n > 0 {
		return 0, nil
	}
	for i, in := range sampleBooks {
		if _, err := s.Create(ctx, in); err != nil {
			return i, err
		}
	}
	return len(sampleBooks), nil
}

func (s *BookService) lookup(ctx context.Context, id uint64, failure string) (*model.Book, error) {
	b, err := s.books.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("Book not found")
	}
	if err != nil {
		return nil, storage(failure, err)
	}
	return b, nil
}

func (s *BookService) coverErr(err error, failure string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("Book not found")
	}
	return storage(failure, err)
}

// coverTooLarge reports whether the base64 payload decodes to more than
// MaxCoverBytes, estimated as len*3/4 without rounding down.
func coverTooLarge(b64 string) bool {
	return len(b64)*3 > 4*MaxCoverBytes
}

var sampleBooks = []CreateBookInput{
	{
		Title:         "The Great Adventure",
		Description:   "An epic tale of discovery and courage. Join our hero as they embark on a journey across uncharted lands, facing challenges and making allies along the way.",
		Author:        "Jane Explorer",
		Genre:         "Adventure",
		PublishedYear: 2024,
	},
	{
		Title:         "Mystery at Midnight",
		Description:   "A thrilling detective story that will keep you guessing until the very last page. When the clock strikes twelve, secrets begin to unravel.",
		Author:        "Detective Smith",
		Genre:         "Mystery",
		PublishedYear: 2023,
	},
	{
		Title:         "Future Chronicles",
		Description:   "A science fiction masterpiece exploring humanity's place among the stars. Technology, philosophy, and adventure collide in this thought-provoking tale.",
		Author:        "Dr. Nova Star",
		Genre:         "Science Fiction",
		PublishedYear: 2024,
	},
}

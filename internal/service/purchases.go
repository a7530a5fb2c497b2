package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/book-lending/internal/model"
	"github.com/iliyamo/book-lending/internal/queue"
	"github.com/iliyamo/book-lending/internal/repository"
	"github.com/iliyamo/book-lending/internal/validation"
)

// RecordPurchaseInput reports an on-chain purchase.  Amount is kept as the
// exact decimal string the client sent.
type RecordPurchaseInput struct {
	BookID       uint64 `json:"bookId" validate:"required" msg:"Missing required fields"`
	BuyerAddress string `json:"buyerAddress" validate:"required" msg:"Missing required fields"`
	Amount       string `json:"amount" validate:"required,amount" msg:"Amount must be a non-negative number"`
	TxHash       string `json:"txHash" validate:"required" msg:"Missing required fields"`
}

// PurchaseService indexes purchases by transaction hash.  The backend never
// verifies the hash on chain.
type PurchaseService struct {
	purchases PurchaseStore
	events    EventPublisher
	v         *validation.Validator
	log       logrus.FieldLogger
}

func NewPurchaseService(s Stores, events EventPublisher, v *validation.Validator, log logrus.FieldLogger) *PurchaseService {
	return &PurchaseService{purchases: s.Purchases, events: orDiscard(events), v: v, log: log}
}

// Record stores a purchase once per tx hash and returns it joined with its
// book.
func (s *PurchaseService) Record(ctx context.Context, in RecordPurchaseInput) (*model.Purchase, error) {
	in.BuyerAddress = model.NormalizeAddress(in.BuyerAddress)
	in.Amount = strings.TrimSpace(in.Amount)
	in.TxHash = strings.TrimSpace(in.TxHash)
	if in.BookID == 0 || in.BuyerAddress == "" || in.Amount == "" || in.TxHash == "" {
		return nil, invalid("Missing required fields")
	}
	if fields := s.v.Check(&in); fields != nil {
		return nil, invalidFields(fields)
	}

	_, err := s.purchases.GetByTxHash(ctx, in.TxHash)
	switch {
	case err == nil:
		return nil, conflict("Purchase already recorded")
	case !errors.Is(err, repository.ErrNotFound):
		return nil, storage("Failed to record purchase", err)
	}

	ts := now()
	p := &model.Purchase{
		ID:           fmt.Sprintf("%s-%d", in.TxHash, ts.UnixMilli()),
		BookID:       in.BookID,
		BuyerAddress: in.BuyerAddress,
		Amount:       in.Amount,
		TxHash:       in.TxHash,
		Timestamp:    ts,
	}
	if err := s.purchases.Create(ctx, p); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, conflict("Purchase already recorded")
		case errors.Is(err, repository.ErrMissingReference):
			return nil, invalidField("bookId", "Book does not exist")
		}
		return nil, storage("Failed to record purchase", err)
	}

	publish(ctx, s.events, s.log, queue.ActivityEvent{
		Type: queue.PurchaseRecorded, RefID: p.ID, BookID: p.BookID, Address: p.BuyerAddress, TxHash: p.TxHash, Amount: p.Amount,
	})
	return p, nil
}

// List returns purchases matching f, newest first, each with its book.
func (s *PurchaseService) List(ctx context.Context, f repository.PurchaseFilter) ([]model.Purchase, error) {
	out, err := s.purchases.List(ctx, f)
	if err != nil {
		return nil, storage("Failed to fetch purchases", err)
	}
	return out, nil
}

// Stats aggregates every recorded purchase.  Amounts are summed exactly.
func (s *PurchaseService) Stats(ctx context.Context) (*model.PurchaseStats, error) {
	total, buyers, err := s.purchases.Totals(ctx)
	if err != nil {
		return nil, storage("Failed to fetch purchase stats", err)
	}
	amounts, err := s.purchases.Amounts(ctx)
	if err != nil {
		return nil, storage("Failed to fetch purchase stats", err)
	}

	sum := decimal.Zero
	for _, a := range amounts {
		d, err := decimal.NewFromString(a)
		if err != nil {
			return nil, storage("Failed to fetch purchase stats", fmt.Errorf("stored amount %q: %w", a, err))
		}
		sum = sum.Add(d)
	}
	return &model.PurchaseStats{TotalPurchases: total, UniqueBuyers: buyers, TotalVolume: sum.String()}, nil
}

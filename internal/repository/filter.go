package repository

import (
	"strings"

	"github.com/iliyamo/book-lending/internal/model"
)

// Filter accumulates equality conditions that are joined with AND.  An empty
// filter matches every row.
type Filter struct {
	conds []string
	args  []any
}

// Eq adds "column = ?" bound to v.
func (f *Filter) Eq(column string, v any) {
	f.conds = append(f.conds, column+" = ?")
	f.args = append(f.args, v)
}

// Where renders the conditions as a WHERE clause with a leading space, or
// an empty string when there are none.
func (f Filter) Where() (string, []any) {
	if len(f.conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(f.conds, " AND "), f.args
}

// ReviewFilter narrows review listings.  Zero values are ignored.
type ReviewFilter struct {
	BookID      uint64
	UserAddress string
}

func (q ReviewFilter) filter() Filter {
	var f Filter
	if q.BookID != 0 {
		f.Eq("book_id", q.BookID)
	}
	if a := model.NormalizeAddress(q.UserAddress); a != "" {
		f.Eq("user_address", a)
	}
	return f
}

// Match reports whether r satisfies every set field.
func (q ReviewFilter) Match(r model.Review) bool {
	if q.BookID != 0 && r.BookID != q.BookID {
		return false
	}
	if a := model.NormalizeAddress(q.UserAddress); a != "" && r.UserAddress != a {
		return false
	}
	return true
}

// BorrowRequestFilter narrows borrow request listings.  Zero values are
// ignored.
type BorrowRequestFilter struct {
	BookID          uint64
	BorrowerAddress string
	Status          model.BorrowStatus
}

func (q BorrowRequestFilter) filter() Filter {
	var f Filter
	if q.BookID != 0 {
		f.Eq("book_id", q.BookID)
	}
	if a := model.NormalizeAddress(q.BorrowerAddress); a != "" {
		f.Eq("borrower_address", a)
	}
	if q.Status != "" {
		f.Eq("status", string(q.Status))
	}
	return f
}

func (q BorrowRequestFilter) Match(r model.BorrowRequest) bool {
	if q.BookID != 0 && r.BookID != q.BookID {
		return false
	}
	if a := model.NormalizeAddress(q.BorrowerAddress); a != "" && r.BorrowerAddress != a {
		return false
	}
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	return true
}

// PurchaseFilter narrows purchase listings.  Zero values are ignored.
type PurchaseFilter struct {
	BookID       uint64
	BuyerAddress string
}

func (q PurchaseFilter) filter() Filter {
	var f Filter
	if q.BookID != 0 {
		f.Eq("p.book_id", q.BookID)
	}
	if a := model.NormalizeAddress(q.BuyerAddress); a != "" {
		f.Eq("p.buyer_address", a)
	}
	return f
}

func (q PurchaseFilter) Match(p model.Purchase) bool {
	if q.BookID != 0 && p.BookID != q.BookID {
		return false
	}
	if a := model.NormalizeAddress(q.BuyerAddress); a != "" && p.BuyerAddress != a {
		return false
	}
	return true
}

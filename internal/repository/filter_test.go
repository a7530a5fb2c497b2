package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/book-lending/internal/model"
)

func TestFilterWhere(t *testing.T) {
	var empty Filter
	where, args := empty.Where()
	assert.Equal(t, "", where)
	assert.Nil(t, args)

	where, args = BorrowRequestFilter{BookID: 4, BorrowerAddress: " 0xABC ", Status: model.BorrowPending}.filter().Where()
	assert.Equal(t, " WHERE book_id = ? AND borrower_address = ? AND status = ?", where)
	assert.Equal(t, []any{uint64(4), "0xabc", "pending"}, args)
}

func TestFilterMatchIsConjunctive(t *testing.T) {
	r := model.Review{BookID: 1, UserAddress: "0xabc"}

	assert.True(t, ReviewFilter{}.Match(r))
	assert.True(t, ReviewFilter{BookID: 1}.Match(r))
	assert.True(t, ReviewFilter{UserAddress: "0xABC"}.Match(r))
	assert.False(t, ReviewFilter{BookID: 1, UserAddress: "0xdef"}.Match(r))
	assert.False(t, ReviewFilter{BookID: 2, UserAddress: "0xabc"}.Match(r))

	p := model.Purchase{BookID: 9, BuyerAddress: "0xbuyer"}
	assert.True(t, PurchaseFilter{BuyerAddress: "0xBUYER"}.Match(p))
	assert.False(t, PurchaseFilter{BookID: 8}.Match(p))
}

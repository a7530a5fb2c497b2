package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/book-lending/internal/repository"
)

func TestRecordPurchase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t)

	p, err := f.buys.Record(ctx, RecordPurchaseInput{BookID: b.ID, BuyerAddress: "0xBuyer", Amount: "1000000000000000000", TxHash: "0xtx1"})
	require.NoError(t, err)
	assert.Equal(t, "0xbuyer", p.BuyerAddress)
	assert.Contains(t, p.ID, "0xtx1-")
	require.NotNil(t, p.Book)
	assert.Equal(t, "Dune", p.Book.Title)

	_, err = f.buys.Record(ctx, RecordPurchaseInput{BookID: b.ID, BuyerAddress: "0xother", Amount: "1", TxHash: "0xtx1"})
	se := requireKind(t, err, KindConflict)
	assert.Equal(t, "Purchase already recorded", se.Message)
}

func TestRecordPurchaseValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t)

	_, err := f.buys.Record(ctx, RecordPurchaseInput{BookID: b.ID, BuyerAddress: "0xb", TxHash: "0xtx"})
	se := requireKind(t, err, KindValidation)
	assert.Equal(t, "Missing required fields", se.Message)

	_, err = f.buys.Record(ctx, RecordPurchaseInput{BookID: b.ID, BuyerAddress: "0xb", Amount: "-3", TxHash: "0xtx"})
	requireKind(t, err, KindValidation)

	_, err = f.buys.Record(ctx, RecordPurchaseInput{BookID: 77, BuyerAddress: "0xb", Amount: "3", TxHash: "0xtx"})
	se = requireKind(t, err, KindValidation)
	assert.Equal(t, "Book does not exist", se.Message)
}

func TestPurchaseListsAndStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b1 := f.book(t)
	b2 := f.book(t)

	inputs := []RecordPurchaseInput{
		{BookID: b1.ID, BuyerAddress: "0xa", Amount: "100000000000000000000000000000", TxHash: "0x1"},
		{BookID: b2.ID, BuyerAddress: "0xa", Amount: "5", TxHash: "0x2"},
		{BookID: b2.ID, BuyerAddress: "0xB", Amount: "0.5", TxHash: "0x3"},
	}
	for _, in := range inputs {
		_, err := f.buys.Record(ctx, in)
		require.NoError(t, err)
	}

	byBook, err := f.buys.List(ctx, repository.PurchaseFilter{BookID: b2.ID})
	require.NoError(t, err)
	require.Len(t, byBook, 2)
	assert.Equal(t, "0x3", byBook[0].TxHash)

	byBuyer, err := f.buys.List(ctx, repository.PurchaseFilter{BuyerAddress: "0xA"})
	require.NoError(t, err)
	assert.Len(t, byBuyer, 2)

	stats, err := f.buys.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalPurchases)
	assert.Equal(t, int64(2), stats.UniqueBuyers)
	assert.Equal(t, "100000000000000000000000000005.5", stats.TotalVolume)
}

func TestStatsOnEmptyStore(t *testing.T) {
	f := newFixture(t)
	stats, err := f.buys.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalPurchases)
	assert.Equal(t, "0", stats.TotalVolume)
}

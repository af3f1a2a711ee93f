package badger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiemoko/brvmwatch/internal/common"
	"github.com/tiemoko/brvmwatch/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(common.NewSilentLogger(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLedgerStorage_SeqAssignment(t *testing.T) {
	store := openTestStore(t)
	ledger := NewLedgerStorage(store, common.NewSilentLogger())
	ctx := context.Background()

	// Same timestamp on purpose: replay order must come from Seq.
	ts := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"tx-a", "tx-b", "tx-c"} {
		tx := &models.Transaction{
			ID:        id,
			UserID:    "u1",
			Ticker:    "SNTS",
			Side:      models.SideBuy,
			Quantity:  decimal.NewFromInt(int64(i + 1)),
			UnitPrice: decimal.NewFromInt(5000),
			Timestamp: ts,
		}
		_, err := ledger.AppendTransaction(ctx, tx)
		require.NoError(t, err)
		assert.Equal(t, uint64(i+1), tx.Seq)
	}

	txs, err := ledger.ListTransactions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, "tx-a", txs[0].ID)
	assert.Equal(t, "tx-b", txs[1].ID)
	assert.Equal(t, "tx-c", txs[2].ID)
}

func TestLedgerStorage_FiltersByUserAndTicker(t *testing.T) {
	store := openTestStore(t)
	ledger := NewLedgerStorage(store, common.NewSilentLogger())
	ctx := context.Background()

	rows := []struct {
		id, user, ticker string
	}{
		{"tx-1", "u1", "SNTS"},
		{"tx-2", "u1", "ETIT"},
		{"tx-3", "u2", "SNTS"},
	}
	for _, row := range rows {
		_, err := ledger.AppendTransaction(ctx, &models.Transaction{
			ID:        row.id,
			UserID:    row.user,
			Ticker:    row.ticker,
			Side:      models.SideBuy,
			Quantity:  decimal.NewFromInt(1),
			UnitPrice: decimal.NewFromInt(100),
			Timestamp: time.Now().UTC(),
		})
		require.NoError(t, err)
	}

	txs, err := ledger.ListTransactions(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, txs, 2)

	txs, err = ledger.ListTransactionsByTicker(ctx, "u1", "SNTS")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "tx-1", txs[0].ID)
}

func TestAlertRuleStorage_StateUpdate(t *testing.T) {
	store := openTestStore(t)
	rules := NewAlertRuleStorage(store, common.NewSilentLogger())
	ctx := context.Background()

	rule := &models.AlertRule{
		ID:        "r1",
		UserID:    "u1",
		Ticker:    "SNTS",
		Type:      models.RulePriceAbove,
		Threshold: 5000,
	}
	require.NoError(t, rules.SaveRule(ctx, rule))

	require.NoError(t, rules.UpdateRuleState(ctx, "r1", true, 0))

	got, err := rules.GetRule(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, got.Fired)
	assert.Equal(t, "SNTS", got.Ticker, "user-owned fields survive a state update")

	require.NoError(t, rules.UpdateRuleState(ctx, "r1", false, 2))
	got, err = rules.GetRule(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, got.Fired)
	assert.Equal(t, 2, got.ConsecutiveFailures)
}

func TestAlertRuleStorage_NotFound(t *testing.T) {
	store := openTestStore(t)
	rules := NewAlertRuleStorage(store, common.NewSilentLogger())
	ctx := context.Background()

	_, err := rules.GetRule(ctx, "missing")
	assert.True(t, errors.Is(err, models.ErrNotFound))

	err = rules.UpdateRuleState(ctx, "missing", true, 0)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestWatchlistStorage_UpsertPreservesAddedAt(t *testing.T) {
	store := openTestStore(t)
	watchlists := NewWatchlistStorage(store, common.NewSilentLogger())
	ctx := context.Background()

	first := &models.WatchlistEntry{
		Key:     models.WatchlistKey("u1", "SNTS"),
		UserID:  "u1",
		Ticker:  "SNTS",
		AddedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, watchlists.Upsert(ctx, first))

	second := &models.WatchlistEntry{
		Key:       first.Key,
		UserID:    "u1",
		Ticker:    "SNTS",
		StockName: "Sonatel",
		AddedAt:   time.Now().UTC(),
	}
	require.NoError(t, watchlists.Upsert(ctx, second))

	list, err := watchlists.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Sonatel", list[0].StockName)
	assert.True(t, list[0].AddedAt.Equal(first.AddedAt), "re-adding keeps the original AddedAt")

	require.NoError(t, watchlists.Delete(ctx, "u1", "SNTS"))
	list, err = watchlists.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMarketStorage_MergeSeries(t *testing.T) {
	store := openTestStore(t)
	market := NewMarketStorage(store, common.NewSilentLogger())
	ctx := context.Background()

	day := func(d int) time.Time { return time.Date(2025, 2, d, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, market.MergeSeries(ctx, "SNTS", models.PriceSeries{
		{Date: day(1), Close: decimal.NewFromInt(5000)},
		{Date: day(2), Close: decimal.NewFromInt(5100)},
	}))
	require.NoError(t, market.MergeSeries(ctx, "SNTS", models.PriceSeries{
		{Date: day(2), Close: decimal.NewFromInt(5150)}, // corrected close
		{Date: day(3), Close: decimal.NewFromInt(5200)},
	}))

	series, err := market.GetSeries(ctx, "SNTS", day(1), day(3))
	require.NoError(t, err)
	require.Len(t, series, 3)
	assert.True(t, series[1].Close.Equal(decimal.NewFromInt(5150)), "later merge wins on a duplicate date")

	// Range filtering.
	series, err = market.GetSeries(ctx, "SNTS", day(2), day(3))
	require.NoError(t, err)
	assert.Len(t, series, 2)
}

func TestMarketStorage_Quotes(t *testing.T) {
	store := openTestStore(t)
	market := NewMarketStorage(store, common.NewSilentLogger())
	ctx := context.Background()

	_, err := market.GetQuote(ctx, "SNTS")
	assert.True(t, errors.Is(err, models.ErrNotFound))

	require.NoError(t, market.SaveQuote(ctx, &models.Quote{
		Ticker:    "SNTS",
		Price:     decimal.NewFromInt(5000),
		Currency:  "XOF",
		FetchedAt: time.Now().UTC(),
	}))

	quote, err := market.GetQuote(ctx, "SNTS")
	require.NoError(t, err)
	assert.True(t, quote.Price.Equal(decimal.NewFromInt(5000)))
}

func TestLedgerStorage_ListUsers(t *testing.T) {
	store := openTestStore(t)
	ledger := NewLedgerStorage(store, common.NewSilentLogger())
	ctx := context.Background()

	users, err := ledger.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	for i, userID := range []string{"u2", "u1", "u2"} {
		_, err := ledger.AppendTransaction(ctx, &models.Transaction{
			ID:        fmt.Sprintf("tx-%s-%d", userID, i),
			UserID:    userID,
			Ticker:    "SNTS",
			Side:      models.SideBuy,
			Quantity:  decimal.NewFromInt(1),
			UnitPrice: decimal.NewFromInt(5000),
			Timestamp: time.Now().UTC(),
		})
		require.NoError(t, err)
	}

	users, err = ledger.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, users)
}

func TestStoreClose_Idempotent(t *testing.T) {
	store, err := NewStore(common.NewSilentLogger(), t.TempDir())
	require.NoError(t, err)

	// First close stops the GC loop and releases the database; the second
	// must be a no-op.
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}

package components

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/erp-period-closing/internal/domain/closing"
	"github.com/erp-period-closing/internal/domain/coa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemAggregator(w *memWorld) *BalanceAggregatorImpl {
	return NewBalanceAggregator(
		memPeriodRepo{w},
		staticRegistry{chart: w.chart},
		memLedger{w},
		memTrialBalanceRepo{w},
		AggregatorConfig{Currency: "IDR", Tolerance: closing.NewTolerance(closing.DefaultTolerance, nil), FiscalYearStartMonth: 1},
		newTestLogger(),
	).(*BalanceAggregatorImpl)
}

func TestBalanceAggregator_Compute(t *testing.T) {
	ctx := context.Background()

	t.Run("first period opens at zero", func(t *testing.T) {
		tc := newTestChart(t)
		w := newMemWorld(tc.chart)
		jan := january(w, tc)
		w.post(tc.cash, "999", "", date(2024, 12, 31))

		rows, err := newMemAggregator(w).Compute(ctx, jan.ID)
		require.NoError(t, err)
		require.Len(t, rows, 6)

		cash := rows[tc.cash.ID]
		assert.True(t, cash.OpeningDebit.IsZero())
		assert.True(t, cash.OpeningCredit.IsZero())
		assert.True(t, cash.PeriodDebit.Equal(d("8000000")))
		assert.True(t, cash.PeriodCredit.Equal(d("2000000")))
		assert.True(t, cash.EndingDebit.Equal(d("6000000")))
		assert.True(t, cash.EndingCredit.IsZero())
		assert.Equal(t, "IDR", cash.Currency)

		capital := rows[tc.capital.ID]
		assert.True(t, capital.EndingCredit.Equal(d("8000000")))
		assert.True(t, capital.EndingDebit.IsZero())

		untouched := rows[tc.payables.ID]
		assert.True(t, untouched.IsEmpty())
		_, hasHeader := rows[tc.assets.ID]
		assert.False(t, hasHeader)
	})

	t.Run("previous period without snapshot uses ledger history", func(t *testing.T) {
		tc := newTestChart(t)
		w := newMemWorld(tc.chart)
		january(w, tc)
		feb := w.addPeriod("2025-02", date(2025, 2, 1), date(2025, 2, 28))

		rows, err := newMemAggregator(w).Compute(ctx, feb.ID)
		require.NoError(t, err)
		assert.True(t, rows[tc.cash.ID].OpeningDebit.Equal(d("6000000")))
		assert.True(t, rows[tc.capital.ID].OpeningCredit.Equal(d("8000000")))
		assert.True(t, rows[tc.expenses.ID].YTDDebit.Equal(d("2000000")))
		assert.True(t, rows[tc.expenses.ID].PeriodDebit.IsZero())
	})

	t.Run("fiscal year boundary resets ytd", func(t *testing.T) {
		tc := newTestChart(t)
		w := newMemWorld(tc.chart)
		w.addPeriod("2024-12", date(2024, 12, 1), date(2024, 12, 31))
		jan := january(w, tc)
		w.post(tc.expenses, "500", "", date(2024, 12, 15))
		w.post(tc.cash, "", "500", date(2024, 12, 15))

		rows, err := newMemAggregator(w).Compute(ctx, jan.ID)
		require.NoError(t, err)
		assert.True(t, rows[tc.expenses.ID].OpeningDebit.Equal(d("500")))
		assert.True(t, rows[tc.expenses.ID].EndingDebit.Equal(d("2000500")))
		assert.True(t, rows[tc.expenses.ID].YTDDebit.Equal(d("2000000")))

		// balance sheet YTD is fiscal-year activity, without the carried opening
		cash := rows[tc.cash.ID]
		assert.True(t, cash.OpeningCredit.Equal(d("500")))
		assert.True(t, cash.EndingDebit.Equal(d("5999500")))
		assert.True(t, cash.YTDDebit.Equal(d("6000000")))
		assert.True(t, cash.YTDCredit.IsZero())
	})

	t.Run("idempotent", func(t *testing.T) {
		tc := newTestChart(t)
		w := newMemWorld(tc.chart)
		jan := january(w, tc)
		aggregator := newMemAggregator(w)

		first, err := aggregator.Compute(ctx, jan.ID)
		require.NoError(t, err)
		second, err := aggregator.Compute(ctx, jan.ID)
		require.NoError(t, err)

		a, err := json.Marshal(first)
		require.NoError(t, err)
		b, err := json.Marshal(second)
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b))
	})

	t.Run("movement on header account", func(t *testing.T) {
		tc := newTestChart(t)
		w := newMemWorld(tc.chart)
		jan := january(w, tc)
		w.post(tc.assets, "10", "", date(2025, 1, 5))
		w.post(tc.capital, "", "10", date(2025, 1, 5))

		_, err := newMemAggregator(w).Compute(ctx, jan.ID)
		assert.ErrorIs(t, err, coa.ErrAccountNotPosting{AccountID: tc.assets.ID})
	})

	t.Run("movement on unknown account", func(t *testing.T) {
		tc := newTestChart(t)
		w := newMemWorld(tc.chart)
		jan := january(w, tc)
		stray := newAccount("9.9", coa.AccountTypeExpense, coa.PostingTypePosting, nil)
		w.post(stray, "10", "", date(2025, 1, 5))
		w.post(tc.capital, "", "10", date(2025, 1, 5))

		_, err := newMemAggregator(w).Compute(ctx, jan.ID)
		assert.ErrorIs(t, err, coa.ErrAccountNotFound{AccountID: stray.ID})
	})

	t.Run("imbalance beyond tolerance", func(t *testing.T) {
		tc := newTestChart(t)
		w := newMemWorld(tc.chart)
		jan := january(w, tc)
		w.post(tc.cash, "0.02", "", date(2025, 1, 5))

		_, err := newMemAggregator(w).Compute(ctx, jan.ID)
		var imbalance closing.ErrImbalanceDetected
		require.ErrorAs(t, err, &imbalance)
		assert.True(t, imbalance.Delta.Equal(d("0.02")))
		assert.True(t, imbalance.Tolerance.Equal(d("0.01")))
	})

	t.Run("cancelled", func(t *testing.T) {
		tc := newTestChart(t)
		w := newMemWorld(tc.chart)
		jan := january(w, tc)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := newMemAggregator(w).Compute(cancelled, jan.ID)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("chart failure", func(t *testing.T) {
		tc := newTestChart(t)
		w := newMemWorld(tc.chart)
		jan := january(w, tc)
		chartErr := coa.ErrInvalidChart{Reason: "parent cycle"}
		aggregator := newMemAggregator(w)
		aggregator.registry = staticRegistry{err: chartErr}

		_, err := aggregator.Compute(ctx, jan.ID)
		assert.Equal(t, chartErr, err)
	})
}

func TestBalanceAggregator_ComputeAccount(t *testing.T) {
	ctx := context.Background()
	tc := newTestChart(t)
	w := newMemWorld(tc.chart)
	january(w, tc)
	feb := w.addPeriod("2025-02", date(2025, 2, 1), date(2025, 2, 28))
	w.post(tc.cash, "", "250", date(2025, 2, 2))
	w.post(tc.expenses, "250", "", date(2025, 2, 2))
	aggregator := newMemAggregator(w)

	all, err := aggregator.Compute(ctx, feb.ID)
	require.NoError(t, err)

	for _, acc := range tc.chart.PostingAccounts() {
		row, err := aggregator.ComputeAccount(ctx, feb.ID, acc.ID)
		require.NoError(t, err)
		assert.True(t, all[acc.ID].Equal(row), acc.Code)
	}

	_, err = aggregator.ComputeAccount(ctx, feb.ID, tc.assets.ID)
	assert.ErrorIs(t, err, coa.ErrAccountNotPosting{})

	_, err = aggregator.ComputeAccount(ctx, feb.ID, newAccount("x", coa.AccountTypeAsset, coa.PostingTypePosting, nil).ID)
	assert.ErrorIs(t, err, coa.ErrAccountNotFound{})
}

func TestBalanceAggregator_StoreFailure(t *testing.T) {
	ctx := context.Background()
	tc := newTestChart(t)
	w := newMemWorld(tc.chart)
	jan := january(w, tc)

	store := &MockLedgerStore{}
	storeErr := errors.New("ledger unavailable")
	store.On("SumPostedByAccount", ctx, jan.StartDate, jan.EndDate).Return(nil, storeErr)

	aggregator := newMemAggregator(w)
	aggregator.store = store

	_, err := aggregator.Compute(ctx, jan.ID)
	assert.ErrorIs(t, err, storeErr)
	store.AssertExpectations(t)
}

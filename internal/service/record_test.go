package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrack/fintrack/internal/metrics"
	"github.com/fintrack/fintrack/internal/model"
	"github.com/fintrack/fintrack/internal/repository"
	"github.com/fintrack/fintrack/internal/testutil"
)

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func seedUser(t *testing.T, store *repository.SQLite) *model.User {
	t.Helper()
	user := testutil.NewTestUser(t)
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

func TestValidateRecord(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		kind     model.Kind
		amount   *decimal.Decimal
		label    string
		category string
		wantErr  bool
	}{
		{"expense_valid", model.KindExpense, amount("12.5"), "Lunch", model.CategoryFood, false},
		{"expense_zero_amount", model.KindExpense, amount("0"), "Free", model.CategoryOther, false},
		{"expense_missing_amount", model.KindExpense, nil, "Lunch", model.CategoryFood, true},
		{"expense_negative", model.KindExpense, amount("-1"), "Lunch", model.CategoryFood, true},
		{"expense_max_scale", model.KindExpense, amount("0.00000001"), "Lunch", model.CategoryFood, false},
		{"expense_max_digits", model.KindExpense, amount("999999999999999.99"), "Lunch", model.CategoryFood, false},
		{"income_tiny_exponent", model.KindIncome, amount("1e-20000000"), "", "Salary", true},
		{"income_too_many_places", model.KindIncome, amount("0.000000001"), "", "Salary", true},
		{"income_huge_exponent", model.KindIncome, amount("1e30"), "", "Salary", true},
		{"income_too_many_digits", model.KindIncome, amount("1000000000000000"), "", "Salary", true},
		{"income_max_exponent", model.KindIncome, amount("1e2000000000"), "", "Salary", true},
		{"expense_missing_description", model.KindExpense, amount("1"), "", model.CategoryFood, true},
		{"expense_unknown_category", model.KindExpense, amount("1"), "Lunch", "Snacks", true},
		{"income_valid", model.KindIncome, amount("1000"), "", "Salary", false},
		{"income_missing_source", model.KindIncome, amount("1000"), "", "", true},
		{"investment_valid", model.KindInvestment, amount("250"), "VTI", model.InvestmentStocks, false},
		{"investment_missing_name", model.KindInvestment, amount("250"), "", model.InvestmentStocks, true},
		{"investment_unknown_type", model.KindInvestment, amount("250"), "Gold", "Metals", true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			err := validateRecord(test.kind, test.amount, test.label, test.category)
			if test.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRecordService_CreateForcesOwnerAndDefaultsDate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	owner := seedUser(t, store)
	now := time.Date(2024, time.March, 3, 10, 0, 0, 0, time.UTC)
	recorder := metrics.NewInMemory()
	svc := NewRecordService(store, recorder).WithClock(func() time.Time { return now })

	record, err := svc.Create(ctx, owner.ID, model.KindIncome, RecordInput{
		Amount:   amount("1500.25"),
		Label:    "ignored for income",
		Category: "Salary",
	})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, record.UserID)
	assert.True(t, record.Date.Equal(now))
	assert.Empty(t, record.Label)
	assert.Len(t, record.ID, 26)

	listed, err := svc.List(ctx, owner.ID, model.KindIncome)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "1500.25", listed[0].Amount.String())
	assert.Equal(t, "Salary", listed[0].Category)

	assert.EqualValues(t, 1, recorder.Snapshot().RecordsCreated["income"])
}

func TestRecordService_CreateRejectsInvalid(t *testing.T) {
	t.Parallel()

	svc := NewRecordService(newTestStore(t), nil)

	_, err := svc.Create(context.Background(), "", model.KindExpense, RecordInput{Amount: amount("1")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(context.Background(), "owner", model.Kind("loan"), RecordInput{Amount: amount("1")})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRecordService_OwnerIsolation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	u1 := seedUser(t, store)
	u2 := seedUser(t, store)
	svc := NewRecordService(store, nil)

	date := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	record, err := svc.Create(ctx, u1.ID, model.KindExpense, RecordInput{
		Amount:   amount("30"),
		Date:     &date,
		Label:    "Bus pass",
		Category: model.CategoryTransportation,
	})
	require.NoError(t, err)

	others, err := svc.List(ctx, u2.ID, model.KindExpense)
	require.NoError(t, err)
	assert.NotNil(t, others)
	assert.Empty(t, others)

	assert.ErrorIs(t, svc.Delete(ctx, u2.ID, model.KindExpense, record.ID), ErrRecordNotFound)

	mine, err := svc.List(ctx, u1.ID, model.KindExpense)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	require.NoError(t, svc.Delete(ctx, u1.ID, model.KindExpense, record.ID))
	assert.ErrorIs(t, svc.Delete(ctx, u1.ID, model.KindExpense, record.ID), ErrRecordNotFound)
}

func TestRecordService_DeleteUnknownID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	owner := seedUser(t, store)
	svc := NewRecordService(store, nil)

	assert.ErrorIs(t, svc.Delete(ctx, owner.ID, model.KindInvestment, "01HZZZZZZZZZZZZZZZZZZZZZZZ"), ErrRecordNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, owner.ID, model.KindInvestment, ""), ErrRecordNotFound)
}

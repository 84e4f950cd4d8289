package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack/fintrack/internal/metrics"
	"github.com/fintrack/fintrack/internal/model"
	"github.com/fintrack/fintrack/internal/repository"
)

const (
	maxTextLength = 200

	// Amounts carry at most 8 decimal places and 15 integer digits.
	maxAmountScale  = 8
	maxAmountDigits = 15
)

// RecordStore is the storage the RecordService needs.
type RecordStore interface {
	CreateRecord(ctx context.Context, record *model.Record) error
	ListRecordsByOwner(ctx context.Context, kind model.Kind, ownerID string) ([]*model.Record, error)
	DeleteRecordByOwner(ctx context.Context, kind model.Kind, ownerID, id string) error
}

// RecordService handles expense, income and investment records. Every
// operation is scoped to the owner id passed in by the caller.
type RecordService struct {
	store   RecordStore
	metrics metrics.Recorder
	now     func() time.Time
}

// NewRecordService creates a new RecordService.
func NewRecordService(store RecordStore, recorder metrics.Recorder) *RecordService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &RecordService{
		store:   store,
		metrics: recorder,
		now:     time.Now,
	}
}

// WithClock returns a copy of the service that reads time from now.
func (s *RecordService) WithClock(now func() time.Time) *RecordService {
	cp := *s
	cp.now = now
	return &cp
}

// RecordInput defines input for creating a record. Label is the expense
// description or investment name. Category is the expense category, the
// income source or the investment type.
type RecordInput struct {
	Amount   *decimal.Decimal
	Date     *time.Time
	Label    string
	Category string
}

// Create validates input for kind and stores a record owned by ownerID.
func (s *RecordService) Create(ctx context.Context, ownerID string, kind model.Kind, input RecordInput) (*model.Record, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrValidation)
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown record kind %q", ErrValidation, kind)
	}

	label := strings.TrimSpace(input.Label)
	category := strings.TrimSpace(input.Category)
	if err := validateRecord(kind, input.Amount, label, category); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	date := now
	if input.Date != nil && !input.Date.IsZero() {
		date = *input.Date
	}
	if !kind.RequiresLabel() {
		label = ""
	}

	record := &model.Record{
		ID:        newID(),
		UserID:    ownerID,
		Kind:      kind,
		Amount:    *input.Amount,
		Date:      date,
		Label:     label,
		Category:  category,
		CreatedAt: now,
	}

	if err := s.store.CreateRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", kind, err)
	}

	s.metrics.IncRecordCreated(string(kind))
	return record, nil
}

// List returns ownerID's records of kind, newest first.
func (s *RecordService) List(ctx context.Context, ownerID string, kind model.Kind) ([]*model.Record, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown record kind %q", ErrValidation, kind)
	}
	records, err := s.store.ListRecordsByOwner(ctx, kind, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s records: %w", kind, err)
	}
	if records == nil {
		records = []*model.Record{}
	}
	return records, nil
}

// Delete removes the record only when ownerID owns it. Records of other
// owners are reported as ErrRecordNotFound.
func (s *RecordService) Delete(ctx context.Context, ownerID string, kind model.Kind, id string) error {
	if !kind.IsValid() {
		return fmt.Errorf("%w: unknown record kind %q", ErrValidation, kind)
	}
	if id == "" {
		return ErrRecordNotFound
	}

	if err := s.store.DeleteRecordByOwner(ctx, kind, ownerID, id); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}

	s.metrics.IncRecordDeleted(string(kind))
	return nil
}

func validateRecord(kind model.Kind, amount *decimal.Decimal, label, category string) error {
	if amount == nil {
		return fmt.Errorf("%w: amount is required", ErrValidation)
	}
	if amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative", ErrValidation)
	}
	// Checked on the exponent first so oversized values are never expanded.
	if amount.Exponent() < -maxAmountScale {
		return fmt.Errorf("%w: amount must have at most %d decimal places", ErrValidation, maxAmountScale)
	}
	if int64(amount.NumDigits())+int64(amount.Exponent()) > maxAmountDigits {
		return fmt.Errorf("%w: amount must be less than 1e%d", ErrValidation, maxAmountDigits)
	}
	if len(label) > maxTextLength || len(category) > maxTextLength {
		return fmt.Errorf("%w: text fields must be at most %d characters", ErrValidation, maxTextLength)
	}

	switch kind {
	case model.KindExpense:
		if label == "" {
			return fmt.Errorf("%w: description is required", ErrValidation)
		}
		if !slices.Contains(model.ExpenseCategories, category) {
			return fmt.Errorf("%w: category must be one of %s", ErrValidation, strings.Join(model.ExpenseCategories, ", "))
		}
	case model.KindIncome:
		if category == "" {
			return fmt.Errorf("%w: source is required", ErrValidation)
		}
	case model.KindInvestment:
		if label == "" {
			return fmt.Errorf("%w: name is required", ErrValidation)
		}
		if !slices.Contains(model.InvestmentTypes, category) {
			return fmt.Errorf("%w: type must be one of %s", ErrValidation, strings.Join(model.InvestmentTypes, ", "))
		}
	}
	return nil
}

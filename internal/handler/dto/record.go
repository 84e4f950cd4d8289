package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack/fintrack/internal/model"
	"github.com/fintrack/fintrack/internal/summary"
)

// Date accepts either a calendar date (2006-01-02, read as midnight in
// summary.CalendarZone) or an RFC 3339 timestamp.
type Date struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		return nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, summary.CalendarZone); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD or RFC 3339, got %q", s)
	}
	d.Time = t
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time.Format(time.RFC3339Nano))
}

// RecordRequest is the body for creating an expense, income or investment.
// Only the fields of the target kind are read; anything else, including an
// owner id, is ignored.
type RecordRequest struct {
	Amount *decimal.Decimal `json:"amount"`
	Date   *Date            `json:"date,omitempty"`

	// Expense
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`

	// Income
	Source string `json:"source,omitempty"`

	// Investment
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
}

// Fields maps the kind specific fields onto a label and a category.
func (r RecordRequest) Fields(kind model.Kind) (label, category string) {
	switch kind {
	case model.KindExpense:
		return r.Description, r.Category
	case model.KindIncome:
		return "", r.Source
	case model.KindInvestment:
		return r.Name, r.Type
	}
	return "", ""
}

// DateValue returns the requested date or nil when none was given.
func (r RecordRequest) DateValue() *time.Time {
	if r.Date == nil || r.Date.IsZero() {
		return nil
	}
	t := r.Date.Time
	return &t
}

// RecordResponse represents a record in API responses.
type RecordResponse struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Source      string          `json:"source,omitempty"`
	Name        string          `json:"name,omitempty"`
	Type        string          `json:"type,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ToRecordResponse converts a model.Record to its kind specific JSON shape.
func ToRecordResponse(r *model.Record) RecordResponse {
	resp := RecordResponse{
		ID:        r.ID,
		UserID:    r.UserID,
		Amount:    r.Amount,
		Date:      r.Date,
		CreatedAt: r.CreatedAt,
	}
	switch r.Kind {
	case model.KindExpense:
		resp.Description = r.Label
		resp.Category = r.Category
	case model.KindIncome:
		resp.Source = r.Category
	case model.KindInvestment:
		resp.Name = r.Label
		resp.Type = r.Category
	}
	return resp
}

// ToRecordList converts records, always producing a non-nil slice.
func ToRecordList(records []*model.Record) []RecordResponse {
	out := make([]RecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, ToRecordResponse(r))
	}
	return out
}

// ToModel converts a response back into a record of kind.
func (r RecordResponse) ToModel(kind model.Kind) *model.Record {
	rec := &model.Record{
		ID:        r.ID,
		UserID:    r.UserID,
		Kind:      kind,
		Amount:    r.Amount,
		Date:      r.Date,
		CreatedAt: r.CreatedAt,
	}
	switch kind {
	case model.KindExpense:
		rec.Label = r.Description
		rec.Category = r.Category
	case model.KindIncome:
		rec.Category = r.Source
	case model.KindInvestment:
		rec.Label = r.Name
		rec.Category = r.Type
	}
	return rec
}

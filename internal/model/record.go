// Package model defines domain entities for the application.
package model

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies one of the three record collections.
type Kind string

const (
	KindExpense    Kind = "expense"
	KindIncome     Kind = "income"
	KindInvestment Kind = "investment"
)

// Kinds lists every record kind in display order.
var Kinds = []Kind{KindExpense, KindIncome, KindInvestment}

// IsValid checks if the kind is one of the known record kinds.
func (k Kind) IsValid() bool {
	return slices.Contains(Kinds, k)
}

// Collection returns the plural resource name used in URLs and tables.
func (k Kind) Collection() string {
	switch k {
	case KindExpense:
		return "expenses"
	case KindIncome:
		return "incomes"
	case KindInvestment:
		return "investments"
	default:
		return ""
	}
}

// KindFromCollection maps a plural resource name back to its Kind.
func KindFromCollection(collection string) (Kind, bool) {
	for _, k := range Kinds {
		if k.Collection() == collection {
			return k, true
		}
	}
	return "", false
}

// RequiresLabel reports whether records of this kind need a descriptive label.
func (k Kind) RequiresLabel() bool {
	return k == KindExpense || k == KindInvestment
}

// Expense categories.
const (
	CategoryFood           = "Food"
	CategoryTransportation = "Transportation"
	CategoryEntertainment  = "Entertainment"
	CategoryBills          = "Bills"
	CategoryOther          = "Other"
)

// ExpenseCategories contains all valid expense categories.
var ExpenseCategories = []string{
	CategoryFood,
	CategoryTransportation,
	CategoryEntertainment,
	CategoryBills,
	CategoryOther,
}

// Investment types.
const (
	InvestmentStocks     = "Stocks"
	InvestmentBonds      = "Bonds"
	InvestmentRealEstate = "Real Estate"
	InvestmentCrypto     = "Crypto"
	InvestmentOther      = "Other"
)

// InvestmentTypes contains all valid investment types.
var InvestmentTypes = []string{
	InvestmentStocks,
	InvestmentBonds,
	InvestmentRealEstate,
	InvestmentCrypto,
	InvestmentOther,
}

// Record is a single expense, income or investment entry.
//
// Label holds the expense description or the investment name and is empty
// for incomes. Category holds the expense category, the income source or the
// investment type.
type Record struct {
	ID        string
	UserID    string
	Kind      Kind
	Amount    decimal.Decimal
	Date      time.Time
	Label     string
	Category  string
	CreatedAt time.Time
}

// SignedAmount returns the amount as it affects net worth.
// Income is positive; expenses and investments are negative.
func (r *Record) SignedAmount() decimal.Decimal {
	if r.Kind == KindIncome {
		return r.Amount
	}
	return r.Amount.Neg()
}

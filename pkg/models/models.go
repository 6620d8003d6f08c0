package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Strategy selects how surplus cash is spread across loans.
type Strategy string

const (
	StrategyAvalanche Strategy = "avalanche" // highest APR first
	StrategySnowball  Strategy = "snowball"  // lowest balance first
)

// Normalize maps unknown or empty strategies to avalanche.
func (s Strategy) Normalize() Strategy {
	if s == StrategySnowball {
		return StrategySnowball
	}
	return StrategyAvalanche
}

// Valid reports whether s names a known strategy. The empty string is valid and means the default.
func (s Strategy) Valid() bool {
	return s == "" || s == StrategyAvalanche || s == StrategySnowball
}

type Income struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Day    int             `json:"day"`
}

type Bill struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Day      int             `json:"day"`
	Priority int             `json:"priority"` // 1-10, higher settles first; 0 means default
}

type Loan struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Balance    decimal.Decimal `json:"balance"`
	APR        decimal.Decimal `json:"apr"` // percent, e.g. 34.9
	MinPayment decimal.Decimal `json:"min_payment"`
	Day        int             `json:"day"`
}

// Goal is a savings target funded by a fixed monthly contribution. Target is informational.
type Goal struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Target  decimal.Decimal `json:"target"`
	Monthly decimal.Decimal `json:"monthly"`
}

// Plan is the full input of a one-month simulation.
type Plan struct {
	StartBalance decimal.Decimal `json:"start_balance"`
	Strategy     Strategy        `json:"strategy,omitempty"`
	Incomes      []Income        `json:"incomes"`
	Bills        []Bill          `json:"bills"`
	Loans        []Loan          `json:"loans"`
	Goals        []Goal          `json:"goals"`
}

// Clone returns a copy of p whose slices are not shared with p.
func (p Plan) Clone() Plan {
	c := p
	c.Incomes = append([]Income(nil), p.Incomes...)
	c.Bills = append([]Bill(nil), p.Bills...)
	c.Loans = append([]Loan(nil), p.Loans...)
	c.Goals = append([]Goal(nil), p.Goals...)
	return c
}

type EntryKind string

const (
	EntryKindCredit    EntryKind = "credit"
	EntryKindDebit     EntryKind = "debit"
	EntryKindShortfall EntryKind = "shortfall"
)

// EntrySource tells which obligation produced a ledger entry.
type EntrySource string

const (
	SourceIncome          EntrySource = "income"
	SourceBill            EntrySource = "bill"
	SourceLoanMinimum     EntrySource = "loan_minimum"
	SourceLoanAccelerated EntrySource = "loan_accelerated"
	SourceGoal            EntrySource = "goal"
)

type LedgerEntry struct {
	Day            int             `json:"day"`
	Kind           EntryKind       `json:"kind"`
	Source         EntrySource     `json:"source"`
	Ref            string          `json:"ref"` // id of the income, bill, loan or goal
	Label          string          `json:"label"`
	Amount         decimal.Decimal `json:"amount"`
	RunningBalance decimal.Decimal `json:"running_balance"`
}

// Signed returns the entry's effect on the cash balance.
func (e LedgerEntry) Signed() decimal.Decimal {
	switch e.Kind {
	case EntryKindCredit:
		return e.Amount
	case EntryKindDebit:
		return e.Amount.Neg()
	default:
		return decimal.Zero
	}
}

type Totals struct {
	PaidBills  decimal.Decimal `json:"paid_bills"`
	PaidLoans  decimal.Decimal `json:"paid_loans"`
	ToGoals    decimal.Decimal `json:"to_goals"`
	EndBalance decimal.Decimal `json:"end_balance"`
}

type Result struct {
	Ledger       []LedgerEntry              `json:"ledger"`
	LoanBalances map[string]decimal.Decimal `json:"loan_balances"`
	Totals       Totals                     `json:"totals"`
}

// Clone returns a deep copy of r.
func (r Result) Clone() Result {
	c := Result{
		Ledger:       append([]LedgerEntry(nil), r.Ledger...),
		LoanBalances: make(map[string]decimal.Decimal, len(r.LoanBalances)),
		Totals:       r.Totals,
	}
	for id, bal := range r.LoanBalances {
		c.LoanBalances[id] = bal
	}
	return c
}

// SavedPlan is a named plan kept in storage.
type SavedPlan struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Plan      Plan      `json:"plan"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Run records the totals of one simulation of a saved plan.
type Run struct {
	ID        uuid.UUID `json:"id"`
	PlanID    uuid.UUID `json:"plan_id"`
	Strategy  Strategy  `json:"strategy"`
	Totals    Totals    `json:"totals"`
	CreatedAt time.Time `json:"created_at"`
}

package ledger

import (
	"github.com/mcclellann/moneyflow/pkg/models"
	"github.com/shopspring/decimal"
)

// Label suffixes shown in the ledger.
const (
	minimumSuffix       = " (мин.)"
	acceleratedSuffix   = " (ускор.)"
	missedMinimumSuffix = ": не хватило на мин. платёж"
	partialSuffix       = ": частично оплачено"
)

// Share of every day's income diverted to accelerated loan payments.
var extraShare = decimal.RequireFromString("0.25")

// simulation is the working set of a single Simulate call.
type simulation struct {
	balance decimal.Decimal
	loans   *loanBook
	entries []models.LedgerEntry
}

func (s *simulation) record(day int, kind models.EntryKind, source models.EntrySource, ref, label string, amount decimal.Decimal) {
	s.entries = append(s.entries, models.LedgerEntry{
		Day:            day,
		Kind:           kind,
		Source:         source,
		Ref:            ref,
		Label:          label,
		Amount:         amount,
		RunningBalance: s.balance,
	})
}

// Simulate walks one month day by day and returns the ledger, the loan balances
// left at the end of the month and the totals derived from the ledger.
//
// Every day incomes are credited first, then the day's obligations are paid in
// order as far as cash allows. A quarter of each day's income is set aside and
// spent on even days as accelerated loan payments, ordered by plan.Strategy.
// The plan itself is never modified.
func Simulate(plan models.Plan) models.Result {
	strategy := plan.Strategy.Normalize()
	s := &simulation{
		balance: plan.StartBalance,
		loans:   newLoanBook(plan.Loans),
	}

	extra := decimal.Zero
	for _, bucket := range schedule(plan) {
		received := decimal.Zero
		for _, in := range bucket.inflows {
			s.balance = s.balance.Add(in.amount)
			received = received.Add(in.amount)
			s.record(bucket.day, models.EntryKindCredit, models.SourceIncome, in.ref, in.name, in.amount)
		}

		for _, out := range bucket.outflows {
			s.settle(bucket.day, out)
		}

		if received.IsPositive() {
			extra = extra.Add(received.Mul(extraShare).Floor())
		}
		if extra.IsPositive() && bucket.day%2 == 0 {
			extra = extra.Sub(s.paydown(bucket.day, extra, strategy))
		}
	}

	return models.Result{
		Ledger:       s.entries,
		LoanBalances: s.loans.balances(),
		Totals:       Aggregate(plan.StartBalance, s.entries),
	}
}

// settle pays one obligation as far as the cash balance allows and books a
// shortfall entry for whatever is left unpaid.
func (s *simulation) settle(day int, out outflow) {
	due := out.amount
	var loan *loanState
	if out.class == classLoanMinimum {
		loan = s.loans.get(out.ref)
		due = decimal.Min(due, loan.balance)
	}

	payable := decimal.Max(decimal.Zero, decimal.Min(s.balance, due))
	s.balance = s.balance.Sub(payable)

	switch out.class {
	case classLoanMinimum:
		loan.balance = loan.balance.Sub(payable)
		s.record(day, models.EntryKindDebit, models.SourceLoanMinimum, out.ref, out.name+minimumSuffix, payable)
		if payable.LessThan(due) {
			s.record(day, models.EntryKindShortfall, models.SourceLoanMinimum, out.ref, out.name+missedMinimumSuffix, due.Sub(payable))
		}
	default:
		source := models.SourceBill
		if out.class == classGoal {
			source = models.SourceGoal
		}
		s.record(day, models.EntryKindDebit, source, out.ref, out.name, payable)
		if payable.LessThan(due) {
			s.record(day, models.EntryKindShortfall, source, out.ref, out.name+partialSuffix, due.Sub(payable))
		}
	}
}

// paydown spends up to min(cash, extra) on loans in strategy order and
// returns the amount actually spent.
func (s *simulation) paydown(day int, extra decimal.Decimal, strategy models.Strategy) decimal.Decimal {
	budget := decimal.Min(s.balance, extra)
	spent := decimal.Zero
	for _, loan := range s.loans.candidates(strategy) {
		if !budget.IsPositive() {
			break
		}
		pay := decimal.Min(budget, loan.balance)
		loan.balance = loan.balance.Sub(pay)
		budget = budget.Sub(pay)
		spent = spent.Add(pay)
		s.balance = s.balance.Sub(pay)
		s.record(day, models.EntryKindDebit, models.SourceLoanAccelerated, loan.id, loan.name+acceleratedSuffix, pay)
	}
	return spent
}

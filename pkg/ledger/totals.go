package ledger

import (
	"github.com/mcclellann/moneyflow/pkg/models"
	"github.com/shopspring/decimal"
)

// Aggregate sums the debit entries of a ledger by source. Shortfall entries
// move no cash and are not counted. EndBalance is the last running balance,
// or start when the ledger is empty.
func Aggregate(start decimal.Decimal, entries []models.LedgerEntry) models.Totals {
	totals := models.Totals{
		PaidBills:  decimal.Zero,
		PaidLoans:  decimal.Zero,
		ToGoals:    decimal.Zero,
		EndBalance: start,
	}
	for _, e := range entries {
		totals.EndBalance = e.RunningBalance
		if e.Kind != models.EntryKindDebit {
			continue
		}
		switch e.Source {
		case models.SourceBill:
			totals.PaidBills = totals.PaidBills.Add(e.Amount)
		case models.SourceLoanMinimum, models.SourceLoanAccelerated:
			totals.PaidLoans = totals.PaidLoans.Add(e.Amount)
		case models.SourceGoal:
			totals.ToGoals = totals.ToGoals.Add(e.Amount)
		}
	}
	return totals
}

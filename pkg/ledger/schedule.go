package ledger

import (
	"sort"

	"github.com/mcclellann/moneyflow/pkg/models"
	"github.com/shopspring/decimal"
)

// Goals have no day of their own; every contribution is booked on the 25th.
const goalDay = 25

// outflowClass orders obligations inside a day: bills, then loan minimums, then goals.
type outflowClass int

const (
	classBill outflowClass = iota
	classLoanMinimum
	classGoal
)

type inflow struct {
	ref    string
	name   string
	amount decimal.Decimal
}

type outflow struct {
	class    outflowClass
	ref      string
	name     string
	amount   decimal.Decimal
	priority int
}

type dayBucket struct {
	day      int
	inflows  []inflow
	outflows []outflow
}

// schedule spreads the plan's items over the 31 day buckets.
func schedule(plan models.Plan) []dayBucket {
	days := make([]dayBucket, models.DaysInMonth)
	for i := range days {
		days[i].day = i + 1
	}

	for _, in := range plan.Incomes {
		b := &days[models.ClampDay(in.Day)-1]
		b.inflows = append(b.inflows, inflow{ref: in.ID, name: in.Name, amount: in.Amount})
	}
	for _, bill := range plan.Bills {
		b := &days[models.ClampDay(bill.Day)-1]
		b.outflows = append(b.outflows, outflow{
			class:    classBill,
			ref:      bill.ID,
			name:     bill.Name,
			amount:   bill.Amount,
			priority: models.ClampPriority(bill.Priority),
		})
	}
	for _, loan := range plan.Loans {
		b := &days[models.ClampDay(loan.Day)-1]
		b.outflows = append(b.outflows, outflow{
			class:  classLoanMinimum,
			ref:    loan.ID,
			name:   loan.Name,
			amount: loan.MinPayment,
		})
	}
	for _, goal := range plan.Goals {
		b := &days[goalDay-1]
		b.outflows = append(b.outflows, outflow{
			class:  classGoal,
			ref:    goal.ID,
			name:   goal.Name,
			amount: goal.Monthly,
		})
	}

	for i := range days {
		out := days[i].outflows
		sort.SliceStable(out, func(a, b int) bool {
			if out[a].class != out[b].class {
				return out[a].class < out[b].class
			}
			if out[a].class == classBill {
				return out[a].priority > out[b].priority
			}
			return false
		})
	}
	return days
}

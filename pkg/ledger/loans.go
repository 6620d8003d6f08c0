package ledger

import (
	"sort"

	"github.com/mcclellann/moneyflow/pkg/models"
	"github.com/shopspring/decimal"
)

type loanState struct {
	id      string
	name    string
	apr     decimal.Decimal
	balance decimal.Decimal
}

// loanBook tracks loan balances during a simulation, keyed by loan ID in
// order of first appearance. A repeated ID keeps the first loan's name and
// APR and takes the balance of the last one.
type loanBook struct {
	order []*loanState
	byID  map[string]*loanState
}

func newLoanBook(loans []models.Loan) *loanBook {
	b := &loanBook{byID: make(map[string]*loanState, len(loans))}
	for _, l := range loans {
		if st, ok := b.byID[l.ID]; ok {
			st.balance = l.Balance
			continue
		}
		st := &loanState{id: l.ID, name: l.Name, apr: l.APR, balance: l.Balance}
		b.order = append(b.order, st)
		b.byID[l.ID] = st
	}
	return b
}

func (b *loanBook) get(id string) *loanState {
	return b.byID[id]
}

// candidates returns the loans still owing money, ordered for accelerated payment.
func (b *loanBook) candidates(strategy models.Strategy) []*loanState {
	open := make([]*loanState, 0, len(b.order))
	for _, st := range b.order {
		if st.balance.IsPositive() {
			open = append(open, st)
		}
	}

	sort.SliceStable(open, func(i, j int) bool {
		x, y := open[i], open[j]
		switch strategy {
		case models.StrategySnowball:
			if c := x.balance.Cmp(y.balance); c != 0 {
				return c < 0
			}
			return x.apr.GreaterThan(y.apr)
		default:
			if c := x.apr.Cmp(y.apr); c != 0 {
				return c > 0
			}
			return x.balance.LessThan(y.balance)
		}
	})
	return open
}

func (b *loanBook) balances() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(b.order))
	for _, st := range b.order {
		out[st.id] = st.balance
	}
	return out
}

package document

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mcclellann/moneyflow/pkg/models"
	"github.com/shopspring/decimal"
)

const (
	maxNumberLength = 64
	minExponent     = -18
	maxExponent     = 15
)

// parseAmount parses a decimal literal. Literals that are too long or carry an
// exponent outside minExponent..maxExponent decode to zero, like any other
// non-numeric value.
func parseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxNumberLength {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	if exp := d.Exponent(); exp < minExponent || exp > maxExponent {
		return decimal.Zero
	}
	return d
}

// looseNumber accepts a JSON number or a numeric string. Anything else decodes to zero.
type looseNumber decimal.Decimal

func (n *looseNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			unquoted = ""
		}
		s = unquoted
	}
	*n = looseNumber(parseAmount(s))
	return nil
}

func (n looseNumber) decimal() decimal.Decimal {
	return decimal.Decimal(n)
}

// day truncates to a whole day and clamps it into the month.
func (n looseNumber) day() int {
	return models.ClampDay(n.bounded(models.DaysInMonth + 1))
}

// bounded returns the integer part, saturated to ±limit so huge inputs cannot overflow.
func (n looseNumber) bounded(limit int64) int {
	d := n.decimal()
	if d.GreaterThan(decimal.NewFromInt(limit)) {
		return int(limit)
	}
	if d.LessThan(decimal.NewFromInt(-limit)) {
		return int(-limit)
	}
	return int(d.IntPart())
}

// looseString accepts a JSON string or a number; other values decode to "".
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*s = ""
		return nil
	}
	switch data[0] {
	case '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			v = ""
		}
		*s = looseString(v)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		*s = looseString(data)
	default:
		*s = ""
	}
	return nil
}

// id returns the item id, or a fresh one when the document has none.
func (s looseString) id() string {
	if s == "" {
		return uuid.NewString()
	}
	return string(s)
}

type wireIncome struct {
	ID     looseString `json:"id"`
	Name   looseString `json:"name"`
	Amount looseNumber `json:"amount"`
	Day    looseNumber `json:"day"`
}

func (w wireIncome) model() models.Income {
	return models.Income{ID: w.ID.id(), Name: string(w.Name), Amount: w.Amount.decimal(), Day: w.Day.day()}
}

type wireBill struct {
	ID       looseString  `json:"id"`
	Name     looseString  `json:"name"`
	Amount   looseNumber  `json:"amount"`
	Day      looseNumber  `json:"day"`
	Priority *looseNumber `json:"priority"`
}

// priority defaults only a missing or null value. A present value, zero
// included, is clamped into MinPriority..MaxPriority.
func (w wireBill) priority() int {
	if w.Priority == nil {
		return models.DefaultPriority
	}
	p := w.Priority.bounded(models.MaxPriority + 1)
	if p < models.MinPriority {
		return models.MinPriority
	}
	return models.ClampPriority(p)
}

func (w wireBill) model() models.Bill {
	return models.Bill{
		ID:       w.ID.id(),
		Name:     string(w.Name),
		Amount:   w.Amount.decimal(),
		Day:      w.Day.day(),
		Priority: w.priority(),
	}
}

type wireLoan struct {
	ID         looseString `json:"id"`
	Name       looseString `json:"name"`
	Balance    looseNumber `json:"balance"`
	APR        looseNumber `json:"apr"`
	MinPayment looseNumber `json:"minPayment"`
	Day        looseNumber `json:"day"`
}

func (w wireLoan) model() models.Loan {
	return models.Loan{
		ID:         w.ID.id(),
		Name:       string(w.Name),
		Balance:    w.Balance.decimal(),
		APR:        w.APR.decimal(),
		MinPayment: w.MinPayment.decimal(),
		Day:        w.Day.day(),
	}
}

type wireGoal struct {
	ID      looseString `json:"id"`
	Name    looseString `json:"name"`
	Target  looseNumber `json:"target"`
	Monthly looseNumber `json:"monthly"`
}

func (w wireGoal) model() models.Goal {
	return models.Goal{ID: w.ID.id(), Name: string(w.Name), Target: w.Target.decimal(), Monthly: w.Monthly.decimal()}
}

// number writes a decimal as a bare JSON number.
func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

type outDocument struct {
	Incomes      []outIncome     `json:"incomes"`
	Bills        []outBill       `json:"bills"`
	Loans        []outLoan       `json:"loans"`
	Goals        []outGoal       `json:"goals"`
	StartBalance json.Number     `json:"startBalance"`
	Strategy     models.Strategy `json:"strategy,omitempty"`
}

type outIncome struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Amount json.Number `json:"amount"`
	Day    int         `json:"day"`
}

type outBill struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Amount   json.Number `json:"amount"`
	Day      int         `json:"day"`
	Priority int         `json:"priority"`
}

type outLoan struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Balance    json.Number `json:"balance"`
	APR        json.Number `json:"apr"`
	MinPayment json.Number `json:"minPayment"`
	Day        int         `json:"day"`
}

type outGoal struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Target  json.Number `json:"target"`
	Monthly json.Number `json:"monthly"`
}

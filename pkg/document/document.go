// Package document converts plans to and from the JSON document users import
// and export.
//
// The document has the top-level keys incomes, bills, loans, goals and
// startBalance (plus an optional strategy). Import is forgiving about field
// values: numbers may arrive as JSON numbers or numeric strings, and anything
// that is not a number becomes zero. Import is strict about structure: a
// document that is not a JSON object, or whose collections are not arrays, is
// rejected as a whole with a *MalformedImportError.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mcclellann/moneyflow/pkg/models"
	"github.com/shopspring/decimal"
)

// MalformedImportError reports a document that could not be parsed. The plan
// being imported into is left untouched.
type MalformedImportError struct {
	Err error
}

func (e *MalformedImportError) Error() string {
	return fmt.Sprintf("malformed import document: %v", e.Err)
}

func (e *MalformedImportError) Unwrap() error {
	return e.Err
}

func malformed(format string, args ...any) error {
	return &MalformedImportError{Err: fmt.Errorf(format, args...)}
}

// Decode parses a complete document into a new plan. Collections missing
// from the document are empty, and a missing startBalance is zero.
func Decode(data []byte) (models.Plan, error) {
	return Apply(models.Plan{StartBalance: decimal.Zero}, data)
}

// Apply imports a document onto current and returns the merged plan.
// Each collection present in the document replaces the matching collection
// of current; absent or null collections are kept. startBalance is taken only
// when it is a JSON number. On error the returned plan is current, unchanged.
func Apply(current models.Plan, data []byte) (models.Plan, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return current, &MalformedImportError{Err: err}
	}
	if raw == nil {
		return current, malformed("document is null")
	}

	next := current.Clone()

	if msg, ok := present(raw, "incomes"); ok {
		var items []wireIncome
		if err := json.Unmarshal(msg, &items); err != nil {
			return current, malformed("incomes: %w", err)
		}
		next.Incomes = make([]models.Income, 0, len(items))
		for _, it := range items {
			next.Incomes = append(next.Incomes, it.model())
		}
	}
	if msg, ok := present(raw, "bills"); ok {
		var items []wireBill
		if err := json.Unmarshal(msg, &items); err != nil {
			return current, malformed("bills: %w", err)
		}
		next.Bills = make([]models.Bill, 0, len(items))
		for _, it := range items {
			next.Bills = append(next.Bills, it.model())
		}
	}
	if msg, ok := present(raw, "loans"); ok {
		var items []wireLoan
		if err := json.Unmarshal(msg, &items); err != nil {
			return current, malformed("loans: %w", err)
		}
		next.Loans = make([]models.Loan, 0, len(items))
		for _, it := range items {
			next.Loans = append(next.Loans, it.model())
		}
	}
	if msg, ok := present(raw, "goals"); ok {
		var items []wireGoal
		if err := json.Unmarshal(msg, &items); err != nil {
			return current, malformed("goals: %w", err)
		}
		next.Goals = make([]models.Goal, 0, len(items))
		for _, it := range items {
			next.Goals = append(next.Goals, it.model())
		}
	}

	if msg, ok := present(raw, "startBalance"); ok && isJSONNumber(msg) {
		next.StartBalance = parseAmount(string(msg))
	}
	if msg, ok := present(raw, "strategy"); ok {
		var s string
		if json.Unmarshal(msg, &s) == nil {
			if st := models.Strategy(s); st != "" && st.Valid() {
				next.Strategy = st
			}
		}
	}

	return next, nil
}

// present returns the raw value of key when it exists and is not null.
func present(raw map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	msg, ok := raw[key]
	if !ok || bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
		return nil, false
	}
	return msg, true
}

func isJSONNumber(msg json.RawMessage) bool {
	msg = bytes.TrimSpace(msg)
	if len(msg) == 0 {
		return false
	}
	c := msg[0]
	return c == '-' || (c >= '0' && c <= '9')
}

// Encode renders plan as an indented document. Amounts are written as JSON
// numbers so the output can be fed back to Decode or Apply unchanged.
func Encode(plan models.Plan) ([]byte, error) {
	doc := outDocument{
		Incomes:      make([]outIncome, 0, len(plan.Incomes)),
		Bills:        make([]outBill, 0, len(plan.Bills)),
		Loans:        make([]outLoan, 0, len(plan.Loans)),
		Goals:        make([]outGoal, 0, len(plan.Goals)),
		StartBalance: number(plan.StartBalance),
		Strategy:     plan.Strategy,
	}
	for _, in := range plan.Incomes {
		doc.Incomes = append(doc.Incomes, outIncome{ID: in.ID, Name: in.Name, Amount: number(in.Amount), Day: in.Day})
	}
	for _, b := range plan.Bills {
		doc.Bills = append(doc.Bills, outBill{ID: b.ID, Name: b.Name, Amount: number(b.Amount), Day: b.Day, Priority: b.Priority})
	}
	for _, l := range plan.Loans {
		doc.Loans = append(doc.Loans, outLoan{
			ID:         l.ID,
			Name:       l.Name,
			Balance:    number(l.Balance),
			APR:        number(l.APR),
			MinPayment: number(l.MinPayment),
			Day:        l.Day,
		})
	}
	for _, g := range plan.Goals {
		doc.Goals = append(doc.Goals, outGoal{ID: g.ID, Name: g.Name, Target: number(g.Target), Monthly: number(g.Monthly)})
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return out, nil
}

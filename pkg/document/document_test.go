package document

import (
	"errors"
	"strings"
	"testing"

	"github.com/mcclellann/moneyflow/pkg/models"
	"github.com/shopspring/decimal"
)

func TestDecode_LooseValues(t *testing.T) {
	data := []byte(`{
		"incomes": [
			{"id": "i1", "name": "Зарплата", "amount": 420000, "day": 0},
			{"id": 7, "name": "Аванс", "amount": "200000", "day": 45},
			{"name": "Бонус", "amount": "много", "day": "abc"}
		],
		"bills": [
			{"id": "b1", "name": "Аренда", "amount": 180000, "day": 25, "priority": 10},
			{"id": "b2", "name": "Интернет", "amount": 6000, "day": "10"},
			{"id": "b3", "name": "Подписки", "amount": 3000, "day": 12, "priority": 99}
		],
		"loans": [
			{"id": "l1", "name": "Кредит карта", "balance": 350000, "apr": 34.9, "minPayment": 20000, "day": 27}
		],
		"goals": [
			{"id": "g1", "name": "Подушка", "target": 1000000, "monthly": null}
		],
		"startBalance": 50000
	}`)

	plan, err := Decode(data)
	if err != nil {
		t.Fatalf("Failed to decode document: %v", err)
	}

	days := []int{plan.Incomes[0].Day, plan.Incomes[1].Day, plan.Incomes[2].Day}
	if days[0] != 1 || days[1] != 31 || days[2] != 1 {
		t.Errorf("Expected clamped days [1 31 1], got %v", days)
	}
	if plan.Incomes[1].ID != "7" {
		t.Errorf("Expected numeric id to become \"7\", got %q", plan.Incomes[1].ID)
	}
	if !plan.Incomes[1].Amount.Equal(decimal.NewFromInt(200000)) {
		t.Errorf("Expected numeric string amount 200000, got %s", plan.Incomes[1].Amount)
	}
	if !plan.Incomes[2].Amount.IsZero() {
		t.Errorf("Expected non-numeric amount to become 0, got %s", plan.Incomes[2].Amount)
	}
	if plan.Incomes[2].ID == "" {
		t.Error("Expected a generated id for an income without one")
	}

	if plan.Bills[1].Day != 10 {
		t.Errorf("Expected day \"10\" to parse as 10, got %d", plan.Bills[1].Day)
	}
	if plan.Bills[1].Priority != models.DefaultPriority {
		t.Errorf("Expected default priority %d, got %d", models.DefaultPriority, plan.Bills[1].Priority)
	}
	if plan.Bills[2].Priority != models.MaxPriority {
		t.Errorf("Expected priority clamped to %d, got %d", models.MaxPriority, plan.Bills[2].Priority)
	}

	if !plan.Loans[0].APR.Equal(decimal.RequireFromString("34.9")) {
		t.Errorf("Expected APR 34.9, got %s", plan.Loans[0].APR)
	}
	if !plan.Goals[0].Monthly.IsZero() {
		t.Errorf("Expected null monthly to become 0, got %s", plan.Goals[0].Monthly)
	}
	if !plan.StartBalance.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("Expected start balance 50000, got %s", plan.StartBalance)
	}
}

func TestApply_MalformedLeavesPlanUnchanged(t *testing.T) {
	current := models.SamplePlan()

	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: `{"incomes": [`},
		{name: "garbage", data: `hello`},
		{name: "array document", data: `[1, 2, 3]`},
		{name: "null document", data: `null`},
		{name: "collection is a string", data: `{"incomes": [], "bills": "many"}`},
		{name: "item is not an object", data: `{"loans": [42]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(current, []byte(tt.data))
			var mErr *MalformedImportError
			if !errors.As(err, &mErr) {
				t.Fatalf("Expected MalformedImportError, got %v", err)
			}
			if len(got.Incomes) != len(current.Incomes) || len(got.Bills) != len(current.Bills) {
				t.Errorf("Expected plan to be unchanged on error")
			}
			if !got.StartBalance.Equal(current.StartBalance) {
				t.Errorf("Expected start balance %s, got %s", current.StartBalance, got.StartBalance)
			}
		})
	}
}

func TestApply_PartialDocument(t *testing.T) {
	current := models.SamplePlan()

	got, err := Apply(current, []byte(`{"goals": [], "bills": null, "startBalance": "1000"}`))
	if err != nil {
		t.Fatalf("Failed to apply document: %v", err)
	}

	if len(got.Goals) != 0 {
		t.Errorf("Expected goals to be replaced by an empty list, got %d", len(got.Goals))
	}
	if len(got.Bills) != len(current.Bills) {
		t.Errorf("Expected null bills to keep the current bills, got %d", len(got.Bills))
	}
	if len(got.Incomes) != len(current.Incomes) || len(got.Loans) != len(current.Loans) {
		t.Error("Expected absent collections to be kept")
	}
	if !got.StartBalance.Equal(current.StartBalance) {
		t.Errorf("Expected string startBalance to be ignored, got %s", got.StartBalance)
	}

	got, err = Apply(current, []byte(`{"startBalance": 1250.5, "strategy": "snowball"}`))
	if err != nil {
		t.Fatalf("Failed to apply document: %v", err)
	}
	if !got.StartBalance.Equal(decimal.RequireFromString("1250.5")) {
		t.Errorf("Expected start balance 1250.5, got %s", got.StartBalance)
	}
	if got.Strategy != models.StrategySnowball {
		t.Errorf("Expected strategy snowball, got %s", got.Strategy)
	}
}

func TestApply_DoesNotShareSlices(t *testing.T) {
	current := models.SamplePlan()
	got, err := Apply(current, []byte(`{"startBalance": 1}`))
	if err != nil {
		t.Fatalf("Failed to apply document: %v", err)
	}
	got.Bills[0].Name = "changed"
	if current.Bills[0].Name == "changed" {
		t.Error("Expected the imported plan not to alias the current plan")
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	plan := models.SamplePlan()

	data, err := Encode(plan)
	if err != nil {
		t.Fatalf("Failed to encode plan: %v", err)
	}

	text := string(data)
	for _, key := range []string{`"incomes"`, `"bills"`, `"loans"`, `"goals"`, `"startBalance": 50000`, `"apr": 34.9`, `"minPayment": 20000`} {
		if !strings.Contains(text, key) {
			t.Errorf("Expected encoded document to contain %s", key)
		}
	}

	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Failed to decode encoded plan: %v", err)
	}
	if len(decoded.Loans) != len(plan.Loans) || decoded.Loans[1].ID != "l2" {
		t.Errorf("Expected loans to round-trip, got %+v", decoded.Loans)
	}
	if !decoded.Loans[0].Balance.Equal(plan.Loans[0].Balance) {
		t.Errorf("Expected balance %s, got %s", plan.Loans[0].Balance, decoded.Loans[0].Balance)
	}
	if decoded.Bills[0].Priority != 10 || decoded.Bills[0].Day != 25 {
		t.Errorf("Expected bill to keep day 25 priority 10, got day %d priority %d", decoded.Bills[0].Day, decoded.Bills[0].Priority)
	}
	if decoded.Strategy != plan.Strategy {
		t.Errorf("Expected strategy %s, got %s", plan.Strategy, decoded.Strategy)
	}
}

func TestDecode_OutOfRangeAmountsBecomeZero(t *testing.T) {
	data := []byte(`{
		"incomes": [
			{"id": "i1", "amount": "1e5000000", "day": 2},
			{"id": "i2", "amount": 1e5000000, "day": 2},
			{"id": "i3", "amount": "1e-5000000", "day": 2},
			{"id": "i4", "amount": "12345678901234567890123456789012345678901234567890123456789012345", "day": 2},
			{"id": "i5", "amount": "1.5e6", "day": 2}
		],
		"startBalance": 1e400
	}`)

	plan, err := Decode(data)
	if err != nil {
		t.Fatalf("Failed to decode document: %v", err)
	}

	for _, inc := range plan.Incomes[:4] {
		if !inc.Amount.IsZero() {
			t.Errorf("Expected amount of %s to become 0, got %s", inc.ID, inc.Amount)
		}
	}
	if !plan.Incomes[4].Amount.Equal(decimal.NewFromInt(1500000)) {
		t.Errorf("Expected 1.5e6 to parse as 1500000, got %s", plan.Incomes[4].Amount)
	}
	if !plan.StartBalance.IsZero() {
		t.Errorf("Expected out-of-range start balance to become 0, got %s", plan.StartBalance)
	}
}

func TestDecode_ExplicitPriorities(t *testing.T) {
	data := []byte(`{
		"bills": [
			{"id": "zero", "amount": 100, "day": 3, "priority": 0},
			{"id": "negative", "amount": 100, "day": 3, "priority": -4},
			{"id": "null", "amount": 100, "day": 3, "priority": null},
			{"id": "missing", "amount": 100, "day": 3},
			{"id": "text", "amount": 100, "day": 3, "priority": "7"}
		]
	}`)

	plan, err := Decode(data)
	if err != nil {
		t.Fatalf("Failed to decode document: %v", err)
	}

	want := map[string]int{
		"zero":     models.MinPriority,
		"negative": models.MinPriority,
		"null":     models.DefaultPriority,
		"missing":  models.DefaultPriority,
		"text":     7,
	}
	for _, b := range plan.Bills {
		if b.Priority != want[b.ID] {
			t.Errorf("Expected priority %d for %s, got %d", want[b.ID], b.ID, b.Priority)
		}
	}
}

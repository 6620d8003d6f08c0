package models

import "github.com/shopspring/decimal"

// SamplePlan returns the demo month shown to new users.
func SamplePlan() Plan {
	d := decimal.NewFromInt
	return Plan{
		StartBalance: d(50000),
		Strategy:     StrategyAvalanche,
		Incomes: []Income{
			{ID: "i1", Name: "Зарплата", Amount: d(420000), Day: 15},
			{ID: "i2", Name: "Аванс", Amount: d(200000), Day: 1},
		},
		Bills: []Bill{
			{ID: "b1", Name: "Аренда", Amount: d(180000), Day: 25, Priority: 10},
			{ID: "b2", Name: "Коммуналка", Amount: d(25000), Day: 20, Priority: 9},
			{ID: "b3", Name: "Интернет", Amount: d(6000), Day: 10, Priority: 8},
			{ID: "b4", Name: "Подписки", Amount: d(3000), Day: 12, Priority: 5},
		},
		Loans: []Loan{
			{ID: "l1", Name: "Кредит карта", Balance: d(350000), APR: decimal.RequireFromString("34.9"), MinPayment: d(20000), Day: 27},
			{ID: "l2", Name: "Потреб кредит", Balance: d(900000), APR: d(21), MinPayment: d(35000), Day: 5},
		},
		Goals: []Goal{
			{ID: "g1", Name: "Подушка", Target: d(1000000), Monthly: d(50000)},
			{ID: "g2", Name: "Отпуск", Target: d(800000), Monthly: d(70000)},
		},
	}
}

package plan

import (
	"errors"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// BudgetStatus classifies spend against a budget.
type BudgetStatus string

const (
	StatusOverBudget BudgetStatus = "over budget"
	StatusNearLimit  BudgetStatus = "near limit"
	StatusUnder      BudgetStatus = "well under budget"
	StatusOnTrack    BudgetStatus = "on track"
)

// ErrInvalidBudget is returned when the total budget is not positive.
var ErrInvalidBudget = errors.New("total budget must be greater than zero")

// Expenses is spend per category.
type Expenses struct {
	Flights       float64 `json:"flights"`
	Hotel         float64 `json:"hotel"`
	Entertainment float64 `json:"entertainment"`
}

// Total sums every category.
func (e Expenses) Total() float64 {
	return e.Flights + e.Hotel + e.Entertainment
}

// BudgetSummary is the evaluation of expenses against a budget.
type BudgetSummary struct {
	TotalBudget     float64      `json:"totalBudget"`
	TotalExpenses   float64      `json:"totalExpenses"`
	RemainingBudget float64      `json:"remainingBudget"`
	PercentUsed     int          `json:"percentUsed"`
	Status          BudgetStatus `json:"budgetStatus"`
	Breakdown       Expenses     `json:"breakdown"`
}

// BudgetReport pairs a summary with a sentence for the user.
type BudgetReport struct {
	Summary BudgetSummary `json:"budgetSummary"`
	Message string        `json:"message"`
}

var printer = message.NewPrinter(language.English)

// EvaluateBudget compares expenses to total.
func EvaluateBudget(total float64, e Expenses) (BudgetReport, error) {
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return BudgetReport{}, ErrInvalidBudget
	}
	spent := e.Total()
	remaining := total - spent
	percent := int(math.Round(spent / total * 100))

	status := StatusOnTrack
	switch {
	case remaining < 0:
		status = StatusOverBudget
	case percent > 90:
		status = StatusNearLimit
	case percent < 50:
		status = StatusUnder
	}

	var msg string
	if remaining < 0 {
		msg = printer.Sprintf("You are %s over your budget of %s.", Money(-remaining), Money(total))
	} else {
		msg = printer.Sprintf("You have %s remaining from your budget of %s.", Money(remaining), Money(total))
	}

	return BudgetReport{
		Summary: BudgetSummary{
			TotalBudget:     total,
			TotalExpenses:   spent,
			RemainingBudget: remaining,
			PercentUsed:     percent,
			Status:          status,
			Breakdown:       e,
		},
		Message: msg,
	}, nil
}

// Money formats a dollar amount with grouping, dropping cents on whole amounts.
func Money(amount float64) string {
	if amount == math.Trunc(amount) {
		return printer.Sprintf("$%d", int64(amount))
	}
	return printer.Sprintf("$%.2f", amount)
}

// Budget evaluates the plan against its budget.
func (p *TravelPlan) Budget() (BudgetReport, error) {
	s := p.Snapshot()
	return EvaluateBudget(s.Budget, s.Expenses())
}

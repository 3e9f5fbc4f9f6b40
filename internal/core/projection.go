package core

import (
	"github.com/shopspring/decimal"
)

// SampleDays is the length of the window, from the first of the month, that
// a monthly projection extrapolates from.
const SampleDays = 7

type (
	// PayRates are the amounts paid per meal and per overtime hour.
	PayRates struct {
		MealRate     decimal.Decimal `json:"meal_rate"`
		OvertimeRate decimal.Decimal `json:"overtime_rate"`
	}

	// MonthlyInput holds the totals a monthly summary is derived from.
	MonthlyInput struct {
		Year           int             `json:"year"`
		Month          int             `json:"month"`
		WorkingDays    int             `json:"working_days"`
		Meals          int             `json:"meals"`
		OvertimeHours  decimal.Decimal `json:"overtime_hours"`
		Rates          PayRates        `json:"rates"`
		AutoCalculated bool            `json:"auto_calculated"`
	}

	// MonthlyAdjustment is a partial, user supplied change to a MonthlyInput.
	MonthlyAdjustment struct {
		WorkingDays   *int             `json:"working_days,omitempty"`
		Meals         *int             `json:"meals,omitempty"`
		OvertimeHours *decimal.Decimal `json:"overtime_hours,omitempty"`
		MealRate      *decimal.Decimal `json:"meal_rate,omitempty"`
		OvertimeRate  *decimal.Decimal `json:"overtime_rate,omitempty"`
	}

	// MonthlySummary is the pay derived from an input plus what was actually logged.
	MonthlySummary struct {
		Input       MonthlyInput `json:"input"`
		MealPay     Money        `json:"meal_pay"`
		OvertimePay Money        `json:"overtime_pay"`
		Total       Money        `json:"total"`

		LoggedDays          int             `json:"logged_days"`
		OfficeDays          int             `json:"office_days"`
		HomeDays            int             `json:"home_days"`
		OffDays             int             `json:"off_days"`
		ExtraDays           int             `json:"extra_days"`
		ActualMeals         int             `json:"actual_meals"`
		ActualOvertimeHours decimal.Decimal `json:"actual_overtime_hours"`
	}
)

func (r PayRates) Validate() error {
	if r.MealRate.IsNegative() || r.OvertimeRate.IsNegative() {
		return ErrInvalidRate
	}
	return nil
}

func (in MonthlyInput) Validate() error {
	if err := ValidateYearMonth(in.Year, in.Month); err != nil {
		return err
	}
	days := DaysIn(in.Year, in.Month)
	if in.WorkingDays < 0 || in.WorkingDays > days {
		return invalidf("working days must be between 0 and %d", days)
	}
	if in.Meals < 0 || in.Meals > days {
		return invalidf("meals must be between 0 and %d", days)
	}
	if in.OvertimeHours.IsNegative() {
		return invalid("overtime hours cannot be negative")
	}
	return in.Rates.Validate()
}

// WorkingDaysIn counts the workdays of a month under the policy.
func WorkingDaysIn(year, month int, p WorkPolicy) int {
	first := NewDate(year, month, 1)
	return countWorkdays(first, first.AddDays(DaysIn(year, month)-1), p)
}

func countWorkdays(from, to Date, p WorkPolicy) int {
	n := 0
	for d := from; !d.After(to.Time); d = d.AddDays(1) {
		if p.IsWorkday(d) {
			n++
		}
	}
	return n
}

// ProjectMonth extrapolates the first SampleDays of logs to the whole month:
// meals and overtime seen in the window are scaled by the ratio of the
// month's workdays to the window's workdays. Logs outside the month are ignored.
func ProjectMonth(year, month int, logs []WorkLog, rates PayRates, p WorkPolicy) MonthlyInput {
	first := NewDate(year, month, 1)
	sampleWorkdays := countWorkdays(first, first.AddDays(SampleDays-1), p)

	in := MonthlyInput{
		Year:           year,
		Month:          month,
		WorkingDays:    WorkingDaysIn(year, month, p),
		OvertimeHours:  decimal.Zero,
		Rates:          rates,
		AutoCalculated: true,
	}

	var sampleMeals int64
	sampleOvertime := decimal.Zero
	for _, l := range logs {
		if !l.Date.InMonth(year, month) || l.Date.Day() > SampleDays {
			continue
		}
		if l.EarnsMeal() {
			sampleMeals++
		}
		sampleOvertime = sampleOvertime.Add(l.OvertimeHours(p))
	}

	if sampleWorkdays == 0 {
		return in
	}
	month64 := decimal.NewFromInt(int64(in.WorkingDays))
	sample64 := decimal.NewFromInt(int64(sampleWorkdays))
	in.Meals = capMeals(year, month, decimal.NewFromInt(sampleMeals).Mul(month64).Div(sample64).Round(0).IntPart())
	in.OvertimeHours = sampleOvertime.Mul(month64).Div(sample64).Round(2)
	return in
}

// capMeals bounds an extrapolated meal count to one meal per calendar day.
func capMeals(year, month int, meals int64) int {
	if days := int64(DaysIn(year, month)); meals > days {
		return int(days)
	}
	return int(meals)
}

// WithWorkingDays changes the working day count. Auto-calculated meals and
// overtime are rescaled to the new count; manual values are kept.
func (in MonthlyInput) WithWorkingDays(n int) MonthlyInput {
	if n == in.WorkingDays {
		return in
	}
	if in.AutoCalculated && in.WorkingDays > 0 {
		ratioNum := decimal.NewFromInt(int64(n))
		ratioDen := decimal.NewFromInt(int64(in.WorkingDays))
		in.Meals = capMeals(in.Year, in.Month, decimal.NewFromInt(int64(in.Meals)).Mul(ratioNum).Div(ratioDen).Round(0).IntPart())
		in.OvertimeHours = in.OvertimeHours.Mul(ratioNum).Div(ratioDen).Round(2)
	}
	in.WorkingDays = n
	return in
}

// Apply merges a user adjustment. Setting meals or overtime directly turns
// the input into a manual one.
func (in MonthlyInput) Apply(adj MonthlyAdjustment) MonthlyInput {
	if adj.WorkingDays != nil {
		in = in.WithWorkingDays(*adj.WorkingDays)
	}
	if adj.Meals != nil {
		in.Meals = *adj.Meals
		in.AutoCalculated = false
	}
	if adj.OvertimeHours != nil {
		in.OvertimeHours = adj.OvertimeHours.Round(2)
		in.AutoCalculated = false
	}
	if adj.MealRate != nil {
		in.Rates.MealRate = *adj.MealRate
	}
	if adj.OvertimeRate != nil {
		in.Rates.OvertimeRate = *adj.OvertimeRate
	}
	return in
}

// Summarize derives pay totals from the input and tallies the month's logs.
func Summarize(in MonthlyInput, logs []WorkLog, p WorkPolicy) MonthlySummary {
	s := MonthlySummary{
		Input:               in,
		MealPay:             MoneyFromDecimal(in.Rates.MealRate.Mul(decimal.NewFromInt(int64(in.Meals)))),
		OvertimePay:         MoneyFromDecimal(in.Rates.OvertimeRate.Mul(in.OvertimeHours)),
		ActualOvertimeHours: decimal.Zero,
	}
	s.Total = s.MealPay.Add(s.OvertimePay)

	for _, l := range logs {
		if !l.Date.InMonth(in.Year, in.Month) {
			continue
		}
		s.LoggedDays++
		switch l.Type {
		case DayOffice:
			s.OfficeDays++
		case DayHome:
			s.HomeDays++
		case DayOff:
			s.OffDays++
		case DayExtra:
			s.ExtraDays++
		}
		if l.EarnsMeal() {
			s.ActualMeals++
		}
		s.ActualOvertimeHours = s.ActualOvertimeHours.Add(l.OvertimeHours(p))
	}
	return s
}

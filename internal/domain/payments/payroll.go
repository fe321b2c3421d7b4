package payments

import (
	"github.com/shopspring/decimal"

	"sealedger/internal/core/types"
)

var hundred = decimal.NewFromInt(100)

// StatutoryRate is a payroll deduction charged as a percentage of gross pay.
type StatutoryRate struct {
	Label   string      `json:"label"`
	Percent types.Money `json:"percent"`
}

// PayrollConfig lists the statutory deductions of the operating country.
type PayrollConfig struct {
	Rates []StatutoryRate `json:"rates"`
}

// PayrollDeduction is one computed deduction line.
type PayrollDeduction struct {
	Label  string      `json:"label"`
	Amount types.Money `json:"amount"`
}

// PayrollLine is an employee's computed pay for a period.
type PayrollLine struct {
	BaseSalary      types.Money        `json:"baseSalary"`
	Bonus           types.Money        `json:"bonus"`
	Overtime        types.Money        `json:"overtime"`
	TotalGross      types.Money        `json:"totalGross"`
	Deductions      []PayrollDeduction `json:"deductions"`
	OtherDeductions types.Money        `json:"otherDeductions"`
	TotalDeductions types.Money        `json:"totalDeductions"`
	NetPay          types.Money        `json:"netPay"`
}

// Calculate computes gross, deductions and net pay. Total deductions never
// exceed gross pay.
func (c PayrollConfig) Calculate(base types.Money, in PayrollInput) PayrollLine {
	line := PayrollLine{
		BaseSalary:      base,
		Bonus:           in.Bonus,
		Overtime:        in.Overtime,
		TotalGross:      types.SumMoney(base, in.Bonus, in.Overtime),
		OtherDeductions: in.OtherDeductions,
		Deductions:      make([]PayrollDeduction, 0, len(c.Rates)),
	}
	total := in.OtherDeductions
	for _, r := range c.Rates {
		amount := line.TotalGross.Mul(r.Percent).Div(hundred).Round(2)
		line.Deductions = append(line.Deductions, PayrollDeduction{Label: r.Label, Amount: amount})
		total = total.Add(amount)
	}
	line.TotalDeductions = types.MinMoney(total, decimal.Max(line.TotalGross, types.Zero()))
	line.NetPay = line.TotalGross.Sub(line.TotalDeductions)
	return line
}

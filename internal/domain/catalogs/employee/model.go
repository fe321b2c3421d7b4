// Package employee provides the Employee catalog used by payroll runs.
package employee

import (
	"context"

	"sealedger/internal/core/apperror"
	"sealedger/internal/core/entity"
	"sealedger/internal/core/types"
)

// Employee is a salaried worker.
type Employee struct {
	entity.Person

	Role string `json:"role,omitempty"`

	// GrossWage is the monthly base salary
	GrossWage types.Money `json:"grossWage"`

	MobileMoneyNumber string `json:"mobileMoneyNumber,omitempty"`
}

// NewEmployee creates an Employee with required fields.
func NewEmployee(firstName, lastName, siteID string, grossWage types.Money) *Employee {
	return &Employee{
		Person:    entity.Person{FirstName: firstName, LastName: lastName, SiteID: siteID},
		GrossWage: grossWage,
	}
}

// Validate implements entity.Validatable interface.
func (e *Employee) Validate(ctx context.Context) error {
	if err := e.Person.Validate(ctx); err != nil {
		return err
	}
	if e.GrossWage.IsNegative() {
		return apperror.NewFieldValidation("grossWage", "wage cannot be negative")
	}
	return nil
}

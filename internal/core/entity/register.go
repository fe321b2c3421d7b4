// Package entity provides core ledger entities shared across domain packages.
package entity

import (
	"time"

	"sealedger/internal/core/types"
)

// RecordType defines movement direction.
type RecordType string

const (
	// RecordTypeReceipt increases balance.
	RecordTypeReceipt RecordType = "receipt"
	// RecordTypeExpense decreases balance.
	RecordTypeExpense RecordType = "expense"
)

// MovementType tags why material moved (INITIAL_STOCK, EXPORT_OUT, ...).
// Each ledger declares its own allowed set.
type MovementType string

// Movement is an append-only ledger entry.
// Movements are immutable: they are never updated, only removed together with
// the record named by RelatedID and then recreated.
type Movement struct {
	ID            string       `json:"id"`
	Date          types.Date   `json:"date"`
	SiteID        string       `json:"siteId"`
	SeaweedTypeID string       `json:"seaweedTypeId"`
	Type          MovementType `json:"type"`
	Designation   string       `json:"designation"`

	// Exactly one side is populated.
	InKg    types.Quantity `json:"inKg,omitzero"`
	InBags  int            `json:"inBags,omitzero"`
	OutKg   types.Quantity `json:"outKg,omitzero"`
	OutBags int            `json:"outBags,omitzero"`

	// RelatedID is the business record that produced this movement.
	RelatedID string `json:"relatedId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// GetID implements Entity.
func (m *Movement) GetID() string { return m.ID }

// RecordType derives the direction from the populated side.
func (m *Movement) RecordType() RecordType {
	if m.OutKg > 0 || m.OutBags > 0 {
		return RecordTypeExpense
	}
	return RecordTypeReceipt
}

// SignedKg returns the weight with sign based on direction.
// Receipt = positive, Expense = negative.
func (m *Movement) SignedKg() types.Quantity {
	return m.InKg - m.OutKg
}

// SignedBags returns bag (or bale) count with sign based on direction.
func (m *Movement) SignedBags() int {
	return m.InBags - m.OutBags
}

// Inbound builds a receipt movement.
func Inbound(date types.Date, siteID, seaweedTypeID string, typ MovementType, kg types.Quantity, bags int) Movement {
	return Movement{Date: date, SiteID: siteID, SeaweedTypeID: seaweedTypeID, Type: typ, InKg: kg, InBags: bags}
}

// Outbound builds an expense movement.
func Outbound(date types.Date, siteID, seaweedTypeID string, typ MovementType, kg types.Quantity, bags int) Movement {
	return Movement{Date: date, SiteID: siteID, SeaweedTypeID: seaweedTypeID, Type: typ, OutKg: kg, OutBags: bags}
}

// Balance is the derived Σin − Σout for one (site, seaweed type) pair.
// It is computed from movements on every read and never stored.
type Balance struct {
	SiteID         string         `json:"siteId"`
	SeaweedTypeID  string         `json:"seaweedTypeId"`
	Kg             types.Quantity `json:"kg"`
	Bags           int            `json:"bags"`
	LastMovementAt types.Date     `json:"lastMovementAt"`
}

// Apply adds one movement to the balance.
func (b *Balance) Apply(m *Movement) {
	b.Kg += m.SignedKg()
	b.Bags += m.SignedBags()
	if m.Date.After(b.LastMovementAt) {
		b.LastMovementAt = m.Date
	}
}

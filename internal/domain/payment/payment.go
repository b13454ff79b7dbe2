package payment

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk-backend/internal/domain/values"
)

// MethodKind is the physical channel money moved through
type MethodKind string

const (
	MethodCash         MethodKind = "cash"
	MethodBankTerminal MethodKind = "bank_terminal"
	MethodCard         MethodKind = "card"
)

// IsValid checks if the method kind is a known value
func (k MethodKind) IsValid() bool {
	switch k {
	case MethodCash, MethodBankTerminal, MethodCard:
		return true
	default:
		return false
	}
}

// Method is one leg of a (possibly split) payment: a channel and a
// signed amount. A split payment carries several methods that must sum
// exactly to the intended total; the engine never auto-balances a split.
type Method struct {
	Kind   MethodKind   `json:"kind"`
	Amount values.Money `json:"amount"`
}

// PurposeKind is the categorical reason for a payment
type PurposeKind string

const (
	PurposeCollection      PurposeKind = "collection"
	PurposeSalary          PurposeKind = "salary"
	PurposeAgentFee        PurposeKind = "agent_fee"
	PurposeMedicalServices PurposeKind = "medical_services"
	PurposeRefund          PurposeKind = "refund"
	PurposeToBalance       PurposeKind = "to_balance"
	PurposeFromBalance     PurposeKind = "from_balance"
	PurposeEquipment       PurposeKind = "equipment"
	PurposeConsumables     PurposeKind = "consumables"
	PurposeBuilding        PurposeKind = "building"
)

// IsValid checks if the purpose kind is a known value
func (k PurposeKind) IsValid() bool {
	switch k {
	case PurposeCollection, PurposeSalary, PurposeAgentFee,
		PurposeMedicalServices, PurposeRefund, PurposeToBalance,
		PurposeFromBalance, PurposeEquipment, PurposeConsumables,
		PurposeBuilding:
		return true
	default:
		return false
	}
}

// IsExpenseCategory reports whether the kind is a user-selectable
// spending category.
func (k PurposeKind) IsExpenseCategory() bool {
	switch k {
	case PurposeEquipment, PurposeConsumables, PurposeBuilding:
		return true
	default:
		return false
	}
}

// Purpose pairs the categorical reason with a human-readable detail
// (the patient or employee name, a spending note).
type Purpose struct {
	Kind   PurposeKind `json:"kind"`
	Detail string      `json:"detail"`
}

// Payment is a durable record of money physically moving. It is
// immutable once recorded, except for the rarely used method-kind
// correction path.
type Payment struct {
	ID        uuid.UUID
	Date      time.Time
	Purpose   Purpose
	Methods   []Method
	SubjectID *uuid.UUID // the check this payment settles, if any
	CreatedBy uuid.UUID
}

// TotalAmount returns the sum of the method amounts
func (p *Payment) TotalAmount() values.Money {
	total := values.Zero()
	for _, m := range p.Methods {
		total = total.Add(m.Amount)
	}
	return total
}

// MethodsTotal sums only the methods of the given kind
func (p *Payment) MethodsTotal(kind MethodKind) values.Money {
	total := values.Zero()
	for _, m := range p.Methods {
		if m.Kind == kind {
			total = total.Add(m.Amount)
		}
	}
	return total
}

// ChangeMethodKind corrects the channel of one recorded method. This
// is the only mutation allowed on a recorded payment: the registrar
// picked the wrong terminal button and the amount itself is untouched.
func (p *Payment) ChangeMethodKind(index int, kind MethodKind) error {
	if index < 0 || index >= len(p.Methods) {
		return fmt.Errorf("method index %d out of range", index)
	}
	if !kind.IsValid() {
		return fmt.Errorf("invalid method kind: %s", kind)
	}
	p.Methods[index].Kind = kind
	return nil
}

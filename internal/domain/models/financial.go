// internal/domain/models/financial.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FinancialReport is the per-cycle ledger of an organization profile.
//
// InitialBalance is the running total and is only ever changed with $inc by
// a receipt's signed amount. The ending balance equals it; the opening
// balance is derived by backing out the receipts.
type FinancialReport struct {
	ID                    primitive.ObjectID   `bson:"_id" json:"id"`
	OrganizationProfileID primitive.ObjectID   `bson:"organization_profile_id" json:"organizationProfile"`
	InitialBalance        Money                `bson:"initial_balance" json:"initialBalance"`
	ReimbursementIDs      []primitive.ObjectID `bson:"reimbursements" json:"-"`
	DisbursementIDs       []primitive.ObjectID `bson:"disbursements" json:"-"`
	IsActive              bool                 `bson:"is_active" json:"isActive"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// ReceiptKind selects which side of the ledger a receipt lands on.
type ReceiptKind string

const (
	ReceiptReimbursement ReceiptKind = "reimbursement"
	ReceiptDisbursement  ReceiptKind = "disbursement"
)

func (k ReceiptKind) Valid() bool {
	return k == ReceiptReimbursement || k == ReceiptDisbursement
}

// Field is the report array that holds receipts of this kind.
func (k ReceiptKind) Field() string {
	if k == ReceiptDisbursement {
		return "disbursements"
	}
	return "reimbursements"
}

// Signed returns amount with the ledger sign: reimbursements add,
// disbursements subtract.
func (k ReceiptKind) Signed(amount Money) Money {
	if k == ReceiptDisbursement {
		return -amount
	}
	return amount
}

// Receipt is a single transaction backed by a Document. Amount is always
// positive; Kind carries the sign.
type Receipt struct {
	ID                primitive.ObjectID `bson:"_id" json:"id"`
	FinancialReportID primitive.ObjectID `bson:"financial_report_id" json:"financialReport"`
	Kind              ReceiptKind        `bson:"kind" json:"type"`
	Description       string             `bson:"description" json:"description"`
	Amount            Money              `bson:"amount" json:"amount"`
	ExpenseType       string             `bson:"expense_type,omitempty" json:"expenseType,omitempty"`
	Date              time.Time          `bson:"date" json:"date"`
	DocumentID        primitive.ObjectID `bson:"document_id" json:"document"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

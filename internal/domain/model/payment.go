package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"  // created at checkout; awaiting gateway outcome
	PaymentStatusApproved PaymentStatus = "approved" // gateway confirmed the charge
	PaymentStatusDeclined PaymentStatus = "declined" // gateway rejected the charge
	PaymentStatusVoided   PaymentStatus = "voided"   // gateway voided the transaction
	PaymentStatusError    PaymentStatus = "error"    // gateway reported a processing error
)

// Terminal reports whether s is one of the settled states. A payment leaves
// pending exactly once; no further transition is permitted afterwards.
func (s PaymentStatus) Terminal() bool { return s != PaymentStatusPending && s != "" }

// Approved reports whether the payment should drive subscription activation
// rather than failure (declined/voided/error).
func (s PaymentStatus) Approved() bool { return s == PaymentStatusApproved }

// Payment records one monetary transaction. The reference correlates it with
// the externally processed gateway transaction and is generated before any
// external call, never reused.
type Payment struct {
	ID            string // UUID
	UserID        string // UUID of the purchasing user
	Reference     string // unique gateway-visible correlation key
	AmountCents   int64  // sum of snapshotted plan prices, minor units
	Currency      string
	Status        PaymentStatus
	TransactionID string         // provider transaction id, set on settlement
	PaymentMethod string         // e.g. "CARD", set on settlement
	FailureReason string         // provider status message on decline/error
	RawResponse   map[string]any // opaque gateway payload kept for audit (JSONB)
	PaidAt        *time.Time     // set only when approved
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

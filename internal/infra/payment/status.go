package payment

import (
	"strings"

	"partner-subscription-platform/internal/domain/model"
)

// MapTransactionStatus translates the gateway's transaction status vocabulary
// into the ledger's. Returns false for statuses that must not settle the
// payment (e.g. the gateway echoing PENDING, or a vocabulary we don't know).
func MapTransactionStatus(external string) (model.PaymentStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(external)) {
	case "APPROVED":
		return model.PaymentStatusApproved, true
	case "DECLINED":
		return model.PaymentStatusDeclined, true
	case "VOIDED":
		return model.PaymentStatusVoided, true
	case "ERROR":
		return model.PaymentStatusError, true
	default:
		return "", false
	}
}

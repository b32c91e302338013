package payment

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// IntegritySignature computes the checkout hand-off signature the gateway
// widget verifies before accepting a payment. Field order and encoding are
// fixed by the gateway contract: reference, amount in minor units, currency,
// then the shared secret, hashed with SHA-256 and hex-encoded.
func IntegritySignature(reference string, amountCents int64, currency, secret string) string {
	h := sha256.New()
	h.Write([]byte(reference))
	h.Write([]byte(strconv.FormatInt(amountCents, 10)))
	h.Write([]byte(currency))
	h.Write([]byte(secret))
	return hex.EncodeToString(h.Sum(nil))
}

package payment

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// referencePrefix keeps gateway dashboards and support tickets greppable.
const referencePrefix = "PAY-"

// ReferenceGenerator produces unique, unguessable payment references. A ULID
// carries a millisecond timestamp component plus 80 bits of crypto/rand
// entropy, which makes the reference safe both as an idempotency key and as a
// gateway-visible field.
type ReferenceGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewReferenceGenerator() *ReferenceGenerator {
	return &ReferenceGenerator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// New returns the next reference. Monotonic entropy guarantees uniqueness
// even for multiple references generated within the same millisecond.
func (g *ReferenceGenerator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
	return referencePrefix + id.String()
}

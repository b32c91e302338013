package payment

// Event is the gateway webhook envelope. Data is kept as a raw tree: the
// signature covers nested values addressed by dotted paths, so the payload
// must survive ingestion untouched.
type Event struct {
	Event     string         `json:"event"`
	Timestamp int64          `json:"timestamp"`
	Signature EventSignature `json:"signature"`
	Data      map[string]any `json:"data"`
	SentAt    string         `json:"sent_at,omitempty"`
}

// EventSignature carries the ordered list of signed property paths. The
// checksum itself arrives in a request header; some gateways duplicate it
// here as a fallback.
type EventSignature struct {
	Properties []string `json:"properties"`
	Checksum   string   `json:"checksum,omitempty"`
}

// TransactionUpdate is the typed view of data.transaction that the ledger
// consumes. Everything else in Data stays opaque audit material.
type TransactionUpdate struct {
	ID            string
	Status        string
	StatusMessage string
	Reference     string
	AmountCents   int64
	PaymentMethod string
	Currency      string
}

// Transaction extracts the transaction fields from the event body. Returns
// false when the envelope does not carry a transaction object.
func (e *Event) Transaction() (TransactionUpdate, bool) {
	raw, ok := e.Data["transaction"].(map[string]any)
	if !ok {
		return TransactionUpdate{}, false
	}
	tu := TransactionUpdate{
		ID:            asString(raw["id"]),
		Status:        asString(raw["status"]),
		StatusMessage: asString(raw["status_message"]),
		Reference:     asString(raw["reference"]),
		PaymentMethod: asString(raw["payment_method_type"]),
		Currency:      asString(raw["currency"]),
	}
	if f, ok := raw["amount_in_cents"].(float64); ok {
		tu.AmountCents = int64(f)
	}
	return tu, tu.Reference != "" && tu.Status != ""
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

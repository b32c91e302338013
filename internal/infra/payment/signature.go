package payment

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
)

// VerifyEventSignature reports whether the webhook event authentically
// originates from the gateway. For each signed property path, in the order
// stated by the event itself, the nested value is resolved from the event
// body and canonicalized; the concatenation of all values, the event
// timestamp, and the shared secret is hashed with SHA-256 and hex-encoded.
// The event is authentic iff that digest equals the header checksum.
//
// A malformed event (any panic during resolution) is a verification failure,
// never a propagated error. The final comparison is constant-time.
func VerifyEventSignature(evt *Event, secret, checksum string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	if evt == nil || checksum == "" {
		return false
	}

	var sb strings.Builder
	for _, path := range evt.Signature.Properties {
		sb.WriteString(canonicalize(resolvePath(evt.Data, path)))
	}
	sb.WriteString(strconv.FormatInt(evt.Timestamp, 10))
	sb.WriteString(secret)

	sum := sha256.Sum256([]byte(sb.String()))
	digest := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(digest), []byte(strings.ToLower(checksum))) == 1
}

// resolvePath navigates a tree of named fields by dotted path. Missing
// segments resolve to nil, which canonicalizes to the empty string.
func resolvePath(tree map[string]any, path string) any {
	var cur any = tree
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[seg]
	}
	return cur
}

// canonicalize renders a resolved value as the deterministic string form the
// gateway signs. JSON numbers arrive as float64; integral values must render
// without a decimal point (amounts in cents are integers on the wire).
func canonicalize(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		// Non-scalar: canonical JSON form (encoding/json sorts map keys).
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// droppedKeys are metadata keys removed entirely before a record is written
// (spec.md §4.7): never logged, hashed, or otherwise retained.
var droppedKeys = []string{"password", "token", "secret", "key"}

// hashedKeys are metadata keys whose value is replaced by a "<key>_hash"
// entry holding the first 16 hex characters of its SHA-256 digest.
var hashedKeys = []string{"email", "phone", "name", "customer_name", "attendee_email"}

// SanitizeMetadata implements spec.md §4.7's metadata sanitization: drop any
// key containing a sensitive substring, hash any key matching a PII field
// name, and pass everything else through unchanged.
func SanitizeMetadata(metadata map[string]any) map[string]any {
	if metadata == nil {
		return nil
	}
	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		lower := strings.ToLower(k)
		if containsAny(lower, droppedKeys) {
			continue
		}
		if matchesAny(lower, hashedKeys) {
			if s, ok := v.(string); ok {
				out[k+"_hash"] = HashPII(s)
				continue
			}
		}
		out[k] = v
	}
	return out
}

// HashPII returns the first 16 hex characters of the SHA-256 digest of v,
// the canonical form of an AuditEvent.data_hash (spec.md §3, §4.7).
func HashPII(v string) string {
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])[:16]
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func matchesAny(s string, candidates []string) bool {
	for _, c := range candidates {
		if s == c || strings.Contains(s, c) {
			return true
		}
	}
	return false
}

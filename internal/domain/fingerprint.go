package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint maps an identity string to a stable hex digest. The digest is
// the permanent dedup key for a record: identical content re-fetched on a
// later day hashes to the same value across runs and processes.
func Fingerprint(identity string) string {
	sum := sha256.Sum256([]byte(identity))
	return hex.EncodeToString(sum[:])
}

// Identity builds the provider-scoped identity string hashed by Fingerprint.
// The source prefix keeps the same text attributed to two different providers
// (or products) as two distinct facts.
func Identity(source, scope, text string) string {
	return source + ":" + scope + ":" + strings.TrimSpace(text)
}

// DedupKey computes the record's permanent store key. Pain records are scoped
// by the product they complain about, everything else by category, so the
// same wording about two products never collides.
func (r Record) DedupKey() string {
	scope := string(r.Category)
	if product, ok := r.Extra["product"].(string); ok && product != "" {
		scope = product
	}
	return Fingerprint(Identity(r.Source, scope, r.Title+" | "+r.Body))
}

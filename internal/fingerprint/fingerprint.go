package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
)

// NormalizeCap bounds how much of a line is considered for identity.
// Pathological lines beyond this prefix do not affect the fingerprint.
const NormalizeCap = 4000

// Masking patterns, applied in a fixed order. UUID and timestamp must run
// before the generic integer mask or their digit runs would be consumed
// piecemeal.
var (
	uuidRe = regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`)
	hexRe  = regexp.MustCompile(`\b0[xX][0-9a-fA-F]+\b`)
	ipRe   = regexp.MustCompile(`\b\d{1,3}(?:\.\d{1,3}){3}\b`)
	tsRe   = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}[Tt ]\d{2}:\d{2}:\d{2}(?:[.,]\d+)?(?:Z|[+-]\d{2}:?\d{2})?`)
	numRe  = regexp.MustCompile(`\b\d+\b`)
)

// Normalize maps a raw log line to its canonical form: volatile tokens
// (UUIDs, 0x hex blobs, IPv4 addresses, ISO-8601 timestamps, decimal runs)
// are replaced by stable placeholders. Pure; always returns a string.
func Normalize(raw string) string {
	if len(raw) > NormalizeCap {
		raw = raw[:NormalizeCap]
	}
	s := uuidRe.ReplaceAllString(raw, "<uuid>")
	s = hexRe.ReplaceAllString(s, "<hex>")
	s = ipRe.ReplaceAllString(s, "<ip>")
	s = tsRe.ReplaceAllString(s, "<ts>")
	s = numRe.ReplaceAllString(s, "<num>")
	return s
}

// Fingerprint returns the hex SHA-256 digest of the normalized line.
// Deterministic across processes; two lines differing only in volatile
// tokens share a fingerprint.
func Fingerprint(raw string) string {
	sum := sha256.Sum256([]byte(Normalize(raw)))
	return hex.EncodeToString(sum[:])
}

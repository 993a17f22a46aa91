package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// Key derives a deterministic 24-hex-char fingerprint from an operation
// name and a structured input. Fields are serialised with keys sorted
// lexicographically, so maps that differ only in insertion order hash to
// the same key. Collision risk at 96 bits is acceptable for a cache of
// this size.
func Key(operation string, fields map[string]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	h.Write([]byte(operation))
	h.Write([]byte(":"))
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte("="))
		h.Write([]byte(fields[name]))
		h.Write([]byte(";"))
	}
	return hex.EncodeToString(h.Sum(nil))[:24]
}

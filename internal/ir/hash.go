package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
)

// DomainValue prefixes value hashes. The version suffix allows migrating
// the canonical form later without colliding with old digests.
const DomainValue = "jsondb/value/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns a stable hex digest of a document value.
// Values that are Equal hash equally: integral floats hash as ints.
func Hash(v any) (string, error) {
	canonical, err := MarshalCanonical(hashForm(v))
	if err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	return hashWithDomain(DomainValue, canonical), nil
}

// MustHash is like Hash but panics on error. Use only with known-good values.
func MustHash(v any) string {
	h, err := Hash(v)
	if err != nil {
		panic(err)
	}
	return h
}

func hashForm(v any) any {
	switch val := v.(type) {
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1<<53 {
			return int64(val)
		}
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = hashForm(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = hashForm(elem)
		}
		return out
	}
	return v
}

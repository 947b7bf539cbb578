// Package codes issues the short keypad credentials that gate locker access.
package codes

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Generate returns a random lowercase hex string of exactly length characters.
// Hex tokens are short and easy to read on a keypad. The randomness comes from
// crypto/rand because the codes gate physical access; if the entropy source is
// unavailable the call panics rather than degrading to a weaker source.
func Generate(length int) string {
	if length <= 0 {
		panic(fmt.Sprintf("codes: invalid code length %d", length))
	}

	buf := make([]byte, (length+1)/2)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("codes: entropy source failed: %v", err))
	}

	return hex.EncodeToString(buf)[:length]
}

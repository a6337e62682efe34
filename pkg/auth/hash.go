// Package auth holds the two identity providers: the Mojang session-server
// verifier and the locally-signed token service, plus the session-hash
// challenge they hinge on.
package auth

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// GenerateSessionHash returns a fresh hex-encoded 20-byte challenge for the
// Mojang handshake.
func GenerateSessionHash() (string, error) {
	var b [20]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	// Ignore one bit so downstream systems never see a '-' sign.
	b[0] &= 0x7f
	return EncodeSessionHash(b), nil
}

// EncodeSessionHash renders b as lowercase hex with leading zero nibbles
// suppressed, the way Minecraft clients hash server ids. All-zero input
// encodes as "0".
func EncodeSessionHash(b [20]byte) string {
	const alphabet = "0123456789abcdef"

	var buf strings.Builder
	buf.Grow(40)
	skipping := true
	for _, by := range b {
		for _, nib := range [2]byte{by >> 4, by & 0x0f} {
			if nib != 0 {
				skipping = false
			}
			if !skipping {
				buf.WriteByte(alphabet[nib])
			}
		}
	}

	if buf.Len() == 0 {
		return "0"
	}
	return buf.String()
}

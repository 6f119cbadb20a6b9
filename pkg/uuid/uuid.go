// Package uuid provides UUID v7 generation for trace and generation ids.
// UUID v7 is timestamp-prefixed, so ids sort chronologically — which keeps
// the sqlite primary-key index append-mostly.
package uuid

import (
	"crypto/rand"
	"fmt"
	"time"
)

// UUID is a 16-byte UUID v7 identifier.
type UUID [16]byte

// NewV7 generates a new UUID v7 (draft-ietf-uuidrev-rfc4122bis):
// 48 bits of UNIX milliseconds, then version/variant bits, then randomness
// from crypto/rand.
func NewV7() UUID {
	var u UUID

	ms := time.Now().UnixMilli()
	u[0] = byte(ms >> 40)
	u[1] = byte(ms >> 32)
	u[2] = byte(ms >> 24)
	u[3] = byte(ms >> 16)
	u[4] = byte(ms >> 8)
	u[5] = byte(ms)

	// Random tail; crypto/rand.Read does not fail on supported platforms.
	_, _ = rand.Read(u[6:])

	// Version 7 in the high nibble of byte 6, RFC 4122 variant in byte 8.
	u[6] = 0x70 | (u[6] & 0x0f)
	u[8] = 0x80 | (u[8] & 0x3f)

	return u
}

// String returns the canonical form: xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx.
func (u UUID) String() string {
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		u[0:4],
		u[4:6],
		u[6:8],
		u[8:10],
		u[10:16],
	)
}

// Package ident provides 128-bit, time-ordered entity identifiers.
//
// IDs are UUIDv7 values: the high 48 bits carry the creation time in
// milliseconds since the Unix epoch, the rest is random. They sort by
// creation time and are treated as collision-free in practice.
package ident

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Size is the identifier width in bytes.
const Size = 16

var (
	// ErrInvalidID reports a string that does not decode to 16 bytes.
	ErrInvalidID = errors.New("ident: invalid id")

	// Zero is the all-zero identifier. It never names a live entity.
	Zero ID
)

// ID is a 128-bit time-ordered identifier, stored as raw bytes so it can
// key maps directly without string formatting on hot paths.
type ID [Size]byte

// New generates a fresh identifier for the current wall-clock time.
func New() ID {
	u, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails if the entropy source does; retry once and
		// fall back to the pseudo-random pool uuid keeps internally.
		u, err = uuid.NewV7()
		if err != nil {
			u = uuid.New()
		}
	}
	return ID(u)
}

// Time returns the embedded creation time in milliseconds since the epoch.
func (id ID) Time() int64 {
	return int64(id[0])<<40 | int64(id[1])<<32 | int64(id[2])<<24 |
		int64(id[3])<<16 | int64(id[4])<<8 | int64(id[5])
}

// IsZero reports whether the identifier is the zero value.
func (id ID) IsZero() bool {
	return id == Zero
}

// Bytes returns the raw identifier bytes.
func (id ID) Bytes() [Size]byte {
	return id
}

// String renders the identifier as 32 lowercase hex characters.
// Parse(id.String()) round-trips losslessly.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// Parse decodes the 32-character hex form produced by String.
func Parse(s string) (ID, error) {
	if len(s) != Size*2 {
		return Zero, fmt.Errorf("%w: length %d", ErrInvalidID, len(s))
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	var id ID
	copy(id[:], raw)
	return id, nil
}

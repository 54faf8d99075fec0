package kdbxml

import (
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
)

// UUID is a group/entry identifier. On the wire it's the same thing KDBX
// has always used: 16 raw bytes, base64-encoded as XML text. Generation
// goes through google/uuid rather than a bare crypto/rand.Read(16) call so
// the 16 bytes this codec hands out are version-4 UUIDs indistinguishable
// from ones any other UUID-aware tool in the ecosystem would produce.
type UUID [16]byte

// NewUUID returns a new randomly generated UUID.
func NewUUID() UUID {
	var u UUID
	copy(u[:], uuid.New()[:])
	return u
}

func (u UUID) MarshalText() ([]byte, error) {
	out := make([]byte, base64.StdEncoding.EncodedLen(16))
	base64.StdEncoding.Encode(out, u[:])
	return out, nil
}

func (u *UUID) UnmarshalText(text []byte) error {
	decoded := make([]byte, base64.StdEncoding.DecodedLen(len(text)))
	n, err := base64.StdEncoding.Decode(decoded, text)
	if err != nil {
		return err
	}
	if n == 0 {
		*u = NewUUID()
		return nil
	}
	if n != 16 {
		return fmt.Errorf("kdbxml: UUID must decode to 16 bytes, got %d", n)
	}
	copy(u[:], decoded[:16])
	return nil
}

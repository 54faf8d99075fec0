// Package bytesutil holds the small, leaf-level byte helpers the codec
// builds on: little-endian fixed-width codecs, one-shot SHA-256, constant
// time comparison, and best-effort zeroing of key material.
package bytesutil

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
)

// PutUint32 returns the little-endian encoding of v.
func PutUint32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// Uint32 decodes a little-endian uint32 from the front of b.
func Uint32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

// PutUint64 returns the little-endian encoding of v.
func PutUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

// Uint64 decodes a little-endian uint64 from the front of b.
func Uint64(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}

// Concat returns a fresh slice holding the concatenation of parts, in order.
func Concat(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Sum256 returns the SHA-256 digest of data as a slice (not an array), so
// callers can feed it straight into Concat without a manual slicing step.
func Sum256(data ...[]byte) []byte {
	h := sha256.New()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

// ConstantTimeEqual reports whether a and b hold the same bytes, in time
// independent of where they first differ. Used for the stream-start-bytes
// integrity probe, where a data-dependent early return would leak timing
// information about the secret being checked.
func ConstantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

// Zero overwrites b with zeros in place. It does not guarantee the compiler
// won't have already copied the underlying bytes elsewhere, but it removes
// the one copy we control from memory as soon as it is no longer needed.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

package kdbx

import "github.com/packetops/openkeepass/crypto"

// TreeCodec decouples the header/crypto/block machinery in this package
// from any particular in-memory document model. A caller supplies one to
// Open/Write so this package never has to import encoding/xml itself; the
// kdbxml package provides a reference implementation bound to the standard
// KDBX group/entry/history schema.
type TreeCodec interface {
	// Unmarshal parses the plaintext (post-decompression) XML payload into
	// a Tree. The returned Tree's protected fields still hold raw,
	// stream-ciphered bytes; UnlockProtectedFields turns them into
	// plaintext.
	Unmarshal(data []byte) (Tree, error)

	// Marshal serializes tree back into the plaintext XML payload. The
	// tree's protected fields must already hold stream-ciphered bytes;
	// callers run LockProtectedFields before calling Marshal.
	Marshal(tree Tree) ([]byte, error)
}

// Tree is the minimal surface this package needs from a parsed document:
// access to every protected field, in a stable, deterministic order.
type Tree interface {
	ProtectedFields() []ProtectedField
}

// ProtectedField is one XML leaf value stored under Salsa20 protection
// (passwords, and any other field whose XML attribute marks it Protected).
// Its Value/SetValue pair deals in raw bytes; base64 encoding between that
// byte slice and the XML text node is the TreeCodec implementation's
// concern, not this package's.
type ProtectedField interface {
	Value() []byte
	SetValue([]byte)
}

// UnlockProtectedFields replaces every protected field's stream-ciphered
// bytes with plaintext, in the order ProtectedFields returns them. It is a
// pure transformation: every field's ciphertext is read before any field's
// plaintext is written back, so a document whose ProtectedFields order
// isn't a simple forward walk (such as one the caller mutates mid-pass)
// can't desynchronize the keystream the way an interleaved
// read-then-write-immediately loop would.
func UnlockProtectedFields(fields []ProtectedField, protectedStreamKey []byte) {
	stream := crypto.NewSalsaStream(protectedStreamKey)

	ciphertexts := make([][]byte, len(fields))
	for i, f := range fields {
		ciphertexts[i] = f.Value()
	}

	plaintexts := make([][]byte, len(fields))
	for i, ct := range ciphertexts {
		plaintexts[i] = stream.XOR(ct)
	}

	for i, f := range fields {
		f.SetValue(plaintexts[i])
	}
}

// LockProtectedFields is UnlockProtectedFields' inverse: it replaces every
// protected field's plaintext bytes with stream-ciphered bytes, in the
// same order and with the same pure read-all-then-write-all discipline.
func LockProtectedFields(fields []ProtectedField, protectedStreamKey []byte) {
	stream := crypto.NewSalsaStream(protectedStreamKey)

	plaintexts := make([][]byte, len(fields))
	for i, f := range fields {
		plaintexts[i] = f.Value()
	}

	ciphertexts := make([][]byte, len(fields))
	for i, pt := range plaintexts {
		ciphertexts[i] = stream.XOR(pt)
	}

	for i, f := range fields {
		f.SetValue(ciphertexts[i])
	}
}

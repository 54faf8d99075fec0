package kdbx

import "fmt"

// Kind classifies why an Open or Write call failed. Callers branch on Kind
// rather than on error string content — wrong-password (CannotDecrypt) is
// recoverable by retrying with different credentials, CorruptHeader is not.
type Kind string

const (
	// InvalidArgument marks a programmer error: nil or contradictory
	// caller inputs, never a property of the file being read or written.
	InvalidArgument Kind = "invalid_argument"

	// UnsupportedVersion means the file's magic matched but its major
	// version is not 3 (this codec reads and writes KDBX v2 only).
	UnsupportedVersion Kind = "unsupported_version"

	// CorruptHeader means the header was truncated, had a duplicate
	// field, or was missing a required field.
	CorruptHeader Kind = "corrupt_header"

	// CannotDecrypt covers both a PKCS#7 padding failure and a
	// stream-start-bytes mismatch. The two are never distinguished: both
	// indicate a wrong password, a wrong key file, or tampering, and
	// telling them apart would turn this into a padding oracle.
	CannotDecrypt Kind = "cannot_decrypt"

	// CorruptBlock means a hashed block's index or SHA-256 did not match
	// what was expected.
	CorruptBlock Kind = "corrupt_block"

	// DecompressionError means GZIP decoding failed on data that had
	// already passed decryption and block-integrity checks.
	DecompressionError Kind = "decompression_error"

	// InvalidKeyFile means the key-file bytes were not a well-formed XML
	// key-file and not usable as a raw key-file either.
	InvalidKeyFile Kind = "invalid_key_file"

	// UnsupportedCipher means the header named a cipher UUID or inner
	// stream ID other than AES / Salsa20.
	UnsupportedCipher Kind = "unsupported_cipher"

	// WriteValidationError means the tree handed to Write had no Meta or
	// no root Group to serialize.
	WriteValidationError Kind = "write_validation_error"
)

// Unreadable wraps every failure on the read path (Open, Header) in a
// single error type carrying a Kind and the underlying cause.
type Unreadable struct {
	Kind Kind
	Err  error
}

func (e *Unreadable) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("kdbx: unreadable: %s", e.Kind)
	}
	return fmt.Sprintf("kdbx: unreadable: %s: %v", e.Kind, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *Unreadable) Unwrap() error { return e.Err }

// Unwriteable wraps every failure on the write path (Write) in a single
// error type carrying a Kind and the underlying cause.
type Unwriteable struct {
	Kind Kind
	Err  error
}

func (e *Unwriteable) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("kdbx: unwriteable: %s", e.Kind)
	}
	return fmt.Sprintf("kdbx: unwriteable: %s: %v", e.Kind, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *Unwriteable) Unwrap() error { return e.Err }

// Package crypto holds the two cipher contexts the KDBX format composes:
// an outer AES-256-CBC block cipher guarding the whole payload, and an
// inner Salsa20 stream cipher guarding individual protected strings inside
// the decrypted XML. Both are thin wrappers over the standard library,
// except Salsa20, which KDBX needs in a resumable, byte-granular form the
// standard library doesn't expose (see the doc comment on SalsaStream).
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// ErrBadPadding is returned when a decrypted buffer's PKCS#7 padding is
// malformed. Per the format's error model this is never reported on its
// own; callers fold it into a single "wrong password or corrupt file"
// outcome alongside a stream-start-bytes mismatch.
var ErrBadPadding = fmt.Errorf("crypto: invalid PKCS#7 padding")

// CBC performs one-shot AES-256-CBC encryption and decryption of an
// in-memory buffer, with PKCS#7 padding applied on encrypt and stripped on
// decrypt. It holds no state across calls.
type CBC struct {
	block cipher.Block
	iv    []byte
}

// NewCBC builds a CBC engine from a 32-byte key and 16-byte IV.
func NewCBC(key, iv []byte) (*CBC, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("crypto: IV must be %d bytes, got %d", aes.BlockSize, len(iv))
	}
	return &CBC{block: block, iv: iv}, nil
}

// Encrypt pads data with PKCS#7 to a block-size multiple and returns its
// CBC encryption.
func (c *CBC) Encrypt(data []byte) []byte {
	padded := pkcs7Pad(data, aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, c.iv).CryptBlocks(out, padded)
	return out
}

// Decrypt reverses Encrypt: it CBC-decrypts data and strips PKCS#7 padding.
// A malformed padding byte count is reported as ErrBadPadding.
func (c *CBC) Decrypt(data []byte) ([]byte, error) {
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, ErrBadPadding
	}
	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(c.block, c.iv).CryptBlocks(out, data)
	return pkcs7Unpad(out, aes.BlockSize)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padding := bytes.Repeat([]byte{byte(padLen)}, padLen)
	return append(append([]byte{}, data...), padding...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	n := len(data)
	if n == 0 {
		return nil, ErrBadPadding
	}
	padLen := int(data[n-1])
	if padLen == 0 || padLen > blockSize || padLen > n {
		return nil, ErrBadPadding
	}
	for _, b := range data[n-padLen:] {
		if int(b) != padLen {
			return nil, ErrBadPadding
		}
	}
	return data[:n-padLen], nil
}

// ECBRounds runs the KDBX key transform's inner loop: rounds iterations of
// AES encryption, keyed by seed, applied to state as two independent
// 16-byte blocks (no chaining, no IV, no padding — genuine ECB usage as the
// format specifies it). state is mutated in place and also returned.
func ECBRounds(seed, state []byte, rounds uint64) ([]byte, error) {
	block, err := aes.NewCipher(seed)
	if err != nil {
		return nil, err
	}
	if len(state) != 32 {
		return nil, fmt.Errorf("crypto: transform state must be 32 bytes, got %d", len(state))
	}
	for i := uint64(0); i < rounds; i++ {
		block.Encrypt(state[:16], state[:16])
		block.Encrypt(state[16:], state[16:])
	}
	return state, nil
}

package crypto

import "crypto/sha256"

// salsaNonce is the fixed 8-byte nonce the KDBX v2 format hard-codes for its
// inner Salsa20 stream; it is not derived from anything per-file.
var salsaNonce = [8]byte{0xE8, 0x30, 0x09, 0x4B, 0x97, 0x20, 0x5D, 0x2A}

var salsaSigma = [4]uint32{0x61707865, 0x3320646e, 0x79622d32, 0x6b206574}

// SalsaStream is a Salsa20 keystream generator keyed off
// SHA256(PROTECTED_STREAM_KEY). Unlike golang.org/x/crypto/salsa20, which
// XORs a whole buffer per call, SalsaStream exposes a resumable,
// byte-granular cursor: each call to XOR consumes exactly as many
// keystream bytes as it's given and picks up where the last call left off.
// That's required here because protected fields are unlocked/locked one at
// a time as the XML tree is walked, not as a single contiguous buffer.
type SalsaStream struct {
	state   [16]uint32
	block   [64]byte
	used    int // bytes of block already consumed; 64 means block is exhausted
	pending []byte
}

// NewSalsaStream derives Salsa20 state from key (the raw
// PROTECTED_STREAM_KEY header field, not yet hashed).
func NewSalsaStream(key []byte) *SalsaStream {
	hash := sha256.Sum256(key)

	var s SalsaStream
	s.state[0] = salsaSigma[0]
	s.state[1] = loadLE32(hash[0:4])
	s.state[2] = loadLE32(hash[4:8])
	s.state[3] = loadLE32(hash[8:12])
	s.state[4] = loadLE32(hash[12:16])
	s.state[5] = salsaSigma[1]
	s.state[6] = loadLE32(salsaNonce[0:4])
	s.state[7] = loadLE32(salsaNonce[4:8])
	s.state[8] = 0
	s.state[9] = 0
	s.state[10] = salsaSigma[2]
	s.state[11] = loadLE32(hash[16:20])
	s.state[12] = loadLE32(hash[20:24])
	s.state[13] = loadLE32(hash[24:28])
	s.state[14] = loadLE32(hash[28:32])
	s.state[15] = salsaSigma[3]
	s.used = 64 // force generateBlock on first use
	return &s
}

// XOR returns data with the next len(data) keystream bytes XORed in,
// advancing the stream's internal cursor by that many bytes.
func (s *SalsaStream) XOR(data []byte) []byte {
	out := make([]byte, len(data))
	ks := s.fetch(len(data))
	for i, b := range data {
		out[i] = b ^ ks[i]
	}
	return out
}

func (s *SalsaStream) fetch(n int) []byte {
	for len(s.pending) < n {
		s.pending = append(s.pending, s.nextBlockBytes(64)...)
	}
	out := s.pending[:n]
	s.pending = s.pending[n:]
	return out
}

func (s *SalsaStream) nextBlockBytes(n int) []byte {
	b := make([]byte, n)
	for i := 0; i < n; i++ {
		if s.used == 64 {
			s.generateBlock()
			s.used = 0
		}
		b[i] = s.block[s.used]
		s.used++
	}
	return b
}

func (s *SalsaStream) generateBlock() {
	x := s.state

	for i := 0; i < 10; i++ {
		x[4] ^= rotl32(x[0]+x[12], 7)
		x[8] ^= rotl32(x[4]+x[0], 9)
		x[12] ^= rotl32(x[8]+x[4], 13)
		x[0] ^= rotl32(x[12]+x[8], 18)

		x[9] ^= rotl32(x[5]+x[1], 7)
		x[13] ^= rotl32(x[9]+x[5], 9)
		x[1] ^= rotl32(x[13]+x[9], 13)
		x[5] ^= rotl32(x[1]+x[13], 18)

		x[14] ^= rotl32(x[10]+x[6], 7)
		x[2] ^= rotl32(x[14]+x[10], 9)
		x[6] ^= rotl32(x[2]+x[14], 13)
		x[10] ^= rotl32(x[6]+x[2], 18)

		x[3] ^= rotl32(x[15]+x[11], 7)
		x[7] ^= rotl32(x[3]+x[15], 9)
		x[11] ^= rotl32(x[7]+x[3], 13)
		x[15] ^= rotl32(x[11]+x[7], 18)

		x[1] ^= rotl32(x[0]+x[3], 7)
		x[2] ^= rotl32(x[1]+x[0], 9)
		x[3] ^= rotl32(x[2]+x[1], 13)
		x[0] ^= rotl32(x[3]+x[2], 18)

		x[6] ^= rotl32(x[5]+x[4], 7)
		x[7] ^= rotl32(x[6]+x[5], 9)
		x[4] ^= rotl32(x[7]+x[6], 13)
		x[5] ^= rotl32(x[4]+x[7], 18)

		x[11] ^= rotl32(x[10]+x[9], 7)
		x[8] ^= rotl32(x[11]+x[10], 9)
		x[9] ^= rotl32(x[8]+x[11], 13)
		x[10] ^= rotl32(x[9]+x[8], 18)

		x[12] ^= rotl32(x[15]+x[14], 7)
		x[13] ^= rotl32(x[12]+x[15], 9)
		x[14] ^= rotl32(x[13]+x[12], 13)
		x[15] ^= rotl32(x[14]+x[13], 18)
	}

	for i := range x {
		x[i] += s.state[i]
	}
	for i, w := range x {
		s.block[i*4] = byte(w)
		s.block[i*4+1] = byte(w >> 8)
		s.block[i*4+2] = byte(w >> 16)
		s.block[i*4+3] = byte(w >> 24)
	}

	s.state[8]++
	if s.state[8] == 0 {
		s.state[9]++
	}
}

func loadLE32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func rotl32(x uint32, n uint) uint32 {
	return x<<n | x>>(32-n)
}

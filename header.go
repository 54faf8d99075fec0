package kdbx

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/packetops/openkeepass/internal/bytesutil"
)

// magicBase and magicSecondary are the two 4-byte signature words every
// KDBX file begins with, regardless of format version.
var (
	magicBase      = [4]byte{0x03, 0xd9, 0xa2, 0x9a}
	magicSecondary = [4]byte{0x67, 0xfb, 0x4b, 0xb5}
)

// CipherAES is the only cipher UUID this codec accepts or emits.
var CipherAES = [16]byte{
	0x31, 0xC1, 0xF2, 0xE6, 0xBF, 0x71, 0x43, 0x50,
	0xBE, 0x58, 0x05, 0x21, 0x6A, 0xFC, 0x5A, 0xFF,
}

// Compression enum values for header field 3.
const (
	CompressionNone Compression = 0
	CompressionGZip Compression = 1
)

// Compression identifies the post-decrypt, pre-XML compression stage.
type Compression uint32

// InnerStreamSalsa20 is the only inner-random-stream id this codec accepts
// or emits (header field 10). ARC4 and ChaCha20 ids exist in the wider
// KDBX family but are out of scope here.
const InnerStreamSalsa20 uint32 = 2

// header field ids, as laid out in the TLV list following the 12-byte
// magic+version prefix.
const (
	fieldEnd                 = 0
	fieldComment              = 1
	fieldCipherID             = 2
	fieldCompressionFlags     = 3
	fieldMasterSeed           = 4
	fieldTransformSeed        = 5
	fieldTransformRounds      = 6
	fieldEncryptionIV         = 7
	fieldProtectedStreamKey   = 8
	fieldStreamStartBytes     = 9
	fieldInnerRandomStreamID  = 10
)

// defaultTransformRounds is the work factor NewHeader uses when the caller
// doesn't supply one explicitly.
const defaultTransformRounds = 8000

// Header is the strongly-typed, eagerly-validated KDBX v2 header: every
// accessor below is guaranteed non-empty and well-formed once ParseHeader
// has returned successfully, so downstream code never re-checks field
// presence. This is a deliberate departure from the teacher library, which
// stores header fields as an opaque byte array keyed by field id and
// defers interpretation (and validation) to whichever call site happens to
// read a given field first.
type Header struct {
	versionMajor uint16
	versionMinor uint16

	cipherID            [16]byte
	compression         Compression
	masterSeed          []byte
	transformSeed       []byte
	transformRounds     uint64
	encryptionIV        []byte
	protectedStreamKey  []byte
	streamStartBytes    []byte
	innerRandomStreamID uint32

	// rawBytes is the exact byte range the header occupied on disk,
	// comment included; writers that need to hash the header (this codec
	// doesn't, KDBX v2 has no header hash) would use this.
	rawBytes []byte
}

func (h *Header) VersionMajor() uint16        { return h.versionMajor }
func (h *Header) VersionMinor() uint16        { return h.versionMinor }
func (h *Header) CipherID() [16]byte          { return h.cipherID }
func (h *Header) Compression() Compression    { return h.compression }
func (h *Header) MasterSeed() []byte          { return h.masterSeed }
func (h *Header) TransformSeed() []byte       { return h.transformSeed }
func (h *Header) TransformRounds() uint64     { return h.transformRounds }
func (h *Header) EncryptionIV() []byte        { return h.encryptionIV }
func (h *Header) ProtectedStreamKey() []byte  { return h.protectedStreamKey }
func (h *Header) StreamStartBytes() []byte    { return h.streamStartBytes }
func (h *Header) InnerRandomStreamID() uint32 { return h.innerRandomStreamID }
func (h *Header) HeaderSize() int             { return len(h.rawBytes) }

// NewHeader builds a fresh header for Write: AES cipher, GZip compression,
// Salsa20 inner stream, and cryptographically random seeds/keys/IV. rounds
// selects the key-transform work factor; a value of 0 selects
// defaultTransformRounds.
func NewHeader(rounds uint64) *Header {
	if rounds == 0 {
		rounds = defaultTransformRounds
	}
	h := &Header{
		versionMajor:        3,
		versionMinor:        1,
		cipherID:            CipherAES,
		compression:         CompressionGZip,
		masterSeed:          randomBytes(32),
		transformSeed:       randomBytes(32),
		transformRounds:     rounds,
		encryptionIV:        randomBytes(16),
		protectedStreamKey:  randomBytes(32),
		streamStartBytes:    randomBytes(32),
		innerRandomStreamID: InnerStreamSalsa20,
	}
	return h
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand.Read only fails if the OS entropy source is
		// broken, a condition no header field validation can recover
		// from; panicking here matches the standard library's own
		// behavior for an unusable rand.Reader.
		panic(fmt.Sprintf("kdbx: reading random bytes: %v", err))
	}
	return b
}

// ParseHeader reads the 12-byte magic+version prefix and the TLV field
// list from the front of data, validating every invariant in §3 before
// returning: known magic, major version 3, every required field present
// exactly once, rounds ≥ 1, AES cipher, Salsa20 inner stream. It returns
// the parsed header and the number of bytes it consumed (the offset of the
// first byte of the encrypted region).
func ParseHeader(data []byte) (*Header, int, error) {
	if len(data) < 12 {
		return nil, 0, &Unreadable{Kind: CorruptHeader, Err: io.ErrUnexpectedEOF}
	}
	if !bytes.Equal(data[0:4], magicBase[:]) || !bytes.Equal(data[4:8], magicSecondary[:]) {
		return nil, 0, &Unreadable{Kind: CorruptHeader, Err: fmt.Errorf("bad magic signature")}
	}

	versionMinor := bytesutil.Uint32(data[8:12]) & 0xFFFF
	versionMajor := bytesutil.Uint32(data[8:12]) >> 16
	if versionMajor != 3 {
		return nil, 0, &Unreadable{Kind: UnsupportedVersion, Err: fmt.Errorf("version major %d unsupported", versionMajor)}
	}

	h := &Header{versionMajor: uint16(versionMajor), versionMinor: uint16(versionMinor)}
	seen := map[byte]bool{}
	offset := 12

	for {
		if offset+3 > len(data) {
			return nil, 0, &Unreadable{Kind: CorruptHeader, Err: io.ErrUnexpectedEOF}
		}
		id := data[offset]
		length := int(bytesutil.Uint32(append(append([]byte{}, data[offset+1:offset+3]...), 0, 0)))
		offset += 3
		if offset+length > len(data) {
			return nil, 0, &Unreadable{Kind: CorruptHeader, Err: io.ErrUnexpectedEOF}
		}
		value := data[offset : offset+length]
		offset += length

		if id == fieldEnd {
			break
		}
		if seen[id] {
			return nil, 0, &Unreadable{Kind: CorruptHeader, Err: fmt.Errorf("duplicate header field %d", id)}
		}
		seen[id] = true

		if err := h.setField(id, value); err != nil {
			return nil, 0, err
		}
	}

	if err := h.validateRequiredFields(seen); err != nil {
		return nil, 0, err
	}

	h.rawBytes = append([]byte{}, data[:offset]...)
	return h, offset, nil
}

func (h *Header) setField(id byte, value []byte) error {
	switch id {
	case fieldComment:
		// opaque, intentionally ignored
	case fieldCipherID:
		if len(value) != 16 {
			return &Unreadable{Kind: CorruptHeader, Err: fmt.Errorf("cipher id must be 16 bytes, got %d", len(value))}
		}
		copy(h.cipherID[:], value)
		if h.cipherID != CipherAES {
			return &Unreadable{Kind: UnsupportedCipher, Err: fmt.Errorf("unsupported cipher UUID %x", h.cipherID)}
		}
	case fieldCompressionFlags:
		if len(value) != 4 {
			return &Unreadable{Kind: CorruptHeader, Err: fmt.Errorf("compression flags must be 4 bytes")}
		}
		h.compression = Compression(bytesutil.Uint32(value))
	case fieldMasterSeed:
		if len(value) != 32 {
			return &Unreadable{Kind: CorruptHeader, Err: fmt.Errorf("master seed must be 32 bytes")}
		}
		h.masterSeed = append([]byte{}, value...)
	case fieldTransformSeed:
		if len(value) != 32 {
			return &Unreadable{Kind: CorruptHeader, Err: fmt.Errorf("transform seed must be 32 bytes")}
		}
		h.transformSeed = append([]byte{}, value...)
	case fieldTransformRounds:
		if len(value) != 8 {
			return &Unreadable{Kind: CorruptHeader, Err: fmt.Errorf("transform rounds must be 8 bytes")}
		}
		h.transformRounds = bytesutil.Uint64(value)
		if h.transformRounds < 1 {
			return &Unreadable{Kind: CorruptHeader, Err: fmt.Errorf("transform rounds must be >= 1")}
		}
	case fieldEncryptionIV:
		if len(value) != 16 {
			return &Unreadable{Kind: CorruptHeader, Err: fmt.Errorf("encryption IV must be 16 bytes")}
		}
		h.encryptionIV = append([]byte{}, value...)
	case fieldProtectedStreamKey:
		if len(value) != 32 {
			return &Unreadable{Kind: CorruptHeader, Err: fmt.Errorf("protected stream key must be 32 bytes")}
		}
		h.protectedStreamKey = append([]byte{}, value...)
	case fieldStreamStartBytes:
		if len(value) != 32 {
			return &Unreadable{Kind: CorruptHeader, Err: fmt.Errorf("stream start bytes must be 32 bytes")}
		}
		h.streamStartBytes = append([]byte{}, value...)
	case fieldInnerRandomStreamID:
		if len(value) != 4 {
			return &Unreadable{Kind: CorruptHeader, Err: fmt.Errorf("inner random stream id must be 4 bytes")}
		}
		h.innerRandomStreamID = bytesutil.Uint32(value)
		if h.innerRandomStreamID != InnerStreamSalsa20 {
			return &Unreadable{Kind: UnsupportedCipher, Err: fmt.Errorf("unsupported inner stream id %d", h.innerRandomStreamID)}
		}
	default:
		return &Unreadable{Kind: CorruptHeader, Err: fmt.Errorf("unknown header field id %d", id)}
	}
	return nil
}

// requiredFields lists the header field ids that §3 requires present
// exactly once for a successful parse.
var requiredFields = []byte{
	fieldCipherID, fieldCompressionFlags, fieldMasterSeed, fieldTransformSeed,
	fieldTransformRounds, fieldEncryptionIV, fieldProtectedStreamKey,
	fieldStreamStartBytes, fieldInnerRandomStreamID,
}

func (h *Header) validateRequiredFields(seen map[byte]bool) error {
	for _, id := range requiredFields {
		if !seen[id] {
			return &Unreadable{Kind: CorruptHeader, Err: fmt.Errorf("missing required header field %d", id)}
		}
	}
	return nil
}

// WriteTo emits the 12-byte prefix and the TLV field list in the canonical
// order (ids 2,3,4,5,6,7,8,9,10, then the terminator).
func (h *Header) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	buf.Write(magicBase[:])
	buf.Write(magicSecondary[:])
	version := uint32(h.versionMajor)<<16 | uint32(h.versionMinor)
	buf.Write(bytesutil.PutUint32(version))

	writeField16(&buf, fieldCipherID, h.cipherID[:])
	writeField16(&buf, fieldCompressionFlags, bytesutil.PutUint32(uint32(h.compression)))
	writeField16(&buf, fieldMasterSeed, h.masterSeed)
	writeField16(&buf, fieldTransformSeed, h.transformSeed)
	writeField16(&buf, fieldTransformRounds, bytesutil.PutUint64(h.transformRounds))
	writeField16(&buf, fieldEncryptionIV, h.encryptionIV)
	writeField16(&buf, fieldProtectedStreamKey, h.protectedStreamKey)
	writeField16(&buf, fieldStreamStartBytes, h.streamStartBytes)
	writeField16(&buf, fieldInnerRandomStreamID, bytesutil.PutUint32(h.innerRandomStreamID))
	writeField16(&buf, fieldEnd, nil)

	h.rawBytes = append([]byte{}, buf.Bytes()...)
	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

func writeField16(buf *bytes.Buffer, id byte, value []byte) {
	buf.WriteByte(id)
	length := uint16(len(value))
	buf.WriteByte(byte(length))
	buf.WriteByte(byte(length >> 8))
	buf.Write(value)
}

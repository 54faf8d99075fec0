// Package kdbx reads and writes KeePass KDBX v2 password-database
// containers: header parsing, master-key derivation, AES-256-CBC payload
// encryption, hashed-block framing, optional GZIP compression, and the
// Salsa20 stream cipher protecting individual XML field values. The
// in-memory document model is intentionally out of this package's scope;
// callers supply a TreeCodec (the kdbxml package provides one bound to the
// standard KeePass group/entry/history schema).
package kdbx

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"

	"github.com/packetops/openkeepass/crypto"
	"github.com/packetops/openkeepass/internal/bytesutil"
)

// openOptions collects the per-call configuration Open accepts.
type openOptions struct {
	credentials *Credentials
}

// OpenOption configures a single Open call.
type OpenOption func(*openOptions)

// WithCredentials attaches the composite-key credentials Open should
// derive the master key from.
func WithCredentials(c *Credentials) OpenOption {
	return func(o *openOptions) { o.credentials = c }
}

// writeOptions collects the per-call configuration Write accepts.
type writeOptions struct {
	credentials *Credentials
	rounds      uint64
}

// WriteOption configures a single Write call.
type WriteOption func(*writeOptions)

// WithWriteCredentials attaches the composite-key credentials Write should
// derive the master key from.
func WithWriteCredentials(c *Credentials) WriteOption {
	return func(o *writeOptions) { o.credentials = c }
}

// WithTransformRounds overrides the key-transform work factor a fresh
// header uses. A value of 0 selects defaultTransformRounds.
func WithTransformRounds(rounds uint64) WriteOption {
	return func(o *writeOptions) { o.rounds = rounds }
}

// ReadHeader parses only the header from data, without attempting
// decryption. Useful for inspecting a file's cipher, compression and round
// count without credentials in hand.
func ReadHeader(data []byte) (*Header, error) {
	h, _, err := ParseHeader(data)
	return h, err
}

// Open decrypts and parses a KDBX v2 file. codec turns the decompressed
// XML payload into a Tree; Open then unlocks its protected fields in place
// before returning it.
func Open(ctx context.Context, data []byte, codec TreeCodec, opts ...OpenOption) (Tree, *Header, error) {
	var o openOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.credentials == nil {
		return nil, nil, &Unreadable{Kind: InvalidArgument, Err: fmt.Errorf("Open requires WithCredentials")}
	}

	header, headerLen, err := ParseHeader(data)
	if err != nil {
		return nil, nil, err
	}

	composite := o.credentials.CompositeKey()
	defer bytesutil.Zero(composite)
	masterKey, err := deriveMasterKey(ctx, composite, header.TransformSeed(), header.MasterSeed(), header.TransformRounds())
	if err != nil {
		return nil, nil, wrapTransformError(err, ctx)
	}
	defer bytesutil.Zero(masterKey)

	cbc, err := crypto.NewCBC(masterKey, header.EncryptionIV())
	if err != nil {
		return nil, nil, &Unreadable{Kind: CorruptHeader, Err: err}
	}

	ciphertext := data[headerLen:]
	if len(ciphertext) == 0 {
		return nil, nil, &Unreadable{Kind: CannotDecrypt, Err: fmt.Errorf("no payload after header")}
	}
	plaintext, err := cbc.Decrypt(ciphertext)
	if err != nil {
		return nil, nil, &Unreadable{Kind: CannotDecrypt, Err: err}
	}

	if len(plaintext) < 32 {
		return nil, nil, &Unreadable{Kind: CannotDecrypt, Err: fmt.Errorf("decrypted payload shorter than stream-start probe")}
	}
	if !bytesutil.ConstantTimeEqual(plaintext[:32], header.StreamStartBytes()) {
		return nil, nil, &Unreadable{Kind: CannotDecrypt, Err: fmt.Errorf("stream-start bytes mismatch")}
	}

	framed := plaintext[32:]
	blockData, err := decodeBlocks(framed)
	if err != nil {
		return nil, nil, err
	}

	xmlPayload := blockData
	if header.Compression() == CompressionGZip {
		xmlPayload, err = gunzip(blockData)
		if err != nil {
			return nil, nil, &Unreadable{Kind: DecompressionError, Err: err}
		}
	}

	tree, err := codec.Unmarshal(xmlPayload)
	if err != nil {
		return nil, nil, &Unreadable{Kind: CorruptHeader, Err: err}
	}

	UnlockProtectedFields(tree.ProtectedFields(), header.ProtectedStreamKey())

	return tree, header, nil
}

// Write serializes tree to w as a fresh KDBX v2 file. The credentials
// supplied via WithWriteCredentials become the file's new master key;
// there is no notion of re-using a previously opened file's key.
func Write(ctx context.Context, tree Tree, codec TreeCodec, w io.Writer, opts ...WriteOption) (int64, error) {
	var o writeOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.credentials == nil {
		return 0, &Unwriteable{Kind: InvalidArgument, Err: fmt.Errorf("Write requires WithWriteCredentials")}
	}
	if tree == nil {
		return 0, &Unwriteable{Kind: WriteValidationError, Err: fmt.Errorf("nil tree")}
	}

	header := NewHeader(o.rounds)

	LockProtectedFields(tree.ProtectedFields(), header.ProtectedStreamKey())

	xmlPayload, err := codec.Marshal(tree)
	if err != nil {
		return 0, &Unwriteable{Kind: WriteValidationError, Err: err}
	}

	compressed, err := gzipCompress(xmlPayload)
	if err != nil {
		return 0, &Unwriteable{Kind: WriteValidationError, Err: err}
	}

	framed := encodeBlocks(compressed)
	plaintext := bytesutil.Concat(header.StreamStartBytes(), framed)

	composite := o.credentials.CompositeKey()
	defer bytesutil.Zero(composite)
	masterKey, err := deriveMasterKey(ctx, composite, header.TransformSeed(), header.MasterSeed(), header.TransformRounds())
	if err != nil {
		if cause := context.Cause(ctx); cause != nil {
			return 0, &Unwriteable{Kind: InvalidArgument, Err: cause}
		}
		return 0, &Unwriteable{Kind: WriteValidationError, Err: err}
	}
	defer bytesutil.Zero(masterKey)

	cbc, err := crypto.NewCBC(masterKey, header.EncryptionIV())
	if err != nil {
		return 0, &Unwriteable{Kind: WriteValidationError, Err: err}
	}
	ciphertext := cbc.Encrypt(plaintext)

	headerN, err := header.WriteTo(w)
	if err != nil {
		return headerN, &Unwriteable{Kind: WriteValidationError, Err: err}
	}
	bodyN, err := w.Write(ciphertext)
	if err != nil {
		return headerN + int64(bodyN), &Unwriteable{Kind: WriteValidationError, Err: err}
	}

	return headerN + int64(bodyN), nil
}

// wrapTransformError classifies a deriveMasterKey failure: if ctx is why it
// failed, that's a caller-initiated cancellation (InvalidArgument);
// anything else is a malformed header value ECBRounds rejected.
func wrapTransformError(err error, ctx context.Context) error {
	if cause := context.Cause(ctx); cause != nil {
		return &Unreadable{Kind: InvalidArgument, Err: cause}
	}
	return &Unreadable{Kind: CorruptHeader, Err: err}
}

func gunzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func gzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package kdbx

import (
	"context"
	"io"
)

// Codec is the stateful, convenience-oriented front door onto Open/Write:
// it pairs a TreeCodec with the functional-option machinery those two
// functions already expose, so a caller that only ever talks to one
// concrete tree schema (the common case) doesn't have to thread it
// through every call.
type Codec struct {
	tree TreeCodec
}

// NewCodec returns a Codec bound to tree.
func NewCodec(tree TreeCodec) *Codec {
	return &Codec{tree: tree}
}

// Open decrypts and parses data using the Codec's TreeCodec.
func (c *Codec) Open(ctx context.Context, data []byte, opts ...OpenOption) (Tree, *Header, error) {
	return Open(ctx, data, c.tree, opts...)
}

// Write serializes tree using the Codec's TreeCodec. password alone
// selects the write credentials; pass WithWriteCredentials as an option
// instead when a key-file-derived component is also needed.
func (c *Codec) Write(ctx context.Context, tree Tree, password string, w io.Writer, opts ...WriteOption) (int64, error) {
	creds, err := NewCredentials(WithPassword([]byte(password)))
	if err != nil {
		return 0, &Unwriteable{Kind: InvalidArgument, Err: err}
	}
	allOpts := append([]WriteOption{WithWriteCredentials(creds)}, opts...)
	return Write(ctx, tree, c.tree, w, allOpts...)
}

// Header parses and returns data's header only, without touching key
// material. Equivalent to ReadHeader, which the CLI's inspect command
// calls directly.
func (c *Codec) Header(data []byte) (*Header, error) {
	return ReadHeader(data)
}

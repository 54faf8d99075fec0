package kdbx

import (
	"bytes"
	"errors"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := NewHeader(400)

	var buf bytes.Buffer
	if _, err := h.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	got, n, err := ParseHeader(buf.Bytes())
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if n != buf.Len() {
		t.Fatalf("consumed %d bytes, want %d", n, buf.Len())
	}
	if got.VersionMajor() != 3 {
		t.Fatalf("VersionMajor = %d, want 3", got.VersionMajor())
	}
	if got.CipherID() != CipherAES {
		t.Fatal("cipher id mismatch")
	}
	if got.Compression() != CompressionGZip {
		t.Fatal("compression mismatch")
	}
	if got.TransformRounds() != 400 {
		t.Fatalf("TransformRounds = %d, want 400", got.TransformRounds())
	}
	if !bytes.Equal(got.MasterSeed(), h.MasterSeed()) {
		t.Fatal("master seed mismatch")
	}
	if !bytes.Equal(got.StreamStartBytes(), h.StreamStartBytes()) {
		t.Fatal("stream start bytes mismatch")
	}
	if got.InnerRandomStreamID() != InnerStreamSalsa20 {
		t.Fatal("inner stream id mismatch")
	}
}

func TestParseHeaderRejectsBadMagic(t *testing.T) {
	data := make([]byte, 16)
	_, _, err := ParseHeader(data)
	var unreadable *Unreadable
	if !errors.As(err, &unreadable) || unreadable.Kind != CorruptHeader {
		t.Fatalf("got %v, want CorruptHeader", err)
	}
}

func TestParseHeaderRejectsUnsupportedVersion(t *testing.T) {
	h := NewHeader(1)
	var buf bytes.Buffer
	h.WriteTo(&buf)
	data := buf.Bytes()
	// major version lives in the top 16 bits of the 4-byte LE version word
	data[10] = 4
	data[11] = 0

	_, _, err := ParseHeader(data)
	var unreadable *Unreadable
	if !errors.As(err, &unreadable) || unreadable.Kind != UnsupportedVersion {
		t.Fatalf("got %v, want UnsupportedVersion", err)
	}
}

func TestParseHeaderRejectsDuplicateField(t *testing.T) {
	h := NewHeader(1)
	var buf bytes.Buffer
	h.WriteTo(&buf)
	data := buf.Bytes()

	// Splice in a second copy of the cipher-id field (id 2, 16 bytes)
	// right before the terminator, which is always the last 3 bytes.
	terminatorAt := len(data) - 3
	dup := append([]byte{}, data[12:12+19]...) // id+len+16 bytes of the first field
	spliced := append(append(append([]byte{}, data[:terminatorAt]...), dup...), data[terminatorAt:]...)

	_, _, err := ParseHeader(spliced)
	var unreadable *Unreadable
	if !errors.As(err, &unreadable) || unreadable.Kind != CorruptHeader {
		t.Fatalf("got %v, want CorruptHeader", err)
	}
}

func TestParseHeaderRejectsTruncated(t *testing.T) {
	h := NewHeader(1)
	var buf bytes.Buffer
	h.WriteTo(&buf)

	_, _, err := ParseHeader(buf.Bytes()[:20])
	var unreadable *Unreadable
	if !errors.As(err, &unreadable) || unreadable.Kind != CorruptHeader {
		t.Fatalf("got %v, want CorruptHeader", err)
	}
}

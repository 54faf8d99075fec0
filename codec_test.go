package kdbx

import (
	"bytes"
	"context"
	"testing"
)

func TestCodecOpenWriteRoundTrip(t *testing.T) {
	codec := NewCodec(fakeCodec{})
	tree := &fakeTree{Body: []byte("<xml/>"), Fields: []*fakeField{{v: []byte("hunter2")}}}

	var buf bytes.Buffer
	if _, err := codec.Write(context.Background(), tree, "correct horse battery staple", &buf, WithTransformRounds(20)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	header, err := codec.Header(buf.Bytes())
	if err != nil {
		t.Fatalf("Header: %v", err)
	}
	if header.TransformRounds() != 20 {
		t.Fatalf("TransformRounds = %d, want 20", header.TransformRounds())
	}

	creds, err := NewCredentials(WithPassword([]byte("correct horse battery staple")))
	if err != nil {
		t.Fatalf("NewCredentials: %v", err)
	}
	got, _, err := codec.Open(context.Background(), buf.Bytes(), WithCredentials(creds))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	gotTree, ok := got.(*fakeTree)
	if !ok || string(gotTree.Fields[0].v) != "hunter2" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

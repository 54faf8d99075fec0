package crypto

import (
	"bytes"
	"testing"
)

func TestSalsaStreamRoundTrip(t *testing.T) {
	key := []byte("a 32 byte protected stream key!")

	enc := NewSalsaStream(key)
	dec := NewSalsaStream(key)

	fields := []string{"hunter2", "", "a very long password indeed, much longer than one block"}
	for _, plain := range fields {
		ciphertext := enc.XOR([]byte(plain))
		recovered := dec.XOR(ciphertext)
		if string(recovered) != plain {
			t.Fatalf("got %q, want %q", recovered, plain)
		}
	}
}

func TestSalsaStreamOrderMatters(t *testing.T) {
	key := []byte("another protected stream key!!!")

	writer := NewSalsaStream(key)
	a := writer.XOR([]byte("first"))
	b := writer.XOR([]byte("second"))

	// Reading back in the wrong order must not reproduce the plaintexts.
	reader := NewSalsaStream(key)
	gotB := reader.XOR(b)
	gotA := reader.XOR(a)

	if string(gotB) == "second" || string(gotA) == "first" {
		t.Fatal("swapping call order should scramble recovered plaintext")
	}
}

func TestSalsaStreamEmptyConsumesNoKeystream(t *testing.T) {
	key := []byte("yet another protected stream key")

	s1 := NewSalsaStream(key)
	_ = s1.XOR(nil)
	next1 := s1.XOR([]byte("abc"))

	s2 := NewSalsaStream(key)
	next2 := s2.XOR([]byte("abc"))

	if !bytes.Equal(next1, next2) {
		t.Fatal("XORing an empty field should not advance the keystream")
	}
}

package kdbx

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestDeriveMasterKeyDeterministic(t *testing.T) {
	composite := bytes.Repeat([]byte{0x01}, 32)
	seed := bytes.Repeat([]byte{0x02}, 32)
	masterSeed := bytes.Repeat([]byte{0x03}, 32)

	k1, err := deriveMasterKey(context.Background(), composite, seed, masterSeed, 2000)
	if err != nil {
		t.Fatalf("deriveMasterKey: %v", err)
	}
	k2, err := deriveMasterKey(context.Background(), composite, seed, masterSeed, 2000)
	if err != nil {
		t.Fatalf("deriveMasterKey: %v", err)
	}
	if !bytes.Equal(k1, k2) {
		t.Fatal("expected deterministic derivation")
	}
	if len(k1) != 32 {
		t.Fatalf("key length = %d, want 32", len(k1))
	}
}

func TestDeriveMasterKeyDiffersByRounds(t *testing.T) {
	composite := bytes.Repeat([]byte{0x01}, 32)
	seed := bytes.Repeat([]byte{0x02}, 32)
	masterSeed := bytes.Repeat([]byte{0x03}, 32)

	k1, err := deriveMasterKey(context.Background(), composite, seed, masterSeed, 10)
	if err != nil {
		t.Fatalf("deriveMasterKey: %v", err)
	}
	k2, err := deriveMasterKey(context.Background(), composite, seed, masterSeed, 11)
	if err != nil {
		t.Fatalf("deriveMasterKey: %v", err)
	}
	if bytes.Equal(k1, k2) {
		t.Fatal("different round counts should not collide")
	}
}

func TestDeriveMasterKeyHonorsCancellation(t *testing.T) {
	composite := bytes.Repeat([]byte{0x01}, 32)
	seed := bytes.Repeat([]byte{0x02}, 32)
	masterSeed := bytes.Repeat([]byte{0x03}, 32)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := deriveMasterKey(ctx, composite, seed, masterSeed, 1_000_000)
	if err == nil {
		t.Fatal("expected cancellation error for a round count well past one check interval")
	}
}

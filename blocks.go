package kdbx

import (
	"bytes"
	"fmt"

	"github.com/packetops/openkeepass/internal/bytesutil"
)

// maxBlockSize bounds a single hashed block's declared length. The teacher
// library's equivalent decoder trusts the declared length outright before
// it has even read that many bytes, which lets a truncated or hostile file
// force an enormous single allocation; this codec refuses anything
// claiming to be larger than 16 MiB.
const maxBlockSize = 16 << 20

// writeBlockSize is the chunk size this codec uses when re-framing data on
// Write. KDBX doesn't require any particular chunking, only that blocks are
// self-consistent and the stream ends with a zero-hash, zero-length
// terminator.
const writeBlockSize = 1 << 20

// decodeBlocks reassembles the plaintext payload from a stream of hashed
// blocks: (uint32 index, 32-byte SHA-256, uint32 length, data). Unlike the
// teacher library, which reads each block's declared hash and length but
// never checks the data actually hashes to it or that indexes increase
// monotonically, this implementation verifies both on every block.
func decodeBlocks(data []byte) ([]byte, error) {
	var out bytes.Buffer
	offset := 0
	var wantIndex uint32

	for {
		if offset+4 > len(data) {
			return nil, &Unreadable{Kind: CorruptBlock, Err: fmt.Errorf("truncated block index")}
		}
		index := bytesutil.Uint32(data[offset : offset+4])
		offset += 4

		if offset+32 > len(data) {
			return nil, &Unreadable{Kind: CorruptBlock, Err: fmt.Errorf("truncated block hash")}
		}
		hash := data[offset : offset+32]
		offset += 32

		if offset+4 > len(data) {
			return nil, &Unreadable{Kind: CorruptBlock, Err: fmt.Errorf("truncated block length")}
		}
		length := bytesutil.Uint32(data[offset : offset+4])
		offset += 4

		if length == 0 {
			if index != wantIndex {
				return nil, &Unreadable{Kind: CorruptBlock, Err: fmt.Errorf("terminator block index %d, want %d", index, wantIndex)}
			}
			allZero := true
			for _, b := range hash {
				if b != 0 {
					allZero = false
					break
				}
			}
			if !allZero {
				return nil, &Unreadable{Kind: CorruptBlock, Err: fmt.Errorf("terminator block has non-zero hash")}
			}
			break
		}

		if length > maxBlockSize {
			return nil, &Unreadable{Kind: CorruptBlock, Err: fmt.Errorf("block %d declares length %d, exceeds %d max", index, length, maxBlockSize)}
		}
		if offset+int(length) > len(data) {
			return nil, &Unreadable{Kind: CorruptBlock, Err: fmt.Errorf("truncated block data")}
		}
		block := data[offset : offset+int(length)]
		offset += int(length)

		if index != wantIndex {
			return nil, &Unreadable{Kind: CorruptBlock, Err: fmt.Errorf("block index %d, want %d", index, wantIndex)}
		}
		if !bytesutil.ConstantTimeEqual(bytesutil.Sum256(block), hash) {
			return nil, &Unreadable{Kind: CorruptBlock, Err: fmt.Errorf("block %d hash mismatch", index)}
		}

		out.Write(block)
		wantIndex++
	}

	return out.Bytes(), nil
}

// encodeBlocks splits payload into writeBlockSize chunks, each framed with
// its index, SHA-256 and length, and appends the zero-length terminator
// block.
func encodeBlocks(payload []byte) []byte {
	var out bytes.Buffer
	var index uint32

	for offset := 0; offset < len(payload); offset += writeBlockSize {
		end := offset + writeBlockSize
		if end > len(payload) {
			end = len(payload)
		}
		chunk := payload[offset:end]
		writeBlock(&out, index, bytesutil.Sum256(chunk), chunk)
		index++
	}

	writeBlock(&out, index, make([]byte, 32), nil)
	return out.Bytes()
}

func writeBlock(out *bytes.Buffer, index uint32, hash, data []byte) {
	out.Write(bytesutil.PutUint32(index))
	out.Write(hash)
	out.Write(bytesutil.PutUint32(uint32(len(data))))
	out.Write(data)
}

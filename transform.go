package kdbx

import (
	"context"

	"github.com/packetops/openkeepass/crypto"
	"github.com/packetops/openkeepass/internal/bytesutil"
)

// cancellationCheckInterval is how often, in rounds, the key transform
// checks ctx for cancellation. The transform is the only CPU-bound step in
// this codec; everything else operates on data already in memory and
// returns quickly enough that checking ctx there would only add overhead.
const cancellationCheckInterval = 1024

// deriveMasterKey runs the KDBX v2 key-transform: composite is put through
// `rounds` independent AES-ECB encryptions keyed by transformSeed, hashed,
// then combined with masterSeed to produce the 32-byte AES key that
// decrypts the payload.
func deriveMasterKey(ctx context.Context, composite, transformSeed, masterSeed []byte, rounds uint64) ([]byte, error) {
	state := append([]byte{}, composite...)
	defer bytesutil.Zero(state)

	var done uint64
	for done < rounds {
		chunk := cancellationCheckInterval
		if remaining := rounds - done; remaining < uint64(chunk) {
			chunk = int(remaining)
		}
		var err error
		state, err = crypto.ECBRounds(transformSeed, state, uint64(chunk))
		if err != nil {
			return nil, err
		}
		done += uint64(chunk)

		select {
		case <-ctx.Done():
			return nil, context.Cause(ctx)
		default:
		}
	}

	transformed := bytesutil.Sum256(state)
	defer bytesutil.Zero(transformed)

	return bytesutil.Sum256(masterSeed, transformed), nil
}

// Package tokenkey derives the store keys that let id-addressed assets share
// the fungible allowance schema.
//
// A (token, asset id) pair is folded into a single fixed-width key; the
// wildcard (absent) id bypasses encoding and uses the token itself,
// representing "entire collection". Nothing in the allowance store changes
// shape for NFT or semi-fungible support.
package tokenkey

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// ID addresses one asset within a collection. A nil *ID is the wildcard.
type ID [32]byte

// keyTag versions the key derivation. Changing it invalidates every derived
// key, so it is part of the persisted-state contract.
const keyTag = "xdao-permit-tokenkey/1"

// Encode returns the allowance-store key for (token, id).
//
// The per-asset key is a CIDv1 (raw, sha2-256) over a tagged token||id
// payload: fixed width, collision-resistant, and stable across contexts.
func Encode(token string, id *ID) string {
	if id == nil {
		return token
	}
	payload := make([]byte, 0, len(keyTag)+1+len(token)+1+len(id))
	payload = append(payload, keyTag...)
	payload = append(payload, 0)
	payload = append(payload, token...)
	payload = append(payload, 0)
	payload = append(payload, id[:]...)
	sum, err := multihash.Sum(payload, multihash.SHA2_256, -1)
	if err != nil {
		// multihash.Sum cannot fail for SHA2_256 with default length.
		return ""
	}
	return cid.NewCidV1(cid.Raw, sum).String()
}

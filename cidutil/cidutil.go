// Package cidutil derives the content identifiers used for journal receipts
// and other canonical byte payloads.
package cidutil

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// CID returns a CIDv1 (raw multicodec, sha2-256 multihash) derived from data.
func CID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// CIDString returns the string form of CID(data).
func CIDString(data []byte) string {
	id, err := CID(data)
	if err != nil {
		// multihash.Sum only errors for invalid parameters; with SHA2_256 and
		// default length this is unreachable.
		return ""
	}
	return id.String()
}

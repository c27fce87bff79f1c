// Package journal defines the content-addressed receipt store.
//
// Every applied submission is journaled as canonical bytes; the receipt's CID
// is derived from those bytes, so the journal is an immutable, idempotent
// audit trail that any party can verify against the submission it observed.
package journal

import "github.com/ipfs/go-cid"

// Store is the receipt store contract.
//
// Contract:
// - Append MUST be idempotent: appending identical bytes returns the same CID.
// - Stored receipts MUST be immutable.
// - CIDs MUST be derived from the bytes written.
// - Get MUST return ErrNotFound when the CID is absent.
type Store interface {
	Append(bytes []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}

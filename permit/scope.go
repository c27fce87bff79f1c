package permit

import (
	"encoding/binary"

	"xdao.co/permit/allowance"
	"xdao.co/permit/nonce"
	"xdao.co/permit/unhinged"
)

// Canonical signature scopes. Every signed message starts with a versioned
// protocol tag and a shape tag, so a signature produced for one surface can
// never be replayed against another, and a future schema revision can never
// collide with this one.
//
// The encoding is byte-deterministic: big-endian fixed-width integers and
// length-prefixed strings, no maps, no optional whitespace.
const (
	protocolTag = "xdao-permit/1"

	scopeSingle    = "single"
	scopeUnhinged  = "unhinged"
	scopeSalts     = "salts"
	scopeSaltsLeaf = "salts-leaf"
	scopeOpsLeaf   = "ops-leaf"
)

func appendUint64(b []byte, v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return append(b, buf[:]...)
}

func appendString(b []byte, s string) []byte {
	b = appendUint64(b, uint64(len(s)))
	return append(b, s...)
}

func scopeHeader(shape string) []byte {
	b := appendString(nil, protocolTag)
	return appendString(b, shape)
}

func appendOperation(b []byte, op allowance.Operation) []byte {
	b = appendUint64(b, op.ModeOrExpiration)
	b = appendString(b, op.Token)
	if op.TokenID != nil {
		b = append(b, 1)
		b = append(b, op.TokenID[:]...)
	} else {
		b = append(b, 0)
	}
	b = appendString(b, op.Account)
	b = appendUint64(b, op.AmountDelta)
	return b
}

// OpsLeaf hashes one context's full operation list into the commitment leaf.
// The context identifier is folded in so a proof valid on one context can
// never authorize the same byte-identical operations on another.
func OpsLeaf(context string, timestamp uint64, ops []allowance.Operation) unhinged.Hash {
	b := scopeHeader(scopeOpsLeaf)
	b = appendString(b, context)
	b = appendUint64(b, timestamp)
	b = appendUint64(b, uint64(len(ops)))
	for _, op := range ops {
		b = appendOperation(b, op)
	}
	return unhinged.Sum(b)
}

// SaltsLeaf hashes one context's salt list for the cross-context claim path.
func SaltsLeaf(context string, salts []nonce.Salt) unhinged.Hash {
	b := scopeHeader(scopeSaltsLeaf)
	b = appendString(b, context)
	b = appendUint64(b, uint64(len(salts)))
	for _, s := range salts {
		b = append(b, s[:]...)
	}
	return unhinged.Sum(b)
}

func appendWitness(b []byte, w *Witness) []byte {
	if w == nil {
		return append(b, 0)
	}
	b = append(b, 1)
	b = append(b, w.Value[:]...)
	return appendString(b, w.Schema)
}

// singleScope is the message signed for a single-context submission. It binds
// the execution context directly, alongside the salt, deadline, the logical
// timestamp, and the hash of the operation list.
func singleScope(context string, sub Submission) []byte {
	b := scopeHeader(scopeSingle)
	b = appendString(b, context)
	b = append(b, sub.Salt[:]...)
	b = appendUint64(b, sub.Deadline)
	b = appendUint64(b, sub.Timestamp)
	leaf := OpsLeaf(context, sub.Timestamp, sub.Ops)
	b = append(b, leaf[:]...)
	return appendWitness(b, sub.Witness)
}

// unhingedScope is the message signed for a cross-context submission. The
// context identifier is deliberately absent: one signature must verify on
// every context, and the per-context binding lives in the commitment leaves.
func unhingedScope(sub Submission) []byte {
	b := scopeHeader(scopeUnhinged)
	b = append(b, sub.Salt[:]...)
	b = appendUint64(b, sub.Deadline)
	b = appendUint64(b, sub.Timestamp)
	b = append(b, sub.UnhingedRoot[:]...)
	return appendWitness(b, sub.Witness)
}

// SigningBytes returns the exact bytes the owner must sign for sub. The
// shape follows the submission: cross-context submissions sign the unhinged
// root, single-context submissions sign the context-bound operation list.
func SigningBytes(sub Submission) []byte {
	if sub.CrossContext() {
		return unhingedScope(sub)
	}
	return singleScope(sub.Context, sub)
}

// SaltClaimSigningBytes returns the bytes signed for a single-context salt
// claim.
func SaltClaimSigningBytes(context string, deadline uint64, salts []nonce.Salt) []byte {
	return saltsScope(context, deadline, salts, nil)
}

// SaltClaimRootSigningBytes returns the bytes signed for a cross-context
// salt claim over an unhinged root of per-context salt lists.
func SaltClaimRootSigningBytes(deadline uint64, root unhinged.Hash) []byte {
	return saltsScope("", deadline, nil, &root)
}

// saltsScope is the message signed for an authorized salt claim. direct is
// the raw salt list for the single-context variant, or the unhinged root for
// the cross-context variant.
func saltsScope(context string, deadline uint64, salts []nonce.Salt, root *unhinged.Hash) []byte {
	b := scopeHeader(scopeSalts)
	b = appendUint64(b, deadline)
	if root != nil {
		b = append(b, 1)
		b = append(b, root[:]...)
		return b
	}
	b = append(b, 0)
	b = appendString(b, context)
	b = appendUint64(b, uint64(len(salts)))
	for _, s := range salts {
		b = append(b, s[:]...)
	}
	return b
}

// Package unhinged implements the hybrid commitment that lets one signed root
// authorize different operation subsets on independent execution contexts.
//
// The structure combines a balanced binary Merkle subtree (ordered-pair
// hashing, so the root is independent of left/right labeling) with a
// sequential hash chain linking the per-context subtree roots. Each context
// verifies only the O(log n) nodes relevant to itself, while the root binds
// every context's operation set so none can be dropped or substituted.
package unhinged

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var (
	// ErrInvalidProof marks a structurally malformed proof: counts out of
	// range, a flagged-but-absent pre-hash, or an empty node list where one
	// is required.
	ErrInvalidProof = errors.New("unhinged: invalid proof structure")

	// ErrProofMismatch marks a well-formed proof whose recomputed root does
	// not equal the signed root.
	ErrProofMismatch = errors.New("unhinged: proof does not match root")
)

// Hash is one tree node.
type Hash [32]byte

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// Sum hashes arbitrary bytes into a leaf.
func Sum(data []byte) Hash { return sha256.Sum256(data) }

// HashPair combines two subtree nodes with the smaller byte value first.
func HashPair(a, b Hash) Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	h := sha256.New()
	h.Write(a[:])
	h.Write(b[:])
	var out Hash
	h.Sum(out[:0])
	return out
}

// ChainHash appends next onto acc. Order is preserved: the sequential chain
// encodes context order, unlike the subtree's ordered pairs.
func ChainHash(acc, next Hash) Hash {
	h := sha256.New()
	h.Write(acc[:])
	h.Write(next[:])
	var out Hash
	h.Sum(out[:0])
	return out
}

// Proof is a flat, iterative proof: no recursive tree objects.
//
// Node layout, in order:
//
//	[pre-hash]           present iff HasPreHash; the chained fold of all
//	                     earlier contexts' subtree roots
//	subtree siblings     SubtreeCount nodes, leaf to subtree root, combined
//	                     with ordered-pair hashing
//	following hashes     later contexts' subtree roots, chained in order
type Proof struct {
	Nodes        []Hash
	SubtreeCount int
	HasPreHash   bool
}

// Verify recomputes the root from leaf and proof and compares it to root.
func Verify(leaf Hash, proof Proof, root Hash) error {
	if proof.SubtreeCount < 0 {
		return ErrInvalidProof
	}
	need := proof.SubtreeCount
	if proof.HasPreHash {
		need++
	}
	if len(proof.Nodes) < need {
		return ErrInvalidProof
	}
	if proof.HasPreHash && len(proof.Nodes) == 0 {
		return ErrInvalidProof
	}

	nodes := proof.Nodes
	var pre Hash
	if proof.HasPreHash {
		pre = nodes[0]
		nodes = nodes[1:]
	}

	acc := leaf
	for i := 0; i < proof.SubtreeCount; i++ {
		acc = HashPair(acc, nodes[i])
	}
	nodes = nodes[proof.SubtreeCount:]

	if proof.HasPreHash {
		acc = ChainHash(pre, acc)
	}
	for _, h := range nodes {
		acc = ChainHash(acc, h)
	}

	if acc != root {
		return ErrProofMismatch
	}
	return nil
}

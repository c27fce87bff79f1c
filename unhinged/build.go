package unhinged

import "errors"

// Reference builder. Verification is stateless; construction happens
// off-system (wallets, tooling, tests) but must agree with Verify bit for
// bit, so it lives next to it.

// BalancedRoot folds leaves into a balanced binary Merkle root using
// ordered-pair hashing. Odd levels duplicate their last node.
func BalancedRoot(leaves []Hash) (Hash, error) {
	if len(leaves) == 0 {
		return Hash{}, errors.New("unhinged: no leaves")
	}
	level := append([]Hash(nil), leaves...)
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]Hash, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, HashPair(level[i], level[i+1]))
		}
		level = next
	}
	return level[0], nil
}

// BalancedProof returns the sibling path for leaves[index], leaf to root.
func BalancedProof(leaves []Hash, index int) ([]Hash, error) {
	if len(leaves) == 0 {
		return nil, errors.New("unhinged: no leaves")
	}
	if index < 0 || index >= len(leaves) {
		return nil, errors.New("unhinged: leaf index out of range")
	}
	var siblings []Hash
	level := append([]Hash(nil), leaves...)
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		sib := index ^ 1
		siblings = append(siblings, level[sib])
		next := make([]Hash, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, HashPair(level[i], level[i+1]))
		}
		level = next
		index /= 2
	}
	return siblings, nil
}

// Root chains the per-context subtree roots sequentially into the unhinged
// root. Context order is fixed by the signer and must match at verification.
func Root(subtreeRoots []Hash) (Hash, error) {
	if len(subtreeRoots) == 0 {
		return Hash{}, errors.New("unhinged: no subtree roots")
	}
	acc := subtreeRoots[0]
	for _, r := range subtreeRoots[1:] {
		acc = ChainHash(acc, r)
	}
	return acc, nil
}

// ProofAt builds the proof a single context needs: the chained fold of every
// earlier context's root as pre-hash, and the later roots as following
// hashes. The context's own subtree root is the leaf it verifies.
func ProofAt(subtreeRoots []Hash, index int) (Proof, error) {
	if index < 0 || index >= len(subtreeRoots) {
		return Proof{}, errors.New("unhinged: context index out of range")
	}
	var p Proof
	if index > 0 {
		pre := subtreeRoots[0]
		for _, r := range subtreeRoots[1:index] {
			pre = ChainHash(pre, r)
		}
		p.HasPreHash = true
		p.Nodes = append(p.Nodes, pre)
	}
	p.Nodes = append(p.Nodes, subtreeRoots[index+1:]...)
	return p, nil
}

// LeafProofAt combines a within-subtree sibling path with the cross-context
// links, proving one operation leaf all the way to the unhinged root.
func LeafProofAt(contexts [][]Hash, contextIndex, leafIndex int) (Proof, error) {
	if contextIndex < 0 || contextIndex >= len(contexts) {
		return Proof{}, errors.New("unhinged: context index out of range")
	}
	roots := make([]Hash, len(contexts))
	for i, leaves := range contexts {
		r, err := BalancedRoot(leaves)
		if err != nil {
			return Proof{}, err
		}
		roots[i] = r
	}
	p, err := ProofAt(roots, contextIndex)
	if err != nil {
		return Proof{}, err
	}
	siblings, err := BalancedProof(contexts[contextIndex], leafIndex)
	if err != nil {
		return Proof{}, err
	}
	// Splice the subtree path between the pre-hash and the following roots.
	nodes := make([]Hash, 0, len(p.Nodes)+len(siblings))
	if p.HasPreHash {
		nodes = append(nodes, p.Nodes[0])
		p.Nodes = p.Nodes[1:]
	}
	nodes = append(nodes, siblings...)
	nodes = append(nodes, p.Nodes...)
	p.Nodes = nodes
	p.SubtreeCount = len(siblings)
	return p, nil
}

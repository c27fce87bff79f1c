// Command unhinged_vector_gen emits conformance vectors for the unhinged
// commitment tree: roots and inclusion proofs over deterministic leaves, for
// cross-implementation testing.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"xdao.co/permit/unhinged"
)

type vector struct {
	Contexts int      `json:"contexts"`
	Leaves   []string `json:"leaves"`
	Root     string   `json:"root"`
	Proofs   []proof  `json:"proofs"`
}

type proof struct {
	Index        int      `json:"index"`
	Nodes        []string `json:"nodes"`
	SubtreeCount int      `json:"subtreeCount"`
	HasPreHash   bool     `json:"hasPreHash"`
}

func leafAt(i int) unhinged.Hash {
	return unhinged.Sum([]byte(fmt.Sprintf("conformance-leaf-%d", i)))
}

func main() {
	counts := []int{1, 2, 3, 5, 8, 16, 33}

	vectors := make([]vector, 0, len(counts))
	for _, n := range counts {
		leaves := make([]unhinged.Hash, n)
		v := vector{Contexts: n}
		for i := range leaves {
			leaves[i] = leafAt(i)
			v.Leaves = append(v.Leaves, leaves[i].String())
		}

		root, err := unhinged.Root(leaves)
		if err != nil {
			panic(err)
		}
		v.Root = root.String()

		for i := range leaves {
			p, err := unhinged.ProofAt(leaves, i)
			if err != nil {
				panic(err)
			}
			if err := unhinged.Verify(leaves[i], p, root); err != nil {
				panic(fmt.Sprintf("vector %d index %d does not verify: %v", n, i, err))
			}
			nodes := make([]string, 0, len(p.Nodes))
			for _, h := range p.Nodes {
				nodes = append(nodes, h.String())
			}
			v.Proofs = append(v.Proofs, proof{
				Index:        i,
				Nodes:        nodes,
				SubtreeCount: p.SubtreeCount,
				HasPreHash:   p.HasPreHash,
			})
		}
		vectors = append(vectors, v)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(vectors); err != nil {
		panic(err)
	}
}

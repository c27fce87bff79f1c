package permit

import (
	"xdao.co/permit/allowance"
	"xdao.co/permit/nonce"
	"xdao.co/permit/unhinged"
)

// Submission is one signed permission batch presented to a context for
// execution. The same struct covers both surfaces: a single-context
// submission carries neither UnhingedRoot nor Proof, a cross-context
// submission carries both.
type Submission struct {
	// Owner is the signer identity string whose allowances the batch
	// mutates, e.g. "ed25519:<base64 public key>".
	Owner string

	// Salt identifies the submission inside the owner's nonce space.
	// Executing the submission claims it.
	Salt nonce.Salt

	// Deadline is the last instant (inclusive) at which the submission may
	// execute, in the same clock units the context uses.
	Deadline uint64

	// Timestamp is the logical signing time applied to every operation in
	// the batch. It orders this batch against others regardless of the
	// order contexts happen to execute them in.
	Timestamp uint64

	// Context is the execution context this submission (or, for a
	// cross-context submission, this slice of it) targets. An orchestrator
	// serving a different context rejects it before verifying anything.
	Context string

	Ops []allowance.Operation

	// Signature is a detached base64 signature over the canonical scope
	// for the submission's shape, produced by Owner's key.
	Signature string

	// UnhingedRoot, when set, marks a cross-context submission: the
	// signature covers this root rather than the local operation list, and
	// Proof must connect this context's leaf to it.
	UnhingedRoot *unhinged.Hash
	Proof        *unhinged.Proof

	// Witness optionally binds caller data into the signed scope.
	Witness *Witness
}

// CrossContext reports whether the submission claims authorization through
// an unhinged root rather than a directly signed operation list.
func (s Submission) CrossContext() bool {
	return s.UnhingedRoot != nil
}

package permit

import (
	"errors"
	"fmt"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/permit/allowance"
	"xdao.co/permit/journal"
	"xdao.co/permit/keys"
	"xdao.co/permit/nonce"
	"xdao.co/permit/tokenkey"
	"xdao.co/permit/unhinged"
)

// Orchestrator executes permission submissions against one context's state.
//
// Each context runs its own Orchestrator over its own stores; nothing is
// shared between contexts except the owner's signature and, for the
// cross-context surface, the unhinged root it covers.
type Orchestrator struct {
	// Context is this instance's execution context identifier.
	Context string

	Allowances *allowance.Store
	Nonces     *nonce.Space
	Ledger     Ledger

	// Journal, when non-nil, receives the receipt of every applied signed
	// submission. A journal failure aborts the submission.
	Journal journal.Store

	// Now yields the context clock. Defaults to wall-clock seconds.
	Now func() uint64
}

// New builds an Orchestrator with fresh stores. journal may be nil.
func New(context string, ledger Ledger, jstore journal.Store) *Orchestrator {
	return &Orchestrator{
		Context:    context,
		Allowances: allowance.NewStore(),
		Nonces:     nonce.NewSpace(),
		Ledger:     ledger,
		Journal:    jstore,
		Now:        func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// Allowance returns the current record for (owner, token/id, spender). A nil
// id addresses the collection-wide record of a multi-token contract, or the
// plain record of a fungible token.
func (o *Orchestrator) Allowance(owner, token string, id *tokenkey.ID, spender string) allowance.Allowance {
	return o.Allowances.Get(owner, tokenkey.Encode(token, id), spender)
}

// IsClaimed reports whether the owner's salt has been consumed on this
// context.
func (o *Orchestrator) IsClaimed(owner string, salt nonce.Salt) bool {
	return o.Nonces.IsClaimed(owner, salt)
}

// Permit validates and executes one signed submission. On success the salt
// is claimed, every operation's effect is committed, and the receipt CID is
// returned (cid.Undef when no journal is configured). On failure nothing is
// committed and the salt stays unclaimed.
func (o *Orchestrator) Permit(sub Submission) (cid.Cid, error) {
	if len(sub.Ops) == 0 {
		return cid.Undef, reject(KindInput, "PERMIT-INPUT-001", "submission carries no operations", ErrEmptyBatch)
	}
	if sub.CrossContext() && sub.Proof == nil {
		return cid.Undef, reject(KindInput, "PERMIT-INPUT-002", "cross-context submission carries no inclusion proof", ErrMissingProof)
	}
	now := o.Now()
	if now > sub.Deadline {
		return cid.Undef, reject(KindAuth, "PERMIT-AUTH-001",
			fmt.Sprintf("deadline %d passed at %d", sub.Deadline, now), ErrDeadlineExceeded)
	}
	if sub.Context != o.Context {
		return cid.Undef, reject(KindAuth, "PERMIT-AUTH-002",
			fmt.Sprintf("submission targets context %q, this is %q", sub.Context, o.Context), ErrWrongContext)
	}
	if sub.Witness != nil {
		if err := ValidateWitnessSchema(sub.Witness.Schema); err != nil {
			return cid.Undef, reject(KindInput, "PERMIT-INPUT-003", "malformed witness schema", err)
		}
	}

	if err := keys.VerifyDetached(sub.Owner, SigningBytes(sub), sub.Signature); err != nil {
		return cid.Undef, reject(KindAuth, "PERMIT-AUTH-003", "signature does not verify for owner", errors.Join(ErrInvalidSignature, err))
	}

	if o.Nonces.IsClaimed(sub.Owner, sub.Salt) {
		return cid.Undef, reject(KindAuth, "PERMIT-AUTH-004",
			fmt.Sprintf("salt %s already claimed", sub.Salt), nonce.ErrAlreadyClaimed)
	}

	if sub.CrossContext() {
		leaf := OpsLeaf(sub.Context, sub.Timestamp, sub.Ops)
		if err := unhinged.Verify(leaf, *sub.Proof, *sub.UnhingedRoot); err != nil {
			return cid.Undef, reject(KindAuth, "PERMIT-AUTH-005", "inclusion proof does not connect operations to signed root", err)
		}
	}

	// Stage every permission transition before moving any value. The
	// submission's logical timestamp, not the context clock, orders the
	// transitions.
	tx := o.Allowances.Begin()
	for i, op := range sub.Ops {
		if op.Mode() == allowance.ModeTransfer {
			continue
		}
		key := tokenkey.Encode(op.Token, (*tokenkey.ID)(op.TokenID))
		if err := tx.Apply(sub.Owner, key, op, sub.Timestamp); err != nil {
			return cid.Undef, reject(KindBusiness, "PERMIT-BIZ-001",
				fmt.Sprintf("operation %d (%s on %s) rejected", i, op.Mode(), op.Token), err)
		}
	}

	// Owner-signed transfers spend the owner's own balance; no allowance is
	// consumed. A failure reverses the moves already made.
	done := 0
	var transferErr error
	for i, op := range sub.Ops {
		if op.Mode() != allowance.ModeTransfer {
			continue
		}
		if err := o.transfer(op, sub.Owner, op.Account); err != nil {
			transferErr = reject(KindBusiness, "PERMIT-BIZ-002",
				fmt.Sprintf("transfer %d of %s failed", i, op.Token), err)
			break
		}
		done++
	}
	if transferErr != nil {
		o.reverseTransfers(sub.Ops, sub.Owner, done)
		return cid.Undef, transferErr
	}

	id := cid.Undef
	if o.Journal != nil {
		data, err := NewReceipt(o.Context, sub).Encode()
		if err == nil {
			id, err = o.Journal.Append(data)
		}
		if err != nil {
			o.reverseTransfers(sub.Ops, sub.Owner, done)
			return cid.Undef, reject(KindBusiness, "PERMIT-BIZ-003", "journal append failed", err)
		}
	}

	// Past this point nothing can fail.
	_ = o.Nonces.Claim(sub.Owner, sub.Salt)
	tx.Commit()
	return id, nil
}

func (o *Orchestrator) transfer(op allowance.Operation, from, to string) error {
	if op.TokenID != nil {
		return o.Ledger.TransferAsset(op.Token, *op.TokenID, from, to, op.AmountDelta)
	}
	return o.Ledger.Transfer(op.Token, from, to, op.AmountDelta)
}

// reverseTransfers undoes the first n executed transfer operations, newest
// first.
func (o *Orchestrator) reverseTransfers(ops []allowance.Operation, owner string, n int) {
	var executed []allowance.Operation
	for _, op := range ops {
		if len(executed) == n {
			break
		}
		if op.Mode() == allowance.ModeTransfer {
			executed = append(executed, op)
		}
	}
	for i := len(executed) - 1; i >= 0; i-- {
		op := executed[i]
		if op.TokenID != nil {
			_ = o.Ledger.TransferAsset(op.Token, *op.TokenID, op.Account, owner, op.AmountDelta)
		} else {
			_ = o.Ledger.Transfer(op.Token, op.Account, owner, op.AmountDelta)
		}
	}
}

// ApplyDirect executes operations the owner submits in person, with the
// context clock as the logical timestamp. No salt is claimed and nothing is
// journaled; this is the unsigned maintenance path.
func (o *Orchestrator) ApplyDirect(owner string, ops []allowance.Operation) error {
	if len(ops) == 0 {
		return reject(KindInput, "PERMIT-INPUT-001", "no operations", ErrEmptyBatch)
	}
	now := o.Now()
	tx := o.Allowances.Begin()
	for i, op := range ops {
		if op.Mode() == allowance.ModeTransfer {
			continue
		}
		key := tokenkey.Encode(op.Token, (*tokenkey.ID)(op.TokenID))
		if err := tx.Apply(owner, key, op, now); err != nil {
			return reject(KindBusiness, "PERMIT-BIZ-001",
				fmt.Sprintf("operation %d (%s on %s) rejected", i, op.Mode(), op.Token), err)
		}
	}
	done := 0
	for i, op := range ops {
		if op.Mode() != allowance.ModeTransfer {
			continue
		}
		if err := o.transfer(op, owner, op.Account); err != nil {
			o.reverseTransfers(ops, owner, done)
			return reject(KindBusiness, "PERMIT-BIZ-002",
				fmt.Sprintf("transfer %d of %s failed", i, op.Token), err)
		}
		done++
	}
	tx.Commit()
	return nil
}

// TransferFrom moves the owner's tokens on the strength of a previously
// granted allowance, consuming it. For a multi-token asset the per-asset
// allowance is consulted first and the collection-wide allowance serves as
// fallback.
func (o *Orchestrator) TransferFrom(spender, owner, token string, id *tokenkey.ID, to string, amount uint64) error {
	key := tokenkey.Encode(token, id)
	fallback := ""
	if id != nil {
		fallback = tokenkey.Encode(token, nil)
	}
	now := o.Now()
	tx := o.Allowances.Begin()
	if err := tx.Spend(owner, key, fallback, spender, amount, now); err != nil {
		return reject(KindBusiness, "PERMIT-BIZ-001",
			fmt.Sprintf("allowance of %s for %s does not cover %d", owner, spender, amount), err)
	}
	var err error
	if id != nil {
		err = o.Ledger.TransferAsset(token, [32]byte(*id), owner, to, amount)
	} else {
		err = o.Ledger.Transfer(token, owner, to, amount)
	}
	if err != nil {
		return reject(KindBusiness, "PERMIT-BIZ-002", "ledger transfer failed", err)
	}
	tx.Commit()
	return nil
}

// ClaimSalts burns salts the owner submits in person, making any signature
// bound to them unusable on this context.
func (o *Orchestrator) ClaimSalts(owner string, salts []nonce.Salt) error {
	if err := o.Nonces.ClaimMany(owner, salts); err != nil {
		return reject(KindAuth, "PERMIT-AUTH-004", "salt batch not claimable", err)
	}
	return nil
}

// ClaimSaltsSigned burns salts on the strength of the owner's signature over
// this context's salt list.
func (o *Orchestrator) ClaimSaltsSigned(owner string, deadline uint64, salts []nonce.Salt, sigB64 string) error {
	if now := o.Now(); now > deadline {
		return reject(KindAuth, "PERMIT-AUTH-001",
			fmt.Sprintf("deadline %d passed at %d", deadline, now), ErrSignatureExpired)
	}
	scope := saltsScope(o.Context, deadline, salts, nil)
	if err := keys.VerifyDetached(owner, scope, sigB64); err != nil {
		return reject(KindAuth, "PERMIT-AUTH-003", "signature does not verify for owner", errors.Join(ErrInvalidSignature, err))
	}
	return o.ClaimSalts(owner, salts)
}

// ClaimSaltsCrossContext burns salts using one signature over an unhinged
// root of per-context salt lists. proof must connect this context's list to
// the signed root.
func (o *Orchestrator) ClaimSaltsCrossContext(owner string, deadline uint64, salts []nonce.Salt, root unhinged.Hash, proof unhinged.Proof, sigB64 string) error {
	if now := o.Now(); now > deadline {
		return reject(KindAuth, "PERMIT-AUTH-001",
			fmt.Sprintf("deadline %d passed at %d", deadline, now), ErrSignatureExpired)
	}
	scope := saltsScope("", deadline, nil, &root)
	if err := keys.VerifyDetached(owner, scope, sigB64); err != nil {
		return reject(KindAuth, "PERMIT-AUTH-003", "signature does not verify for owner", errors.Join(ErrInvalidSignature, err))
	}
	leaf := SaltsLeaf(o.Context, salts)
	if err := unhinged.Verify(leaf, proof, root); err != nil {
		return reject(KindAuth, "PERMIT-AUTH-005", "inclusion proof does not connect salts to signed root", err)
	}
	return o.ClaimSalts(owner, salts)
}

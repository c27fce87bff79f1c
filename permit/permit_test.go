package permit

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"testing"

	"xdao.co/permit/allowance"
	"xdao.co/permit/journal/memstore"
	"xdao.co/permit/keys"
	"xdao.co/permit/nonce"
	"xdao.co/permit/tokenkey"
	"xdao.co/permit/unhinged"
)

func testSigner(b byte) (string, ed25519.PrivateKey) {
	seed := bytes.Repeat([]byte{b}, ed25519.SeedSize)
	return keys.SignerKeyFromSeed(seed), ed25519.NewKeyFromSeed(seed)
}

func testOrchestrator(context string) (*Orchestrator, *MemLedger) {
	ledger := NewMemLedger()
	o := New(context, ledger, memstore.New())
	o.Now = func() uint64 { return 1000 }
	return o, ledger
}

func testSalt(b byte) nonce.Salt {
	var s nonce.Salt
	for i := range s {
		s[i] = b
	}
	return s
}

func grant(token, spender string, amount, expiration uint64) allowance.Operation {
	return allowance.Operation{
		ModeOrExpiration: expiration,
		Token:            token,
		Account:          spender,
		AmountDelta:      amount,
	}
}

func signedSubmission(priv ed25519.PrivateKey, sub Submission) Submission {
	sub.Signature = keys.SignEd25519SHA256(SigningBytes(sub), priv)
	return sub
}

func TestPermitSingleContext(t *testing.T) {
	owner, priv := testSigner(1)
	o, _ := testOrchestrator("ctx-a")

	sub := signedSubmission(priv, Submission{
		Owner:     owner,
		Salt:      testSalt(1),
		Deadline:  2000,
		Timestamp: 500,
		Context:   "ctx-a",
		Ops:       []allowance.Operation{grant("tokenA", "spender", 100, 5000)},
	})

	id, err := o.Permit(sub)
	if err != nil {
		t.Fatalf("Permit: %v", err)
	}
	if !id.Defined() {
		t.Fatalf("expected a receipt CID")
	}
	got := o.Allowance(owner, "tokenA", nil, "spender")
	want := allowance.Allowance{Amount: 100, Expiration: 5000, Timestamp: 500}
	if got != want {
		t.Fatalf("allowance = %+v, want %+v", got, want)
	}
	if !o.IsClaimed(owner, testSalt(1)) {
		t.Fatalf("salt not claimed after execution")
	}

	t.Run("replay rejected", func(t *testing.T) {
		_, err := o.Permit(sub)
		if !errors.Is(err, nonce.ErrAlreadyClaimed) {
			t.Fatalf("err = %v, want ErrAlreadyClaimed", err)
		}
		if !IsKind(err, KindAuth) {
			t.Fatalf("replay should be an auth rejection, got %v", err)
		}
	})

	t.Run("receipt journaled", func(t *testing.T) {
		data, err := o.Journal.Get(id)
		if err != nil {
			t.Fatalf("journal get: %v", err)
		}
		r, err := DecodeReceipt(data)
		if err != nil {
			t.Fatalf("decode receipt: %v", err)
		}
		if r.Owner != owner || r.Context != "ctx-a" || len(r.Ops) != 1 {
			t.Fatalf("receipt = %+v", r)
		}
		if r.Ops[0].AmountDelta != "100" {
			t.Fatalf("receipt amount = %q, want \"100\"", r.Ops[0].AmountDelta)
		}
	})
}

func TestPermitRejections(t *testing.T) {
	owner, priv := testSigner(2)
	_, otherPriv := testSigner(3)

	base := func() Submission {
		return Submission{
			Owner:     owner,
			Salt:      testSalt(9),
			Deadline:  2000,
			Timestamp: 500,
			Context:   "ctx-a",
			Ops:       []allowance.Operation{grant("tokenA", "spender", 1, 5000)},
		}
	}

	tests := []struct {
		name string
		sub  func() Submission
		want error
		kind Kind
	}{
		{
			name: "empty batch",
			sub: func() Submission {
				s := base()
				s.Ops = nil
				return signedSubmission(priv, s)
			},
			want: ErrEmptyBatch,
			kind: KindInput,
		},
		{
			name: "deadline passed",
			sub: func() Submission {
				s := base()
				s.Deadline = 999
				return signedSubmission(priv, s)
			},
			want: ErrDeadlineExceeded,
			kind: KindAuth,
		},
		{
			name: "wrong context",
			sub: func() Submission {
				s := base()
				s.Context = "ctx-b"
				return signedSubmission(priv, s)
			},
			want: ErrWrongContext,
			kind: KindAuth,
		},
		{
			name: "malformed witness schema",
			sub: func() Submission {
				s := base()
				s.Witness = &Witness{Schema: "no parens"}
				return signedSubmission(priv, s)
			},
			want: ErrInvalidWitnessSchema,
			kind: KindInput,
		},
		{
			name: "wrong key",
			sub: func() Submission {
				return signedSubmission(otherPriv, base())
			},
			want: ErrInvalidSignature,
			kind: KindAuth,
		},
		{
			name: "tampered ops",
			sub: func() Submission {
				s := signedSubmission(priv, base())
				s.Ops[0].AmountDelta = 1 << 40
				return s
			},
			want: ErrInvalidSignature,
			kind: KindAuth,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o, _ := testOrchestrator("ctx-a")
			_, err := o.Permit(tc.sub())
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if !IsKind(err, tc.kind) {
				t.Fatalf("kind mismatch for %v, want %s", err, tc.kind)
			}
			if o.IsClaimed(owner, testSalt(9)) {
				t.Fatalf("salt claimed by rejected submission")
			}
		})
	}
}

func TestPermitAtomicity(t *testing.T) {
	owner, priv := testSigner(4)
	o, _ := testOrchestrator("ctx-a")

	// Second operation unlocks an unlocked record, which fails. The first
	// grant must not survive.
	ops := []allowance.Operation{
		grant("tokenA", "spender", 100, 5000),
		{ModeOrExpiration: uint64(allowance.ModeUnlock), Token: "tokenB", Account: "spender", AmountDelta: 7},
	}
	sub := signedSubmission(priv, Submission{
		Owner: owner, Salt: testSalt(4), Deadline: 2000, Timestamp: 500,
		Context: "ctx-a", Ops: ops,
	})
	_, err := o.Permit(sub)
	if !errors.Is(err, allowance.ErrNotLocked) {
		t.Fatalf("err = %v, want ErrNotLocked", err)
	}
	if !IsKind(err, KindBusiness) {
		t.Fatalf("apply failure should be a business rejection, got %v", err)
	}
	if got := o.Allowance(owner, "tokenA", nil, "spender"); got != (allowance.Allowance{}) {
		t.Fatalf("partial state leaked: %+v", got)
	}
	if o.IsClaimed(owner, testSalt(4)) {
		t.Fatalf("salt claimed by failed submission")
	}
}

func TestPermitOwnerTransfer(t *testing.T) {
	owner, priv := testSigner(5)
	o, ledger := testOrchestrator("ctx-a")
	ledger.Mint("tokenA", owner, 50)

	sub := signedSubmission(priv, Submission{
		Owner: owner, Salt: testSalt(5), Deadline: 2000, Timestamp: 500,
		Context: "ctx-a",
		Ops: []allowance.Operation{
			{ModeOrExpiration: uint64(allowance.ModeTransfer), Token: "tokenA", Account: "alice", AmountDelta: 30},
		},
	})
	if _, err := o.Permit(sub); err != nil {
		t.Fatalf("Permit: %v", err)
	}
	if got := ledger.Balance("tokenA", "alice"); got != 30 {
		t.Fatalf("alice balance = %d, want 30", got)
	}
	if got := ledger.Balance("tokenA", owner); got != 20 {
		t.Fatalf("owner balance = %d, want 20", got)
	}

	t.Run("insufficient balance reverses earlier moves", func(t *testing.T) {
		sub := signedSubmission(priv, Submission{
			Owner: owner, Salt: testSalt(6), Deadline: 2000, Timestamp: 600,
			Context: "ctx-a",
			Ops: []allowance.Operation{
				{ModeOrExpiration: uint64(allowance.ModeTransfer), Token: "tokenA", Account: "bob", AmountDelta: 10},
				{ModeOrExpiration: uint64(allowance.ModeTransfer), Token: "tokenA", Account: "carol", AmountDelta: 999},
			},
		})
		_, err := o.Permit(sub)
		if err == nil || !IsKind(err, KindBusiness) {
			t.Fatalf("err = %v, want business rejection", err)
		}
		if got := ledger.Balance("tokenA", "bob"); got != 0 {
			t.Fatalf("bob balance = %d after failed batch", got)
		}
		if got := ledger.Balance("tokenA", owner); got != 20 {
			t.Fatalf("owner balance = %d, want 20", got)
		}
	})
}

func TestPermitCrossContext(t *testing.T) {
	owner, priv := testSigner(6)
	contexts := []string{"ctx-a", "ctx-b", "ctx-c"}
	salt := testSalt(7)
	const timestamp = 500

	opsFor := func(ctx string) []allowance.Operation {
		return []allowance.Operation{grant("token-"+ctx, "spender", 100, 5000)}
	}

	leaves := make([]unhinged.Hash, len(contexts))
	for i, ctx := range contexts {
		leaves[i] = OpsLeaf(ctx, timestamp, opsFor(ctx))
	}
	root, err := unhinged.Root(leaves)
	if err != nil {
		t.Fatalf("Root: %v", err)
	}

	scope := SigningBytes(Submission{
		Owner: owner, Salt: salt, Deadline: 2000, Timestamp: timestamp,
		UnhingedRoot: &root,
	})
	sig := keys.SignEd25519SHA256(scope, priv)

	for i, ctx := range contexts {
		proof, err := unhinged.ProofAt(leaves, i)
		if err != nil {
			t.Fatalf("ProofAt(%d): %v", i, err)
		}
		o, _ := testOrchestrator(ctx)
		sub := Submission{
			Owner: owner, Salt: salt, Deadline: 2000, Timestamp: timestamp,
			Context: ctx, Ops: opsFor(ctx),
			Signature: sig, UnhingedRoot: &root, Proof: &proof,
		}
		if _, err := o.Permit(sub); err != nil {
			t.Fatalf("Permit on %s: %v", ctx, err)
		}
		got := o.Allowance(owner, "token-"+ctx, nil, "spender")
		if got.Amount != 100 || got.Timestamp != timestamp {
			t.Fatalf("allowance on %s = %+v", ctx, got)
		}
	}

	t.Run("proof for sibling context rejected", func(t *testing.T) {
		proof, err := unhinged.ProofAt(leaves, 0)
		if err != nil {
			t.Fatalf("ProofAt: %v", err)
		}
		o, _ := testOrchestrator("ctx-b")
		sub := Submission{
			Owner: owner, Salt: salt, Deadline: 2000, Timestamp: timestamp,
			Context: "ctx-b", Ops: opsFor("ctx-b"),
			Signature: sig, UnhingedRoot: &root, Proof: &proof,
		}
		_, err = o.Permit(sub)
		if !errors.Is(err, unhinged.ErrProofMismatch) {
			t.Fatalf("err = %v, want ErrProofMismatch", err)
		}
	})

	t.Run("missing proof rejected early", func(t *testing.T) {
		o, _ := testOrchestrator("ctx-a")
		sub := Submission{
			Owner: owner, Salt: salt, Deadline: 2000, Timestamp: timestamp,
			Context: "ctx-a", Ops: opsFor("ctx-a"),
			Signature: sig, UnhingedRoot: &root,
		}
		_, err := o.Permit(sub)
		if !errors.Is(err, ErrMissingProof) {
			t.Fatalf("err = %v, want ErrMissingProof", err)
		}
	})
}

func TestTransferFrom(t *testing.T) {
	owner, priv := testSigner(7)
	o, ledger := testOrchestrator("ctx-a")
	ledger.Mint("tokenA", owner, 100)

	sub := signedSubmission(priv, Submission{
		Owner: owner, Salt: testSalt(8), Deadline: 2000, Timestamp: 500,
		Context: "ctx-a",
		Ops:     []allowance.Operation{grant("tokenA", "spender", 60, 5000)},
	})
	if _, err := o.Permit(sub); err != nil {
		t.Fatalf("Permit: %v", err)
	}

	if err := o.TransferFrom("spender", owner, "tokenA", nil, "alice", 40); err != nil {
		t.Fatalf("TransferFrom: %v", err)
	}
	if got := ledger.Balance("tokenA", "alice"); got != 40 {
		t.Fatalf("alice balance = %d, want 40", got)
	}
	if got := o.Allowance(owner, "tokenA", nil, "spender").Amount; got != 20 {
		t.Fatalf("remaining allowance = %d, want 20", got)
	}

	t.Run("over the remainder", func(t *testing.T) {
		err := o.TransferFrom("spender", owner, "tokenA", nil, "alice", 21)
		if !errors.Is(err, allowance.ErrInsufficientAllowance) {
			t.Fatalf("err = %v, want ErrInsufficientAllowance", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		o.Now = func() uint64 { return 6000 }
		defer func() { o.Now = func() uint64 { return 1000 } }()
		err := o.TransferFrom("spender", owner, "tokenA", nil, "alice", 1)
		if !errors.Is(err, allowance.ErrAllowanceExpired) {
			t.Fatalf("err = %v, want ErrAllowanceExpired", err)
		}
	})
}

func TestTransferFromCollectionFallback(t *testing.T) {
	owner, priv := testSigner(8)
	o, ledger := testOrchestrator("ctx-a")

	id := tokenkey.ID{1, 2, 3}
	ledger.MintAsset("nft", [32]byte(id), owner, 5)

	// Collection-wide grant: nil id.
	sub := signedSubmission(priv, Submission{
		Owner: owner, Salt: testSalt(9), Deadline: 2000, Timestamp: 500,
		Context: "ctx-a",
		Ops:     []allowance.Operation{grant("nft", "spender", 10, 5000)},
	})
	if _, err := o.Permit(sub); err != nil {
		t.Fatalf("Permit: %v", err)
	}

	if err := o.TransferFrom("spender", owner, "nft", &id, "alice", 3); err != nil {
		t.Fatalf("TransferFrom via collection fallback: %v", err)
	}
	if got := ledger.BalanceAsset("nft", [32]byte(id), "alice"); got != 3 {
		t.Fatalf("alice asset balance = %d, want 3", got)
	}
	if got := o.Allowance(owner, "nft", nil, "spender").Amount; got != 7 {
		t.Fatalf("collection allowance = %d, want 7", got)
	}
	if got := o.Allowance(owner, "nft", &id, "spender").Amount; got != 0 {
		t.Fatalf("per-asset allowance = %d, want 0", got)
	}
}

func TestApplyDirect(t *testing.T) {
	owner, _ := testSigner(9)
	o, _ := testOrchestrator("ctx-a")

	if err := o.ApplyDirect(owner, []allowance.Operation{grant("tokenA", "spender", 100, 5000)}); err != nil {
		t.Fatalf("ApplyDirect: %v", err)
	}
	got := o.Allowance(owner, "tokenA", nil, "spender")
	if got.Amount != 100 || got.Timestamp != 1000 {
		t.Fatalf("allowance = %+v", got)
	}

	t.Run("empty", func(t *testing.T) {
		if err := o.ApplyDirect(owner, nil); !errors.Is(err, ErrEmptyBatch) {
			t.Fatalf("err = %v, want ErrEmptyBatch", err)
		}
	})
}

func TestClaimSalts(t *testing.T) {
	owner, priv := testSigner(10)

	t.Run("direct", func(t *testing.T) {
		o, _ := testOrchestrator("ctx-a")
		salts := []nonce.Salt{testSalt(1), testSalt(2)}
		if err := o.ClaimSalts(owner, salts); err != nil {
			t.Fatalf("ClaimSalts: %v", err)
		}
		if !o.IsClaimed(owner, testSalt(1)) || !o.IsClaimed(owner, testSalt(2)) {
			t.Fatalf("salts not claimed")
		}
	})

	t.Run("signed", func(t *testing.T) {
		o, _ := testOrchestrator("ctx-a")
		salts := []nonce.Salt{testSalt(3)}
		sig := keys.SignEd25519SHA256(SaltClaimSigningBytes("ctx-a", 2000, salts), priv)
		if err := o.ClaimSaltsSigned(owner, 2000, salts, sig); err != nil {
			t.Fatalf("ClaimSaltsSigned: %v", err)
		}
		if !o.IsClaimed(owner, testSalt(3)) {
			t.Fatalf("salt not claimed")
		}
	})

	t.Run("signed wrong context", func(t *testing.T) {
		o, _ := testOrchestrator("ctx-b")
		salts := []nonce.Salt{testSalt(3)}
		sig := keys.SignEd25519SHA256(SaltClaimSigningBytes("ctx-a", 2000, salts), priv)
		err := o.ClaimSaltsSigned(owner, 2000, salts, sig)
		if !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("err = %v, want ErrInvalidSignature", err)
		}
	})

	t.Run("signed past deadline", func(t *testing.T) {
		o, _ := testOrchestrator("ctx-a")
		salts := []nonce.Salt{testSalt(3)}
		sig := keys.SignEd25519SHA256(SaltClaimSigningBytes("ctx-a", 900, salts), priv)
		err := o.ClaimSaltsSigned(owner, 900, salts, sig)
		if !errors.Is(err, ErrSignatureExpired) {
			t.Fatalf("err = %v, want ErrSignatureExpired", err)
		}
	})

	t.Run("cross-context", func(t *testing.T) {
		contexts := []string{"ctx-a", "ctx-b"}
		saltsFor := map[string][]nonce.Salt{
			"ctx-a": {testSalt(4)},
			"ctx-b": {testSalt(5), testSalt(6)},
		}
		leaves := make([]unhinged.Hash, len(contexts))
		for i, ctx := range contexts {
			leaves[i] = SaltsLeaf(ctx, saltsFor[ctx])
		}
		root, err := unhinged.Root(leaves)
		if err != nil {
			t.Fatalf("Root: %v", err)
		}
		sig := keys.SignEd25519SHA256(SaltClaimRootSigningBytes(2000, root), priv)

		for i, ctx := range contexts {
			proof, err := unhinged.ProofAt(leaves, i)
			if err != nil {
				t.Fatalf("ProofAt(%d): %v", i, err)
			}
			o, _ := testOrchestrator(ctx)
			if err := o.ClaimSaltsCrossContext(owner, 2000, saltsFor[ctx], root, proof, sig); err != nil {
				t.Fatalf("ClaimSaltsCrossContext on %s: %v", ctx, err)
			}
			for _, s := range saltsFor[ctx] {
				if !o.IsClaimed(owner, s) {
					t.Fatalf("salt %s not claimed on %s", s, ctx)
				}
			}
		}
	})
}

func TestDilithiumSubmission(t *testing.T) {
	pub, priv, err := keys.GenerateDilithium3Keypair(bytes.NewReader(bytes.Repeat([]byte{7}, 256)))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	owner, err := keys.SignerKeyFromDilithium3(pub)
	if err != nil {
		t.Fatalf("signer key: %v", err)
	}
	o, _ := testOrchestrator("ctx-a")

	sub := Submission{
		Owner: owner, Salt: testSalt(11), Deadline: 2000, Timestamp: 500,
		Context: "ctx-a",
		Ops:     []allowance.Operation{grant("tokenA", "spender", 42, 5000)},
	}
	sig, err := keys.SignDilithium3(SigningBytes(sub), "sha256", priv)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	sub.Signature = sig
	if _, err := o.Permit(sub); err != nil {
		t.Fatalf("Permit: %v", err)
	}
	if got := o.Allowance(owner, "tokenA", nil, "spender").Amount; got != 42 {
		t.Fatalf("allowance = %d, want 42", got)
	}
}

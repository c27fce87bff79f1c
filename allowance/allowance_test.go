package allowance

import (
	"errors"
	"testing"
)

const (
	owner   = "ed25519:owner"
	token   = "tok-1"
	spender = "ed25519:spender"
)

func increase(amount, expiration uint64) Operation {
	return Operation{ModeOrExpiration: expiration, Token: token, Account: spender, AmountDelta: amount}
}

func decrease(amount uint64) Operation {
	return Operation{ModeOrExpiration: uint64(ModeDecrease), Token: token, Account: spender, AmountDelta: amount}
}

func lock() Operation {
	return Operation{ModeOrExpiration: uint64(ModeLock), Token: token, Account: spender}
}

func unlock(amount uint64) Operation {
	return Operation{ModeOrExpiration: uint64(ModeUnlock), Token: token, Account: spender, AmountDelta: amount}
}

func mustApply(t *testing.T, s *Store, op Operation, now uint64) {
	t.Helper()
	tx := s.Begin()
	if err := tx.Apply(owner, token, op, now); err != nil {
		t.Fatalf("Apply(%s): %v", op.Mode(), err)
	}
	tx.Commit()
}

func wantRecord(t *testing.T, s *Store, amount, expiration, timestamp uint64) {
	t.Helper()
	got := s.Get(owner, token, spender)
	want := Allowance{Amount: amount, Expiration: expiration, Timestamp: timestamp}
	if got != want {
		t.Fatalf("record mismatch: got %+v want %+v", got, want)
	}
}

func TestApply_GrantThenQuery(t *testing.T) {
	const T = uint64(1_700_000_000)
	s := NewStore()
	mustApply(t, s, increase(100, T+86400), T)
	wantRecord(t, s, 100, T+86400, T)
}

func TestApply_DecreaseKeepsBookkeeping(t *testing.T) {
	const T = uint64(1_700_000_000)
	s := NewStore()
	mustApply(t, s, increase(100, T+86400), T)
	mustApply(t, s, decrease(30), T+1)
	wantRecord(t, s, 70, T+86400, T)
}

func TestApply_LockZerosAndBlocks(t *testing.T) {
	const T = uint64(1_700_000_000)
	s := NewStore()
	mustApply(t, s, increase(100, T+86400), T)
	mustApply(t, s, lock(), T+2)
	wantRecord(t, s, 0, ExpirationLocked, T+2)

	tx := s.Begin()
	if err := tx.Apply(owner, token, decrease(10), T+3); !errors.Is(err, ErrAllowanceLocked) {
		t.Fatalf("Decrease on locked record: got %v want ErrAllowanceLocked", err)
	}
	if err := tx.Apply(owner, token, increase(10, T+99999), T+3); !errors.Is(err, ErrAllowanceLocked) {
		t.Fatalf("Increase on locked record: got %v want ErrAllowanceLocked", err)
	}
}

func TestApply_UnlockMustBeStrictlyNewer(t *testing.T) {
	const T = uint64(1_700_000_000)
	s := NewStore()
	mustApply(t, s, increase(100, T+86400), T)
	mustApply(t, s, lock(), T+2)

	tx := s.Begin()
	if err := tx.Apply(owner, token, unlock(50), T+1); !errors.Is(err, ErrAllowanceLocked) {
		t.Fatalf("stale unlock: got %v want ErrAllowanceLocked", err)
	}
	if err := tx.Apply(owner, token, unlock(50), T+2); !errors.Is(err, ErrAllowanceLocked) {
		t.Fatalf("equal-timestamp unlock: got %v want ErrAllowanceLocked", err)
	}

	mustApply(t, s, unlock(50), T+3)
	wantRecord(t, s, 50, ExpirationNever, T+3)
}

func TestApply_UnlockRequiresLockedRecord(t *testing.T) {
	s := NewStore()
	tx := s.Begin()
	if err := tx.Apply(owner, token, unlock(50), 10); !errors.Is(err, ErrNotLocked) {
		t.Fatalf("unlock on unlocked record: got %v want ErrNotLocked", err)
	}
}

func TestApply_IncreaseCommutesAcrossContexts(t *testing.T) {
	// The same pair of increases, delivered in either order, must converge.
	const T = uint64(1_700_000_000)
	a := increase(40, T+100)
	b := increase(60, T+500)

	ordered := NewStore()
	mustApply(t, ordered, a, T)
	mustApply(t, ordered, b, T)

	reversed := NewStore()
	mustApply(t, reversed, b, T)
	mustApply(t, reversed, a, T)

	if ordered.Get(owner, token, spender) != reversed.Get(owner, token, spender) {
		t.Fatalf("orders diverged: %+v vs %+v",
			ordered.Get(owner, token, spender), reversed.Get(owner, token, spender))
	}
	// Tie on timestamp: amounts sum, larger expiration wins.
	wantRecord(t, ordered, 100, T+500, T)
}

func TestApply_StaleIncreaseAddsAmountOnly(t *testing.T) {
	const T = uint64(1_700_000_000)
	s := NewStore()
	mustApply(t, s, increase(100, T+86400), T+10)
	// Older write delivered late: amount still lands, bookkeeping kept.
	mustApply(t, s, increase(25, T+50), T+5)
	wantRecord(t, s, 125, T+86400, T+10)
}

func TestApply_ZeroDeltaUpdatesBookkeepingOnly(t *testing.T) {
	const T = uint64(1_700_000_000)
	s := NewStore()
	mustApply(t, s, increase(100, T+100), T)
	mustApply(t, s, increase(0, T+900), T+1)
	wantRecord(t, s, 100, T+900, T+1)
}

func TestApply_StickyMax(t *testing.T) {
	const T = uint64(1_700_000_000)
	s := NewStore()
	mustApply(t, s, increase(MaxDelta, T+86400), T)
	wantRecord(t, s, MaxAmount, T+86400, T)

	// Ordinary decrease never decrements sticky max.
	mustApply(t, s, decrease(1000), T+1)
	wantRecord(t, s, MaxAmount, T+86400, T)

	// MaxDelta decrease is the explicit revoke-all and does force zero.
	mustApply(t, s, decrease(MaxDelta), T+2)
	wantRecord(t, s, 0, T+86400, T)
}

func TestApply_AdditionSaturates(t *testing.T) {
	const T = uint64(1_700_000_000)
	s := NewStore()
	mustApply(t, s, increase(MaxAmount-5, T+100), T)
	mustApply(t, s, increase(100, T+100), T)
	wantRecord(t, s, MaxAmount, T+100, T)
}

func TestApply_DecreaseFloorsAtZero(t *testing.T) {
	const T = uint64(1_700_000_000)
	s := NewStore()
	mustApply(t, s, increase(10, T+100), T)
	mustApply(t, s, decrease(50), T+1)
	wantRecord(t, s, 0, T+100, T)
}

func TestApply_LockPrecedence(t *testing.T) {
	// Once locked at T, nothing short of a strictly newer unlock mutates amount.
	const T = uint64(1_700_000_000)
	s := NewStore()
	mustApply(t, s, increase(100, T+86400), T)
	mustApply(t, s, lock(), T+5)

	attempts := []struct {
		name string
		op   Operation
		now  uint64
	}{
		{"increase newer", increase(10, T+99999), T + 6},
		{"increase stale", increase(10, T+99999), T + 1},
		{"decrease", decrease(10), T + 6},
		{"unlock stale", unlock(10), T + 4},
		{"unlock equal", unlock(10), T + 5},
	}
	for _, at := range attempts {
		t.Run(at.name, func(t *testing.T) {
			tx := s.Begin()
			if err := tx.Apply(owner, token, at.op, at.now); err == nil {
				t.Fatalf("expected rejection while locked")
			}
		})
	}
	wantRecord(t, s, 0, ExpirationLocked, T+5)
}

func TestApply_TransferModeRejected(t *testing.T) {
	s := NewStore()
	tx := s.Begin()
	op := Operation{ModeOrExpiration: uint64(ModeTransfer), Token: token, Account: spender, AmountDelta: 5}
	if err := tx.Apply(owner, token, op, 10); !errors.Is(err, ErrTransferMode) {
		t.Fatalf("got %v want ErrTransferMode", err)
	}
}

func TestTx_SpendConsumesAndChecks(t *testing.T) {
	const T = uint64(1_700_000_000)
	s := NewStore()
	mustApply(t, s, increase(100, T+86400), T)

	tx := s.Begin()
	if err := tx.Spend(owner, token, "", spender, 30, T+1); err != nil {
		t.Fatalf("Spend: %v", err)
	}
	if err := tx.Spend(owner, token, "", spender, 80, T+1); !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("overspend: got %v want ErrInsufficientAllowance", err)
	}
	tx.Commit()
	wantRecord(t, s, 70, T+86400, T)

	tx = s.Begin()
	if err := tx.Spend(owner, token, "", spender, 1, T+86401); !errors.Is(err, ErrAllowanceExpired) {
		t.Fatalf("expired spend: got %v want ErrAllowanceExpired", err)
	}
}

func TestTx_SpendCollectionFallback(t *testing.T) {
	const T = uint64(1_700_000_000)
	const idKey = "tok-1/asset-7"
	s := NewStore()
	// Collection-wide grant only; the per-asset record stays zero.
	mustApply(t, s, increase(100, T+86400), T)

	tx := s.Begin()
	if err := tx.Spend(owner, idKey, token, spender, 40, T+1); err != nil {
		t.Fatalf("fallback spend: %v", err)
	}
	tx.Commit()
	wantRecord(t, s, 60, T+86400, T)
	if got := s.Get(owner, idKey, spender); got != (Allowance{}) {
		t.Fatalf("per-asset record mutated: %+v", got)
	}
}

func TestTx_AbandonedTxLeavesStoreUntouched(t *testing.T) {
	const T = uint64(1_700_000_000)
	s := NewStore()
	mustApply(t, s, increase(100, T+86400), T)

	tx := s.Begin()
	if err := tx.Apply(owner, token, decrease(30), T+1); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := tx.Apply(owner, token, unlock(5), T+2); err == nil {
		t.Fatalf("expected failure on unlock of unlocked record")
	}
	// Batch failed mid-way: do not commit, nothing may persist.
	wantRecord(t, s, 100, T+86400, T)
}

func TestTx_LaterOpsSeeEarlierEffects(t *testing.T) {
	const T = uint64(1_700_000_000)
	s := NewStore()
	tx := s.Begin()
	if err := tx.Apply(owner, token, increase(100, T+86400), T); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := tx.Spend(owner, token, "", spender, 60, T); err != nil {
		t.Fatalf("Spend within same tx: %v", err)
	}
	tx.Commit()
	wantRecord(t, s, 40, T+86400, T)
}

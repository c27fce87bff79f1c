// Package testkit provides the conformance suite every journal backend must
// pass.
package testkit

import (
	"bytes"
	"testing"

	"github.com/ipfs/go-cid"

	"xdao.co/permit/cidutil"
	"xdao.co/permit/journal"
)

// NewStore constructs a fresh, empty journal for a test. The returned store
// MUST be isolated from other tests.
type NewStore func(t *testing.T) journal.Store

func RunConformance(t *testing.T, newStore NewStore) {
	t.Helper()

	t.Run("AppendGetRoundTrip", func(t *testing.T) {
		st := newStore(t)
		want := []byte("receipt bytes")

		id, err := st.Append(want)
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		wantID, err := cidutil.CID(want)
		if err != nil {
			t.Fatalf("cidutil.CID failed: %v", err)
		}
		if id != wantID {
			t.Fatalf("Append CID mismatch: got %s want %s", id, wantID)
		}

		got, err := st.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch")
		}
	})

	t.Run("AppendIdempotent", func(t *testing.T) {
		st := newStore(t)
		b := []byte("same receipt")

		id1, err := st.Append(b)
		if err != nil {
			t.Fatalf("Append(1) failed: %v", err)
		}
		id2, err := st.Append(b)
		if err != nil {
			t.Fatalf("Append(2) failed: %v", err)
		}
		if id1 != id2 {
			t.Fatalf("idempotent Append returned different CIDs: %s vs %s", id1, id2)
		}
	})

	t.Run("GetMissingReturnsNotFound", func(t *testing.T) {
		st := newStore(t)
		missing, err := cidutil.CID([]byte("never appended"))
		if err != nil {
			t.Fatalf("cidutil.CID failed: %v", err)
		}
		if st.Has(missing) {
			t.Fatalf("Has reported a receipt that was never appended")
		}
		if _, err := st.Get(missing); !journal.IsNotFound(err) {
			t.Fatalf("Get missing: got %v want ErrNotFound", err)
		}
	})

	t.Run("UndefinedCIDRejected", func(t *testing.T) {
		st := newStore(t)
		if st.Has(cid.Undef) {
			t.Fatalf("Has(cid.Undef) reported true")
		}
		if _, err := st.Get(cid.Undef); err == nil {
			t.Fatalf("Get(cid.Undef) accepted")
		}
	})
}

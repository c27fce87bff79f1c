package memstore

import (
	"testing"

	"xdao.co/permit/journal"
	"xdao.co/permit/journal/testkit"
)

func TestMemStore_Conformance(t *testing.T) {
	testkit.RunConformance(t, func(t *testing.T) journal.Store {
		return New()
	})
}

func TestMemStore_ReturnsCopies(t *testing.T) {
	j := New()
	data := []byte("receipt")
	id, err := j.Append(data)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	got, err := j.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got[0] = 'X'
	again, err := j.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(again) != "receipt" {
		t.Fatalf("stored receipt mutated through returned slice")
	}
}

package journal

import (
	"fmt"

	"github.com/ipfs/go-cid"

	"xdao.co/permit/cidutil"
)

// NamedStore associates a Store with a stable backend name, for per-backend
// reporting when receipts are mirrored.
type NamedStore struct {
	Name  string
	Store Store
}

// Fanout mirrors every receipt to all configured backends.
//
// Reads fall back in backend order. Appends go to all backends and require
// all returned CIDs to match, otherwise ErrCIDMismatch is returned.
type Fanout struct {
	Backends []NamedStore
}

var _ Store = (*Fanout)(nil)

// AppendAll writes the same receipt to every backend and returns the
// canonical CID plus the per-backend CID map.
func (f Fanout) AppendAll(bytes []byte) (cid.Cid, map[string]cid.Cid, error) {
	want, err := cidutil.CID(bytes)
	if err != nil {
		return cid.Undef, nil, err
	}
	if !want.Defined() {
		return cid.Undef, nil, ErrInvalidCID
	}
	if len(f.Backends) == 0 {
		return cid.Undef, nil, fmt.Errorf("journal: Fanout has no backends")
	}

	out := make(map[string]cid.Cid, len(f.Backends))
	for _, b := range f.Backends {
		if b.Store == nil {
			return cid.Undef, nil, fmt.Errorf("journal: nil store for backend %q", b.Name)
		}
		got, err := b.Store.Append(bytes)
		if err != nil {
			return cid.Undef, nil, err
		}
		out[b.Name] = got
		if got != want {
			return cid.Undef, out, ErrCIDMismatch
		}
	}
	return want, out, nil
}

func (f Fanout) Append(bytes []byte) (cid.Cid, error) {
	id, _, err := f.AppendAll(bytes)
	return id, err
}

func (f Fanout) Get(id cid.Cid) ([]byte, error) {
	for _, b := range f.Backends {
		if b.Store == nil {
			continue
		}
		data, err := b.Store.Get(id)
		if err == nil {
			return data, nil
		}
		if IsNotFound(err) {
			continue
		}
		return nil, err
	}
	return nil, ErrNotFound
}

func (f Fanout) Has(id cid.Cid) bool {
	for _, b := range f.Backends {
		if b.Store != nil && b.Store.Has(id) {
			return true
		}
	}
	return false
}

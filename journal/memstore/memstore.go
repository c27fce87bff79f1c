// Package memstore implements an in-memory journal, for tests and for
// daemons that do not need durable receipts.
package memstore

import (
	"bytes"

	"github.com/ipfs/go-cid"

	"xdao.co/permit/cidutil"
	"xdao.co/permit/journal"
)

type Journal struct {
	receipts map[cid.Cid][]byte
}

func New() *Journal {
	return &Journal{receipts: make(map[cid.Cid][]byte)}
}

func (j *Journal) Append(data []byte) (cid.Cid, error) {
	id, err := cidutil.CID(data)
	if err != nil {
		return cid.Undef, err
	}
	if !id.Defined() {
		return cid.Undef, journal.ErrInvalidCID
	}
	if existing, ok := j.receipts[id]; ok {
		if !bytes.Equal(existing, data) {
			return cid.Undef, journal.ErrImmutable
		}
		return id, nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	j.receipts[id] = cp
	return id, nil
}

func (j *Journal) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, journal.ErrInvalidCID
	}
	data, ok := j.receipts[id]
	if !ok {
		return nil, journal.ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (j *Journal) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	_, ok := j.receipts[id]
	return ok
}

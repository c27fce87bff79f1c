// Package localfs implements a filesystem-backed journal.
//
// Receipts are stored as write-once files keyed strictly by CID. The backend
// is offline and deterministic: it never uses the network and never depends
// on wall-clock time.
package localfs

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/ipfs/go-cid"

	"xdao.co/permit/cidutil"
	"xdao.co/permit/journal"
)

type Journal struct {
	root string
}

// New constructs a filesystem journal rooted at root. The directory will be
// created if needed.
func New(root string) (*Journal, error) {
	if root == "" {
		return nil, errors.New("localfs: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Journal{root: root}, nil
}

func (j *Journal) Append(bytes []byte) (cid.Cid, error) {
	id, err := cidutil.CID(bytes)
	if err != nil {
		return cid.Undef, err
	}
	if !id.Defined() {
		return cid.Undef, journal.ErrInvalidCID
	}

	path := j.pathFor(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return cid.Undef, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o444)
	if err != nil {
		if os.IsExist(err) {
			existing, rerr := j.Get(id)
			if rerr != nil {
				// Existing but unreadable or corrupted: immutability violation.
				return cid.Undef, journal.ErrImmutable
			}
			if string(existing) != string(bytes) {
				return cid.Undef, journal.ErrImmutable
			}
			return id, nil
		}
		return cid.Undef, err
	}
	defer f.Close()

	if _, err := f.Write(bytes); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return cid.Undef, err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return cid.Undef, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return cid.Undef, err
	}

	return id, nil
}

func (j *Journal) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, journal.ErrInvalidCID
	}
	path := j.pathFor(id)
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, journal.ErrNotFound
		}
		return nil, err
	}
	got, err := cidutil.CID(b)
	if err != nil {
		return nil, err
	}
	if got != id {
		return nil, journal.ErrCIDMismatch
	}
	return b, nil
}

func (j *Journal) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	_, err := os.Stat(j.pathFor(id))
	return err == nil
}

func (j *Journal) pathFor(id cid.Cid) string {
	s := id.String()
	if len(s) < 2 {
		return filepath.Join(j.root, s)
	}
	return filepath.Join(j.root, s[:2], s)
}

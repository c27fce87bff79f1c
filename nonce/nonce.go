// Package nonce implements the sparse replay-protection ledger.
//
// Salts are caller-chosen 256-bit values, not sequence numbers: independent
// operations must not serialize behind each other, and the same logical
// authorization must be able to carry an identical identifier on every
// execution context so one signature authorizes claims everywhere.
package nonce

import (
	"encoding/hex"
	"errors"
)

var ErrAlreadyClaimed = errors.New("nonce: salt already claimed")

// Salt identifies one authorization instance within an owner's claim space.
type Salt [32]byte

func (s Salt) String() string { return hex.EncodeToString(s[:]) }

// ParseSalt decodes a 64-char hex salt.
func ParseSalt(s string) (Salt, error) {
	var out Salt
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(b) != len(out) {
		return out, errors.New("nonce: salt must be 32 bytes")
	}
	copy(out[:], b)
	return out, nil
}

// Space is the claimed-salt ledger for a single execution context.
//
// A claim is immutable: there is no unclaim. Construct one Space per isolated
// ledger; there is no ambient global.
type Space struct {
	claimed map[string]map[Salt]struct{}
}

func NewSpace() *Space {
	return &Space{claimed: make(map[string]map[Salt]struct{})}
}

func (s *Space) IsClaimed(owner string, salt Salt) bool {
	_, ok := s.claimed[owner][salt]
	return ok
}

// Claim marks one salt as used.
func (s *Space) Claim(owner string, salt Salt) error {
	if s.IsClaimed(owner, salt) {
		return ErrAlreadyClaimed
	}
	set := s.claimed[owner]
	if set == nil {
		set = make(map[Salt]struct{})
		s.claimed[owner] = set
	}
	set[salt] = struct{}{}
	return nil
}

// ClaimMany claims every salt or none of them. A salt already claimed, or
// repeated within the batch, fails the whole batch.
func (s *Space) ClaimMany(owner string, salts []Salt) error {
	seen := make(map[Salt]struct{}, len(salts))
	for _, salt := range salts {
		if s.IsClaimed(owner, salt) {
			return ErrAlreadyClaimed
		}
		if _, dup := seen[salt]; dup {
			return ErrAlreadyClaimed
		}
		seen[salt] = struct{}{}
	}
	for _, salt := range salts {
		// Cannot fail after the precheck; Claim keeps the invariant local.
		if err := s.Claim(owner, salt); err != nil {
			return err
		}
	}
	return nil
}

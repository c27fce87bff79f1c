package allowance

// Amount and expiration sentinels.
//
// MaxAmount means "unlimited" and is sticky: ordinary spending never
// decrements it. ExpirationLocked is reserved; it is distinct from the zero
// value (fresh record) and from any real unix timestamp a caller would set.
const (
	MaxAmount uint64 = ^uint64(0)
	MaxDelta  uint64 = ^uint64(0)

	ExpirationNever  uint64 = ^uint64(0)
	ExpirationLocked uint64 = 1
)

// Allowance is the permission state for one (owner, token key, spender)
// triple. The zero value is the implicit initial record: nothing approved,
// never written.
type Allowance struct {
	Amount     uint64
	Expiration uint64
	Timestamp  uint64
}

// Locked reports whether the record is under emergency lock.
func (a Allowance) Locked() bool { return a.Expiration == ExpirationLocked }

// Mode selects the state transition an Operation performs.
type Mode uint64

const (
	ModeTransfer Mode = 0
	ModeDecrease Mode = 1
	ModeLock     Mode = 2
	ModeUnlock   Mode = 3

	// modeThreshold separates mode tags from increase expirations.
	modeThreshold uint64 = 3
)

// Operation is one instruction against a single allowance record.
//
// ModeOrExpiration is a tagged value: 0..3 select Transfer, Decrease, Lock,
// Unlock; anything above 3 is an Increase whose value is the candidate new
// expiration. TokenID is nil for fungible tokens (and for collection-wide
// grants); a non-nil TokenID addresses one asset within a collection.
type Operation struct {
	ModeOrExpiration uint64
	Token            string
	TokenID          *[32]byte
	Account          string
	AmountDelta      uint64
}

// Mode returns the operation's mode tag. Increase operations report
// ModeIncrease regardless of the embedded expiration value.
func (o Operation) Mode() Mode {
	if o.ModeOrExpiration > modeThreshold {
		return ModeIncrease
	}
	return Mode(o.ModeOrExpiration)
}

// ModeIncrease is a synthetic tag for ModeOrExpiration values above the
// reserved range. The wire encoding stays the raw ModeOrExpiration value.
const ModeIncrease Mode = 4

func (m Mode) String() string {
	switch m {
	case ModeTransfer:
		return "transfer"
	case ModeDecrease:
		return "decrease"
	case ModeLock:
		return "lock"
	case ModeUnlock:
		return "unlock"
	case ModeIncrease:
		return "increase"
	}
	return "invalid"
}

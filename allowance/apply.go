package allowance

// apply is the pure transition function for non-transfer modes.
//
// now is the logical timestamp of the incoming write. The rules, mode by mode:
//
//   - Decrease: defensive; never blocked or reordered by timestamp races.
//     Timestamp and expiration stay untouched. MaxDelta forces zero even for
//     a sticky-max record; an ordinary delta never decrements sticky max.
//   - Lock: the emergency brake. Always wins, regardless of the stored
//     timestamp.
//   - Unlock: must be strictly newer than the lock it lifts.
//   - Increase: additive even when stale (concurrent grants from different
//     contexts must both land), but bookkeeping (timestamp, expiration) only
//     moves forward. An exact timestamp tie keeps the larger expiration.
func apply(cur Allowance, op Operation, now uint64) (Allowance, error) {
	switch op.Mode() {
	case ModeTransfer:
		return cur, ErrTransferMode

	case ModeDecrease:
		if cur.Locked() {
			return cur, ErrAllowanceLocked
		}
		switch {
		case op.AmountDelta == MaxDelta:
			cur.Amount = 0
		case cur.Amount == MaxAmount:
			// Sticky max: ordinary spending never decrements it.
		case cur.Amount >= op.AmountDelta:
			cur.Amount -= op.AmountDelta
		default:
			cur.Amount = 0
		}
		return cur, nil

	case ModeLock:
		return Allowance{Amount: 0, Expiration: ExpirationLocked, Timestamp: now}, nil

	case ModeUnlock:
		if !cur.Locked() {
			return cur, ErrNotLocked
		}
		if now <= cur.Timestamp {
			return cur, ErrAllowanceLocked
		}
		return Allowance{Amount: op.AmountDelta, Expiration: ExpirationNever, Timestamp: now}, nil

	default: // ModeIncrease
		if cur.Locked() {
			return cur, ErrAllowanceLocked
		}
		switch {
		case op.AmountDelta == MaxDelta:
			cur.Amount = MaxAmount
		case op.AmountDelta > 0:
			cur.Amount = saturatingAdd(cur.Amount, op.AmountDelta)
		}
		switch {
		case now > cur.Timestamp:
			cur.Timestamp = now
			cur.Expiration = op.ModeOrExpiration
		case now == cur.Timestamp:
			if op.ModeOrExpiration > cur.Expiration {
				cur.Expiration = op.ModeOrExpiration
			}
		}
		// now < cur.Timestamp: stale write; amount already added, bookkeeping kept.
		return cur, nil
	}
}

// spend consumes amount from a record on behalf of a transfer.
func spend(cur Allowance, amount, now uint64) (Allowance, error) {
	if cur.Locked() {
		return cur, ErrAllowanceLocked
	}
	if now > cur.Expiration {
		return cur, ErrAllowanceExpired
	}
	if cur.Amount == MaxAmount {
		return cur, nil
	}
	if cur.Amount < amount {
		return cur, ErrInsufficientAllowance
	}
	cur.Amount -= amount
	return cur, nil
}

func saturatingAdd(a, b uint64) uint64 {
	s := a + b
	if s < a {
		return MaxAmount
	}
	return s
}

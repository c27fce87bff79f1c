package permit

import "fmt"

// Ledger is the balance backend the orchestrator moves value through. The
// orchestrator only calls it after every permission transition in a batch
// has staged cleanly, so a Ledger error is the last thing that can abort a
// submission.
type Ledger interface {
	// Transfer moves amount fungible units of token from one account to
	// another.
	Transfer(token, from, to string, amount uint64) error

	// TransferAsset moves amount units of the identified asset within a
	// multi-token contract.
	TransferAsset(token string, id [32]byte, from, to string, amount uint64) error
}

// MemLedger is an in-memory Ledger keeping per-account balances. Zero value
// is not usable; construct with NewMemLedger.
type MemLedger struct {
	balances map[string]map[string]uint64
}

func NewMemLedger() *MemLedger {
	return &MemLedger{balances: make(map[string]map[string]uint64)}
}

// Mint credits an account out of thin air. Test and bootstrap helper.
func (l *MemLedger) Mint(token, account string, amount uint64) {
	m := l.balances[token]
	if m == nil {
		m = make(map[string]uint64)
		l.balances[token] = m
	}
	m[account] += amount
}

// MintAsset credits an account with units of a specific asset id.
func (l *MemLedger) MintAsset(token string, id [32]byte, account string, amount uint64) {
	l.Mint(assetKey(token, id), account, amount)
}

// Balance returns the fungible balance of account in token.
func (l *MemLedger) Balance(token, account string) uint64 {
	return l.balances[token][account]
}

// BalanceAsset returns the balance of account for one asset id.
func (l *MemLedger) BalanceAsset(token string, id [32]byte, account string) uint64 {
	return l.balances[assetKey(token, id)][account]
}

func (l *MemLedger) Transfer(token, from, to string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	m := l.balances[token]
	if m[from] < amount {
		return fmt.Errorf("ledger: %s has %d of %s, need %d", from, m[from], token, amount)
	}
	m[from] -= amount
	if m[to]+amount < m[to] {
		m[from] += amount
		return fmt.Errorf("ledger: balance overflow for %s in %s", to, token)
	}
	m[to] += amount
	return nil
}

func (l *MemLedger) TransferAsset(token string, id [32]byte, from, to string, amount uint64) error {
	return l.Transfer(assetKey(token, id), from, to, amount)
}

func assetKey(token string, id [32]byte) string {
	return fmt.Sprintf("%s#%x", token, id)
}

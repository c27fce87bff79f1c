package allowance

// Store holds all allowance records, keyed owner → token key → spender.
//
// Records are created implicitly (zero value) on first read and never
// deleted; a revoked allowance decays to the zero value but the record
// persists. Mutation happens only through a Tx so that a multi-operation
// submission is atomic: either every operation lands or none do.
//
// Construct one Store per isolated ledger; there is no ambient global.
type Store struct {
	records map[string]map[string]map[string]Allowance
}

func NewStore() *Store {
	return &Store{records: make(map[string]map[string]map[string]Allowance)}
}

// Get returns the current record, or the zero value if never written.
func (s *Store) Get(owner, tokenKey, spender string) Allowance {
	return s.records[owner][tokenKey][spender]
}

func (s *Store) set(owner, tokenKey, spender string, a Allowance) {
	byToken := s.records[owner]
	if byToken == nil {
		byToken = make(map[string]map[string]Allowance)
		s.records[owner] = byToken
	}
	bySpender := byToken[tokenKey]
	if bySpender == nil {
		bySpender = make(map[string]Allowance)
		byToken[tokenKey] = bySpender
	}
	bySpender[spender] = a
}

// Tx is a staged view over a Store. Reads see staged writes; nothing touches
// the Store until Commit. Abandoning a Tx discards its writes.
type Tx struct {
	store *Store
	stage map[txKey]Allowance
}

type txKey struct {
	owner    string
	tokenKey string
	spender  string
}

func (s *Store) Begin() *Tx {
	return &Tx{store: s, stage: make(map[txKey]Allowance)}
}

func (tx *Tx) Get(owner, tokenKey, spender string) Allowance {
	k := txKey{owner, tokenKey, spender}
	if a, ok := tx.stage[k]; ok {
		return a
	}
	return tx.store.Get(owner, tokenKey, spender)
}

// Apply runs the mode dispatch for one non-transfer operation against the
// record addressed by (owner, tokenKey, op.Account). On failure the staged
// state is unchanged.
func (tx *Tx) Apply(owner, tokenKey string, op Operation, now uint64) error {
	cur := tx.Get(owner, tokenKey, op.Account)
	next, err := apply(cur, op, now)
	if err != nil {
		return err
	}
	tx.stage[txKey{owner, tokenKey, op.Account}] = next
	return nil
}

// Spend consumes amount from the spender's allowance. fallbackKey, when
// non-empty and distinct from tokenKey, is consulted instead whenever the
// per-asset record holds a zero amount; this is what lets a collection-wide
// grant satisfy transfers of any individual asset id.
func (tx *Tx) Spend(owner, tokenKey, fallbackKey, spender string, amount, now uint64) error {
	key := tokenKey
	cur := tx.Get(owner, key, spender)
	if cur.Amount == 0 && fallbackKey != "" && fallbackKey != tokenKey {
		key = fallbackKey
		cur = tx.Get(owner, key, spender)
	}
	next, err := spend(cur, amount, now)
	if err != nil {
		return err
	}
	tx.stage[txKey{owner, key, spender}] = next
	return nil
}

// Commit publishes every staged write into the Store.
func (tx *Tx) Commit() {
	for k, a := range tx.stage {
		tx.store.set(k.owner, k.tokenKey, k.spender, a)
	}
	tx.stage = make(map[txKey]Allowance)
}

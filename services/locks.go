package services

import "sync"

// lockTable hands out one mutex per key. Writer services take the account
// lock around every read-modify-write so concurrent operations on the same
// account serialize; operations on different accounts run in parallel.
// Giftcode redemption takes the code lock first, then the account lock —
// always in that order.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*sync.Mutex)}
}

func (t *lockTable) get(key string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[key]
	if !ok {
		l = &sync.Mutex{}
		t.locks[key] = l
	}
	return l
}

// Locks holds the process-wide lock tables shared by the writer services.
type Locks struct {
	accounts  *lockTable
	giftcodes *lockTable
}

func NewLocks() *Locks {
	return &Locks{
		accounts:  newLockTable(),
		giftcodes: newLockTable(),
	}
}

// Account returns the mutex serializing all ledger mutations for one account.
func (l *Locks) Account(accountID string) *sync.Mutex {
	return l.accounts.get(accountID)
}

// Giftcode returns the mutex serializing capacity checks for one code.
func (l *Locks) Giftcode(giftcodeID string) *sync.Mutex {
	return l.giftcodes.get(giftcodeID)
}

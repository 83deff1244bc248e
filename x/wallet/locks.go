package wallet

import "sync"

// lockTable provides one mutex per wallet id. Entries exist only while
// somebody holds or waits for the lock, so the table does not grow with
// the number of wallets.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*walletLock
}

type walletLock struct {
	mu   sync.Mutex
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*walletLock)}
}

// Lock blocks until the lock of the wallet is acquired. Call the returned
// function exactly once to release it.
func (t *lockTable) Lock(id string) func() {
	t.mu.Lock()
	l, ok := t.locks[id]
	if !ok {
		l = &walletLock{}
		t.locks[id] = l
	}
	l.refs++
	t.mu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()

			t.mu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(t.locks, id)
			}
			t.mu.Unlock()
		})
	}
}

// size returns the number of wallets with a held or awaited lock.
func (t *lockTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.locks)
}

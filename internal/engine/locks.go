package engine

import "sync"

// lockerLocks hands out one mutex per locker id. All registry and order
// mutations for the same locker serialize on it; unrelated lockers proceed
// in parallel.
type lockerLocks struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func newLockerLocks() *lockerLocks {
	return &lockerLocks{locks: make(map[int]*sync.Mutex)}
}

func (l *lockerLocks) get(lockerID int) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[lockerID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[lockerID] = lock
	}
	return lock
}

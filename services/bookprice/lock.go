package bookprice

import "sync"

type keyedLock struct {
	mutex sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

func newKeyedLock() *keyedLock {
	return &keyedLock{locks: map[string]*refLock{}}
}

// Lock blocks until key is held exclusively and returns the func that
// releases it.
func (k *keyedLock) Lock(key string) func() {
	k.mutex.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mutex.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mutex.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mutex.Unlock()
	}
}

func (k *keyedLock) held() int {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	return len(k.locks)
}

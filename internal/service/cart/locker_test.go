package cart

import (
	"sync"
	"testing"
)

func TestKeyLockerMutualExclusion(t *testing.T) {
	locker := newKeyLocker()
	const workers = 16
	const iterations = 200

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				unlock := locker.lock("cart-1")
				counter++
				unlock()
			}
		}()
	}
	wg.Wait()

	if counter != workers*iterations {
		t.Fatalf("lost updates under contention: got %d want %d", counter, workers*iterations)
	}
}

func TestKeyLockerReleasesEntries(t *testing.T) {
	locker := newKeyLocker()
	for _, key := range []string{"a", "b", "c"} {
		unlock := locker.lock(key)
		unlock()
	}
	locker.mu.Lock()
	size := len(locker.locks)
	locker.mu.Unlock()
	if size != 0 {
		t.Fatalf("expected empty lock table, got %d entries", size)
	}
}

func TestKeyLockerIndependentKeys(t *testing.T) {
	locker := newKeyLocker()
	unlockA := locker.lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := locker.lock("b")
		unlockB()
		close(done)
	}()
	<-done // must not deadlock while "a" is held
	unlockA()
}

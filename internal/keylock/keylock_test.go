package keylock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockSerializesSameKey(t *testing.T) {
	km := New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("AAPL")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestLockDistinctKeysDoNotBlock(t *testing.T) {
	km := New()

	unlockA := km.Lock("AAPL")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := km.Lock("MSFT")
		unlockB()
		close(done)
	}()

	// Must complete while AAPL is still held
	<-done
}

func TestLockReentryAfterUnlock(t *testing.T) {
	km := New()

	unlock := km.Lock("AAPL")
	unlock()

	unlock = km.Lock("AAPL")
	unlock()
}

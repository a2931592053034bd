package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocks_SameKeySameMutex(t *testing.T) {
	locks := NewLocks()

	assert.Same(t, locks.Account("a1"), locks.Account("a1"))
	assert.NotSame(t, locks.Account("a1"), locks.Account("a2"))

	// Account and giftcode keyspaces are independent.
	assert.NotSame(t, locks.Account("x"), locks.Giftcode("x"))
}

func TestLocks_ConcurrentLookupYieldsOneMutex(t *testing.T) {
	locks := NewLocks()

	const n = 16
	out := make([]*sync.Mutex, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out[i] = locks.Account("shared")
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Same(t, out[0], out[i])
	}
}

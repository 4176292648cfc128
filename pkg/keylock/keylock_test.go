package keylock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyLock_SerializesSameKey(t *testing.T) {
	kl := New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			kl.Lock("product:1")
			defer kl.Unlock("product:1")
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestKeyLock_IndependentKeys(t *testing.T) {
	kl := New()

	kl.Lock("product:1")
	done := make(chan struct{})
	go func() {
		kl.Lock("product:2")
		kl.Unlock("product:2")
		close(done)
	}()

	// A different key must not block behind product:1.
	<-done
	kl.Unlock("product:1")
}

func TestKeyLock_ReleasesEntryAfterUnlock(t *testing.T) {
	kl := New()

	kl.Lock("a")
	kl.Unlock("a")

	kl.mu.Lock()
	defer kl.mu.Unlock()
	assert.Empty(t, kl.locks)
}

func TestKeyLock_LockAllDeduplicates(t *testing.T) {
	kl := New()

	unlock := kl.LockAll([]string{"b", "a", "b", "a"})
	require.NotNil(t, unlock)
	unlock()

	kl.mu.Lock()
	defer kl.mu.Unlock()
	assert.Empty(t, kl.locks)
}

func TestKeyLock_LockAllOverlappingSets(t *testing.T) {
	kl := New()

	counter := 0
	var wg sync.WaitGroup
	sets := [][]string{
		{"product:1", "product:2"},
		{"product:2", "product:3"},
		{"product:3", "product:1"},
	}
	for i := 0; i < 90; i++ {
		set := sets[i%len(sets)]
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := kl.LockAll(set)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 90, counter)
}

package keylock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex(t *testing.T) {
	t.Run("serializes holders of the same key", func(t *testing.T) {
		km := New()
		var active, maxActive int
		var mu sync.Mutex
		var wg sync.WaitGroup

		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock := km.Lock("NOISE|101-A")
				defer unlock()

				mu.Lock()
				active++
				if active > maxActive {
					maxActive = active
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, maxActive, "only one goroutine may hold a key at a time")
	})

	t.Run("distinct keys do not block each other", func(t *testing.T) {
		km := New()
		unlockA := km.Lock("a")

		done := make(chan struct{})
		go func() {
			unlockB := km.Lock("b")
			unlockB()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("lock on a different key blocked")
		}
		unlockA()
	})

	t.Run("entries are released when unused", func(t *testing.T) {
		km := New()
		for i := 0; i < 100; i++ {
			unlock := km.Lock("transient")
			unlock()
		}
		km.mu.Lock()
		defer km.mu.Unlock()
		require.Empty(t, km.locks)
	})
}

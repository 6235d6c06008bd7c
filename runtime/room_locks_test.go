package runtime

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRoomLocks_Serializes_Same_Room(t *testing.T) {
	req := require.New(t)
	locks := NewRoomLocks()
	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = locks.WithLock("r1", func() error {
				n := inside.Add(1)
				for {
					m := maxInside.Load()
					if n <= m || maxInside.CompareAndSwap(m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				inside.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	req.Equal(int32(1), maxInside.Load())
	req.Zero(locks.size())
}

func TestRoomLocks_Other_Rooms_Do_Not_Wait(t *testing.T) {
	req := require.New(t)
	locks := NewRoomLocks()

	// Given r1 is held
	unlock := locks.Lock("r1")
	defer unlock()

	// Then r2 can still be taken
	done := make(chan struct{})
	go func() {
		locks.Lock("r2")()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("r2 should not wait for r1")
	}
}

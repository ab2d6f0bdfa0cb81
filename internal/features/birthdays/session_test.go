package birthdays

import (
	"sync"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"github.com/stretchr/testify/assert"
)

func TestSessionStore_StateAndTTL(t *testing.T) {
	fc := clock.NewFake()
	store := NewSessionStore(10*time.Minute, fc)

	sess, unlock := store.Lock(1)
	assert.Equal(t, StateIdle, store.State(sess))
	store.Set(sess, StateAwaitingAdd)
	unlock()

	fc.Add(9 * time.Minute)
	sess, unlock = store.Lock(1)
	assert.Equal(t, StateAwaitingAdd, store.State(sess))
	unlock()

	fc.Add(2 * time.Minute)
	sess, unlock = store.Lock(1)
	assert.Equal(t, StateIdle, store.State(sess))
	unlock()
}

func TestSessionStore_ChatsAreIndependent(t *testing.T) {
	store := NewSessionStore(time.Minute, clock.NewFake())

	a, unlockA := store.Lock(1)
	store.Set(a, StateAwaitingDelete)

	// другой чат не ждёт освобождения первого
	b, unlockB := store.Lock(2)
	assert.Equal(t, StateIdle, store.State(b))
	unlockB()
	unlockA()

	a, unlockA = store.Lock(1)
	assert.Equal(t, StateAwaitingDelete, store.State(a))
	unlockA()
}

func TestSessionStore_SerializesOneChat(t *testing.T) {
	store := NewSessionStore(time.Minute, clock.NewFake())

	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, unlock := store.Lock(5)
			defer unlock()
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}

func TestSessionStore_Cleanup(t *testing.T) {
	fc := clock.NewFake()
	store := NewSessionStore(time.Minute, fc)

	idle, unlock := store.Lock(1)
	store.Set(idle, StateIdle)
	unlock()

	waiting, unlock := store.Lock(2)
	store.Set(waiting, StateAwaitingAdd)
	unlock()

	assert.Equal(t, 1, store.Cleanup())
	assert.Equal(t, 1, store.Len())

	fc.Add(2 * time.Minute)
	assert.Equal(t, 1, store.Cleanup())
	assert.Zero(t, store.Len())
}

package locals_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-pipeline/locals"
)

// inOwnUnit runs fn on a dedicated goroutine so the test body owns a
// fresh storage and can RemoveAll without disturbing the test runner's
// goroutine.
func inOwnUnit(t *testing.T, fn func(t *testing.T)) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer locals.RemoveAll()
		fn(t)
	}()
	<-done
}

func TestSlotStability(t *testing.T) {
	fl := locals.New[string]()
	idx := fl.Index()
	inOwnUnit(t, func(t *testing.T) {
		for i := 0; i < 10; i++ {
			fl.Set("v")
			_, err := fl.Get()
			require.NoError(t, err)
			require.Equal(t, idx, fl.Index())
		}
	})
}

func TestLastSlotTracksAllocation(t *testing.T) {
	fl := locals.New[int]()
	assert.Equal(t, fl.Index(), locals.LastSlot())

	idx := locals.NextSlot()
	assert.Equal(t, idx, locals.LastSlot())
}

func TestDistinctHandlesDistinctSlots(t *testing.T) {
	a := locals.New[int]()
	b := locals.New[int]()
	require.NotEqual(t, a.Index(), b.Index())

	inOwnUnit(t, func(t *testing.T) {
		a.Set(1)
		b.Set(2)
		va, _ := a.Get()
		vb, _ := b.Get()
		assert.Equal(t, 1, va)
		assert.Equal(t, 2, vb)
	})
}

func TestLazyInitialization(t *testing.T) {
	calls := 0
	fl := locals.New[string](locals.WithInitializer(func() (string, error) {
		calls++
		return "initial", nil
	}))
	inOwnUnit(t, func(t *testing.T) {
		assert.False(t, fl.IsSet(), "IsSet must not trigger initialization")
		assert.Equal(t, 0, calls)

		v, err := fl.Get()
		require.NoError(t, err)
		assert.Equal(t, "initial", v)
		assert.True(t, fl.IsSet())

		_, _ = fl.Get()
		assert.Equal(t, 1, calls, "initializer runs once per storage")
	})
}

func TestInitializerErrorLeavesSlotUnset(t *testing.T) {
	fail := true
	fl := locals.New[int](locals.WithInitializer(func() (int, error) {
		if fail {
			return 0, errors.New("boom")
		}
		return 42, nil
	}))
	inOwnUnit(t, func(t *testing.T) {
		_, err := fl.Get()
		require.Error(t, err)
		assert.False(t, fl.IsSet(), "failed initialization must leave the slot unset")

		// Retry succeeds once the initializer recovers.
		fail = false
		v, err := fl.Get()
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	})
}

func TestZeroValueWithoutInitializer(t *testing.T) {
	fl := locals.New[int]()
	inOwnUnit(t, func(t *testing.T) {
		v, err := fl.Get()
		require.NoError(t, err)
		assert.Equal(t, 0, v)
		assert.True(t, fl.IsSet(), "lazy zero value is stored")
	})
}

func TestSetUnsetSentinelBehavesAsRemove(t *testing.T) {
	var removed []any
	fl := locals.New[any](locals.WithOnRemoval(func(v any) error {
		removed = append(removed, v)
		return nil
	}))
	inOwnUnit(t, func(t *testing.T) {
		fl.Set("payload")
		fl.Set(locals.Unset)
		assert.False(t, fl.IsSet())
		assert.Equal(t, []any{"payload"}, removed)
	})
}

func TestOnRemovalReceivesPreviousValue(t *testing.T) {
	var got string
	fl := locals.New[string](locals.WithOnRemoval(func(v string) error {
		got = v
		return nil
	}))
	inOwnUnit(t, func(t *testing.T) {
		fl.Set("bye")
		fl.Remove()
		assert.Equal(t, "bye", got)
		assert.False(t, fl.IsSet())

		// Removing an unset slot must not fire the callback again.
		got = ""
		fl.Remove()
		assert.Equal(t, "", got)
	})
}

func TestOnRemovalErrorDoesNotBlockReset(t *testing.T) {
	fl := locals.New[int](locals.WithOnRemoval(func(int) error {
		return errors.New("callback failed")
	}))
	inOwnUnit(t, func(t *testing.T) {
		fl.Set(7)
		fl.Remove()
		assert.False(t, fl.IsSet(), "slot resets despite callback failure")
	})
}

func TestExplicitStorageVariants(t *testing.T) {
	fl := locals.New[string]()
	inOwnUnit(t, func(t *testing.T) {
		s := locals.Current()
		fl.SetIn(s, "direct")
		assert.True(t, fl.IsSetIn(s))
		v, err := fl.GetFrom(s)
		require.NoError(t, err)
		assert.Equal(t, "direct", v)
		fl.RemoveFrom(s)
		assert.False(t, fl.IsSetIn(s))
	})
}

func TestRemoveAll(t *testing.T) {
	const n = 8
	handles := make([]*locals.FastLocal[int], n)
	for i := range handles {
		handles[i] = locals.New[int]()
	}
	inOwnUnit(t, func(t *testing.T) {
		// Idempotent on an empty unit.
		locals.RemoveAll()
		assert.Equal(t, 0, locals.Size())

		for i, h := range handles {
			h.Set(i)
		}
		assert.Equal(t, n, locals.Size())

		locals.RemoveAll()
		for _, h := range handles {
			assert.False(t, h.IsSet())
		}
		assert.Equal(t, 0, locals.Size(), "fresh storage after RemoveAll is empty")
	})
}

func TestRemoveAllInvokesCallbacks(t *testing.T) {
	var mu sync.Mutex
	var removed []int
	mk := func() *locals.FastLocal[int] {
		return locals.New[int](locals.WithOnRemoval(func(v int) error {
			mu.Lock()
			removed = append(removed, v)
			mu.Unlock()
			return nil
		}))
	}
	a, b := mk(), mk()
	inOwnUnit(t, func(t *testing.T) {
		a.Set(1)
		b.Set(2)
		locals.RemoveAll()
	})
	assert.ElementsMatch(t, []int{1, 2}, removed)
}

package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Snapshot(t *testing.T) {
	r := NewRecorder()

	r.Observe("execute", "h1", 10*time.Millisecond, nil)
	r.Observe("execute", "h1", 20*time.Millisecond, nil)
	r.Observe("execute", "h2", 30*time.Millisecond, errors.New("exit 1"))
	r.Observe("put", "h1", time.Second, nil)

	snap := r.Snapshot()
	require.Len(t, snap.Operations, 2)
	assert.Equal(t, int64(4), snap.Total())

	exec := snap.Operations[0]
	assert.Equal(t, "execute", exec.Operation)
	assert.Equal(t, int64(3), exec.Count)
	assert.Equal(t, int64(1), exec.Failures)
	assert.InDelta(t, float64(10*time.Millisecond), float64(exec.Min), float64(100*time.Microsecond))
	assert.InDelta(t, float64(30*time.Millisecond), float64(exec.Max), float64(100*time.Microsecond))

	put := snap.Operations[1]
	assert.Equal(t, "put", put.Operation)
	assert.Equal(t, int64(1), put.Count)
	assert.Equal(t, int64(0), put.Failures)

	assert.Equal(t, int64(3), snap.Hosts["h1"])
	assert.Equal(t, int64(1), snap.Hosts["h2"])
}

func TestRecorder_ClampsOutOfRangeValues(t *testing.T) {
	r := NewRecorder()

	r.Observe("get", "h1", 0, nil)
	r.Observe("get", "h1", 2*time.Hour, nil)

	snap := r.Snapshot()
	require.Len(t, snap.Operations, 1)
	assert.Equal(t, int64(2), snap.Operations[0].Count)
	assert.LessOrEqual(t, snap.Operations[0].Max, time.Hour+time.Hour/100)
}

func TestRecorder_ConcurrentObserve(t *testing.T) {
	r := NewRecorder()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Observe("execute", "h1", time.Millisecond, nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), r.Snapshot().Total())
}

func TestRecorder_Reset(t *testing.T) {
	r := NewRecorder()
	r.Observe("execute", "h1", time.Millisecond, nil)
	r.Reset()

	snap := r.Snapshot()
	assert.Empty(t, snap.Operations)
	assert.Empty(t, snap.Hosts)
}

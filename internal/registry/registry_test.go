package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textmill/textmill/internal/model"
)

func TestRegisterRejectsSecondActiveJob(t *testing.T) {
	reg := New(10)

	_, err := reg.Register("session-a", "corr-1")
	require.NoError(t, err)

	_, err = reg.Register("session-a", "corr-2")
	assert.ErrorIs(t, err, model.ErrAlreadyActive)
	assert.Equal(t, 1, reg.Len())
}

func TestRegisterEnforcesCeiling(t *testing.T) {
	reg := New(2)

	_, err := reg.Register("session-a", "corr-1")
	require.NoError(t, err)
	_, err = reg.Register("session-b", "corr-2")
	require.NoError(t, err)

	_, err = reg.Register("session-c", "corr-3")
	assert.ErrorIs(t, err, model.ErrCapacityExceeded)

	// Finishing one job frees a slot at the next poll eviction.
	status, err := reg.Lookup("session-a")
	require.NoError(t, err)
	status.Finish()
	reg.EvictIfFinished("session-a")

	_, err = reg.Register("session-c", "corr-3")
	assert.NoError(t, err)
}

func TestRegisterEvictsFinishedPredecessor(t *testing.T) {
	reg := New(10)

	status, err := reg.Register("session-a", "corr-1")
	require.NoError(t, err)
	status.Finish()

	// Finished but not yet polled away; a new submission replaces it.
	_, err = reg.Register("session-a", "corr-2")
	assert.NoError(t, err)
	assert.Equal(t, 1, reg.Len())
}

func TestRegisterEvictsAbortedPredecessor(t *testing.T) {
	reg := New(10)

	status, err := reg.Register("session-a", "corr-1")
	require.NoError(t, err)
	status.RequestAbort()

	replacement, err := reg.Register("session-a", "corr-2")
	require.NoError(t, err)
	assert.Equal(t, model.PhaseNotStarted, replacement.Phase())
	assert.Equal(t, "corr-2", reg.CorrelationID("session-a"))
}

func TestEvictIfFinishedIgnoresLiveJobs(t *testing.T) {
	reg := New(10)

	status, err := reg.Register("session-a", "corr-1")
	require.NoError(t, err)

	reg.EvictIfFinished("session-a")
	assert.Equal(t, 1, reg.Len())

	status.RequestAbort()
	reg.EvictIfFinished("session-a")
	assert.Equal(t, 1, reg.Len(), "aborted jobs stay until replaced")

	_, err = reg.Lookup("session-a")
	assert.NoError(t, err)
}

func TestLookupUnknownSession(t *testing.T) {
	reg := New(10)

	_, err := reg.Lookup("nope")
	assert.ErrorIs(t, err, model.ErrNoActiveJob)

	err = reg.RequestAbort("nope")
	assert.ErrorIs(t, err, model.ErrNoActiveJob)
}

func TestConcurrentRegistrationsRespectCeiling(t *testing.T) {
	const ceiling = 3
	reg := New(ceiling)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := reg.Register(sessionName(n), "corr")
			if err == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, ceiling, admitted)
	assert.Equal(t, ceiling, reg.Len())
}

func sessionName(n int) string {
	return "session-" + string(rune('a'+n%26)) + string(rune('0'+n/26))
}

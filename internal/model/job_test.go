package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseWireNames(t *testing.T) {
	names := map[Phase]string{
		PhaseNotStarted:           "NotStarted",
		PhaseRecognitionStarted:   "RecognitionStarted",
		PhaseRecognitionFinished:  "RecognitionFinished",
		PhaseResultSavingStarted:  "ResultSavingStarted",
		PhaseResultSavingFinished: "ResultSavingFinished",
		PhaseFinished:             "Finished",
		PhaseAborted:              "Aborted",
	}
	for phase, name := range names {
		assert.Equal(t, name, phase.String())

		b, err := json.Marshal(phase)
		require.NoError(t, err)
		assert.Equal(t, `"`+name+`"`, string(b))
	}
}

func TestOnlyFinishedIsTerminal(t *testing.T) {
	for phase := PhaseNotStarted; phase <= PhaseAborted; phase++ {
		assert.Equal(t, phase == PhaseFinished, phase.Terminal(), phase.String())
	}
}

func TestAdvanceFollowsLinearOrder(t *testing.T) {
	status := NewJobStatus()

	assert.False(t, status.Advance(PhaseRecognitionFinished), "skipping a phase is refused")
	assert.True(t, status.StartRecognition(3))
	assert.True(t, status.Advance(PhaseRecognitionFinished))
	assert.True(t, status.Advance(PhaseResultSavingStarted))
	assert.True(t, status.Advance(PhaseResultSavingFinished))
	assert.Equal(t, PhaseResultSavingFinished, status.Phase())
}

func TestAbortBlocksFurtherAdvancement(t *testing.T) {
	status := NewJobStatus()
	require.True(t, status.StartRecognition(1))

	status.RequestAbort()
	assert.Equal(t, PhaseAborted, status.Phase())
	assert.True(t, status.AbortRequested())
	assert.False(t, status.Advance(PhaseRecognitionFinished))
}

func TestAbortAfterFinishIsIgnored(t *testing.T) {
	status := NewJobStatus()
	status.Finish()

	status.RequestAbort()
	assert.Equal(t, PhaseFinished, status.Phase())
	assert.False(t, status.AbortRequested())
}

func TestSnapshotReflectsProgress(t *testing.T) {
	status := NewJobStatus()

	snap := status.Snapshot()
	assert.Equal(t, -1, snap.CurrentPageIndex, "page index starts undefined")

	require.True(t, status.StartRecognition(2))
	status.SetProgress(40)
	status.AdvancePage()
	status.SetResult("/files/s/report.txt", "hello")

	snap = status.Snapshot()
	assert.Equal(t, 40, snap.Progress)
	assert.Equal(t, 2, snap.PageCount)
	assert.Equal(t, 1, snap.CurrentPageIndex)
	assert.Equal(t, "/files/s/report.txt", snap.ResultPath)
	assert.Equal(t, "hello", snap.RecognizedText)
}

func TestFailRecordsMessageAndFinishes(t *testing.T) {
	status := NewJobStatus()
	require.True(t, status.StartRecognition(1))

	status.Fail("engine blew up")

	snap := status.Snapshot()
	assert.Equal(t, PhaseFinished, snap.Phase)
	assert.Equal(t, "engine blew up", snap.ErrorMessage)
}

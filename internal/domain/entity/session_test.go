package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_BeginSetsActiveStatus(t *testing.T) {
	cases := []struct {
		op   Operation
		want SessionStatus
	}{
		{OpLoadVideo, SessionSampling},
		{OpTranscribe, SessionSampling},
		{OpCaptureFrame, SessionSampling},
		{OpIsolateText, SessionEditingImage},
		{OpEditImage, SessionEditingImage},
		{OpAnnotateTranscript, SessionTranscribing},
	}
	for _, tc := range cases {
		s := NewSession("u1", "u1/demo.mp4", 5)
		next, err := s.Begin(tc.op)
		require.NoError(t, err, "op=%s", tc.op)
		assert.Equal(t, tc.want, next.Status, "op=%s", tc.op)
		assert.Equal(t, 1, next.Attempt)
		assert.True(t, next.Busy())
	}
}

func TestSession_BeginWhileBusyIsNoOp(t *testing.T) {
	s := NewSession("u1", "u1/demo.mp4", 5)
	active, err := s.Begin(OpTranscribe)
	require.NoError(t, err)

	for _, op := range []Operation{OpTranscribe, OpEditImage, OpCaptureFrame} {
		next, err := active.Begin(op)
		assert.ErrorIs(t, err, ErrSessionBusy, "op=%s", op)
		// State unchanged: the rejected call returns the receiver as-is.
		assert.Equal(t, active, next, "op=%s", op)
	}
}

func TestSession_AbandonedSince(t *testing.T) {
	s := NewSession("u1", "u1/demo.mp4", 5)
	assert.False(t, s.AbandonedSince(time.Hour), "idle sessions are never abandoned")

	active, err := s.Begin(OpTranscribe)
	require.NoError(t, err)
	assert.False(t, active.AbandonedSince(time.Hour), "a fresh active session is owned")

	active.UpdatedAt = time.Now().Add(-2 * time.Hour)
	assert.True(t, active.AbandonedSince(time.Hour))
	assert.False(t, active.AbandonedSince(0), "zero threshold disables reclaiming")
}

func TestSession_BeginUnknownOperation(t *testing.T) {
	s := NewSession("u1", "u1/demo.mp4", 5)
	_, err := s.Begin(Operation("explode"))
	assert.ErrorIs(t, err, ErrUnknownOperation)
}

func TestSession_BeginAfterErrorAllowed(t *testing.T) {
	s := NewSession("u1", "u1/demo.mp4", 5)
	active, err := s.Begin(OpTranscribe)
	require.NoError(t, err)

	failed := active.Fail("boom")
	assert.Equal(t, SessionError, failed.Status)
	assert.False(t, failed.Busy())

	retried, err := failed.Begin(OpTranscribe)
	require.NoError(t, err)
	assert.Equal(t, SessionSampling, retried.Status)
	assert.Equal(t, 2, retried.Attempt)
	assert.Empty(t, retried.ErrorMessage)
}

func TestSession_CompleteResetsAttempts(t *testing.T) {
	s := NewSession("u1", "u1/demo.mp4", 5)
	active, err := s.Begin(OpTranscribe)
	require.NoError(t, err)

	done := active.Complete()
	assert.Equal(t, SessionIdle, done.Status)
	assert.Equal(t, 0, done.Attempt)
	require.NotNil(t, done.CompletedAt)
}

func TestSession_CanRetry(t *testing.T) {
	s := NewSession("u1", "u1/demo.mp4", 2)
	assert.True(t, s.CanRetry())

	one, err := s.Begin(OpTranscribe)
	require.NoError(t, err)
	failed := one.Fail("boom")
	assert.True(t, failed.CanRetry())

	two, err := failed.Begin(OpTranscribe)
	require.NoError(t, err)
	failedTwice := two.Fail("boom again")
	assert.False(t, failedTwice.CanRetry())
}

func TestSession_ResetForVideoReturnsStaleKeys(t *testing.T) {
	s := NewSession("u1", "u1/old.mp4", 5)
	s.CaptureKey = "u1/s/old_00-02.png"
	s.EditedKey = "u1/s/old_00-02_edited.png"
	s.TranscriptKey = "u1/s/old_01-00.txt"
	s.FrameCount = 31

	next, stale := s.ResetForVideo("u1/new.mp4", 42)
	assert.ElementsMatch(t, []string{
		"u1/s/old_00-02.png",
		"u1/s/old_00-02_edited.png",
		"u1/s/old_01-00.txt",
	}, stale)
	assert.Equal(t, "u1/new.mp4", next.VideoKey)
	assert.Equal(t, 42.0, next.DurationSecs)
	assert.Empty(t, next.CaptureKey)
	assert.Empty(t, next.EditedKey)
	assert.Empty(t, next.TranscriptKey)
	assert.Zero(t, next.FrameCount)
}

func TestSession_SetArtifactReturnsSupersededKey(t *testing.T) {
	s := NewSession("u1", "u1/demo.mp4", 5)

	next, prev := s.SetArtifact(SlotCapture, "k1")
	assert.Empty(t, prev)
	assert.Equal(t, "k1", next.Artifact(SlotCapture))

	next2, prev2 := next.SetArtifact(SlotCapture, "k2")
	assert.Equal(t, "k1", prev2)
	assert.Equal(t, "k2", next2.Artifact(SlotCapture))

	// Re-storing the same key is not a supersession.
	_, prev3 := next2.SetArtifact(SlotCapture, "k2")
	assert.Empty(t, prev3)
}

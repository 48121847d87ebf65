package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the single source of truth for what a session is doing.
// Exactly one long-running operation may be in flight per session.
type SessionStatus string

const (
	SessionIdle         SessionStatus = "IDLE"
	SessionSampling     SessionStatus = "SAMPLING"
	SessionTranscribing SessionStatus = "TRANSCRIBING"
	SessionEditingImage SessionStatus = "EDITING_IMAGE"
	SessionError        SessionStatus = "ERROR"
)

// Operation names the user-triggerable workflows carried on the queue.
type Operation string

const (
	OpLoadVideo          Operation = "load_video"
	OpTranscribe         Operation = "transcribe"
	OpCaptureFrame       Operation = "capture_frame"
	OpIsolateText        Operation = "isolate_text"
	OpEditImage          Operation = "edit_image"
	OpAnnotateTranscript Operation = "annotate_transcript"
)

// ArtifactSlot identifies one of the session's replaceable outputs. A slot
// holds at most one live object key; storing a new key supersedes the old
// object, which must be removed.
type ArtifactSlot string

const (
	SlotVideo      ArtifactSlot = "video"
	SlotCapture    ArtifactSlot = "capture"
	SlotEdited     ArtifactSlot = "edited"
	SlotTranscript ArtifactSlot = "transcript"
)

var (
	// ErrSessionBusy signals that an operation arrived while another one is
	// in flight. Callers treat it as a no-op, not a failure.
	ErrSessionBusy = errors.New("session busy: operation already in flight")

	// ErrUnknownOperation signals an operation name the worker does not know.
	ErrUnknownOperation = errors.New("unknown operation")
)

// Session is the durable record of one user's editing session. All
// transitions go through methods that return an updated copy, so the
// ordering of state changes stays auditable at the call sites.
type Session struct {
	ID            uuid.UUID
	UserID        string
	Status        SessionStatus
	VideoKey      string
	DurationSecs  float64
	CaptureKey    string
	EditedKey     string
	TranscriptKey string
	FrameCount    int
	Attempt       int
	MaxAttempts   int
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

func NewSession(userID, videoKey string, maxAttempts int) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:          uuid.New(),
		UserID:      userID,
		VideoKey:    videoKey,
		Status:      SessionIdle,
		Attempt:     0,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Busy reports whether a long-running operation is in flight.
func (s Session) Busy() bool {
	switch s.Status {
	case SessionSampling, SessionTranscribing, SessionEditingImage:
		return true
	default:
		return false
	}
}

// AbandonedSince reports whether the session has sat in an active status
// longer than threshold without a progress write. Active statuses are
// persisted before each long stage, so a session past the threshold
// belongs to a worker that died mid-operation and may be reclaimed.
// A zero or negative threshold disables reclaiming.
func (s Session) AbandonedSince(threshold time.Duration) bool {
	return s.Busy() && threshold > 0 && time.Since(s.UpdatedAt) > threshold
}

// Begin validates that the session can start op and returns a copy in the
// operation's active status. A busy session returns ErrSessionBusy and the
// receiver unchanged.
func (s Session) Begin(op Operation) (Session, error) {
	if s.Busy() {
		return s, ErrSessionBusy
	}

	next := s
	switch op {
	case OpLoadVideo, OpCaptureFrame, OpTranscribe:
		next.Status = SessionSampling
	case OpIsolateText, OpEditImage:
		next.Status = SessionEditingImage
	case OpAnnotateTranscript:
		next.Status = SessionTranscribing
	default:
		return s, ErrUnknownOperation
	}

	next.Attempt++
	next.ErrorMessage = ""
	next.UpdatedAt = time.Now().UTC()
	return next, nil
}

// AdvanceTranscribing moves a sampling session into the model-call phase.
func (s Session) AdvanceTranscribing() Session {
	next := s
	next.Status = SessionTranscribing
	next.UpdatedAt = time.Now().UTC()
	return next
}

// Complete returns the session to idle after a successful operation and
// resets the attempt budget.
func (s Session) Complete() Session {
	now := time.Now().UTC()
	next := s
	next.Status = SessionIdle
	next.Attempt = 0
	next.ErrorMessage = ""
	next.UpdatedAt = now
	next.CompletedAt = &now
	return next
}

// Fail records the error and leaves the session retriable by the next
// message; the attempt budget decides whether that happens.
func (s Session) Fail(errMsg string) Session {
	next := s
	next.Status = SessionError
	next.ErrorMessage = errMsg
	next.UpdatedAt = time.Now().UTC()
	return next
}

func (s Session) CanRetry() bool {
	return s.Attempt < s.MaxAttempts
}

// ResetForVideo clears all downstream state when a new video is loaded.
// The previous artifact keys are returned so the caller can release the
// superseded objects.
func (s Session) ResetForVideo(videoKey string, durationSecs float64) (Session, []string) {
	var stale []string
	for _, key := range []string{s.CaptureKey, s.EditedKey, s.TranscriptKey} {
		if key != "" {
			stale = append(stale, key)
		}
	}

	next := s
	next.VideoKey = videoKey
	next.DurationSecs = durationSecs
	next.CaptureKey = ""
	next.EditedKey = ""
	next.TranscriptKey = ""
	next.FrameCount = 0
	next.ErrorMessage = ""
	next.UpdatedAt = time.Now().UTC()
	return next, stale
}

// SetArtifact stores key in the given slot and returns the superseded key,
// empty if the slot was free. At most one live object per slot.
func (s Session) SetArtifact(slot ArtifactSlot, key string) (Session, string) {
	next := s
	var prev string
	switch slot {
	case SlotVideo:
		prev, next.VideoKey = s.VideoKey, key
	case SlotCapture:
		prev, next.CaptureKey = s.CaptureKey, key
	case SlotEdited:
		prev, next.EditedKey = s.EditedKey, key
	case SlotTranscript:
		prev, next.TranscriptKey = s.TranscriptKey, key
	}
	next.UpdatedAt = time.Now().UTC()
	if prev == key {
		prev = ""
	}
	return next, prev
}

// Artifact returns the live key for a slot.
func (s Session) Artifact(slot ArtifactSlot) string {
	switch slot {
	case SlotVideo:
		return s.VideoKey
	case SlotCapture:
		return s.CaptureKey
	case SlotEdited:
		return s.EditedKey
	case SlotTranscript:
		return s.TranscriptKey
	default:
		return ""
	}
}

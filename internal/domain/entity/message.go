package entity

import "github.com/google/uuid"

// SessionOperationMessage is the inbound message from the session.operations
// queue. Op selects the workflow; the remaining fields parameterize it.
type SessionOperationMessage struct {
	SessionID uuid.UUID `json:"session_id"`
	UserID    string    `json:"user_id"`
	Op        Operation `json:"op"`
	VideoKey  string    `json:"video_key"`
	FileSize  int64     `json:"file_size,omitempty"`
	UserEmail string    `json:"user_email,omitempty"`

	// capture_frame / isolate_text / edit_image
	TimestampSeconds int  `json:"timestamp_seconds,omitempty"`
	BurnTimestamp    bool `json:"burn_timestamp,omitempty"`

	// capture operations export their artifact only when asked to;
	// unconditional export-on-capture is a surprising default.
	AutoExport bool `json:"auto_export,omitempty"`

	// edit_image: either a preset name or a free-form instruction.
	Preset string `json:"preset,omitempty"`
	Prompt string `json:"prompt,omitempty"`

	// annotate_transcript
	CursorOffset     int `json:"cursor_offset,omitempty"`
	SelectionLength  int `json:"selection_length,omitempty"`
	AnnotateAtSecond int `json:"annotate_at_second,omitempty"`

	// Optional per-request credential override; the config default is used
	// when empty.
	APIKey string `json:"api_key,omitempty"`
}

// SessionStatusMessage is the outbound message published to the
// session.status queue after every operation attempt.
type SessionStatusMessage struct {
	SessionID     uuid.UUID     `json:"session_id"`
	UserID        string        `json:"user_id"`
	Op            Operation     `json:"op"`
	Status        SessionStatus `json:"status"`
	VideoKey      string        `json:"video_key"`
	CaptureKey    string        `json:"capture_key,omitempty"`
	EditedKey     string        `json:"edited_key,omitempty"`
	TranscriptKey string        `json:"transcript_key,omitempty"`
	FrameCount    int           `json:"frame_count,omitempty"`
	Duration      float64       `json:"duration_seconds,omitempty"`
	ErrorMessage  string        `json:"error_message,omitempty"`
	Attempt       int           `json:"attempt"`
	MaxAttempts   int           `json:"max_attempts"`
}

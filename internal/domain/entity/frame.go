package entity

// Frame is a single decoded picture sampled from the video at a specific
// playback time. Frames are transient: produced by the sampler, consumed by
// the vision model, never persisted.
type Frame struct {
	TimestampSeconds int
	Data             []byte
	MIMEType         string
}

// TimedText is one raw (timestamp in seconds, extracted text) pair as the
// vision model returns it.
type TimedText struct {
	TimestampSeconds int    `json:"timestamp"`
	Text             string `json:"text"`
}

// Transcription is the user-facing form of a TimedText entry, with the
// timestamp formatted "mm:ss". Mutable by the user after creation.
type Transcription struct {
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}

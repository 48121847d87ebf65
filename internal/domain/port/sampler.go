package port

import (
	"context"

	"github.com/clipscribe/clipscribe-processing-service/internal/domain/entity"
)

// ProgressFunc receives the sampling progress as a percentage in [0,100].
type ProgressFunc func(percent float64)

// MetadataProber reads a video's duration in seconds. Fails when the media
// stack cannot decode the file.
type MetadataProber interface {
	ProbeDuration(ctx context.Context, videoPath string) (float64, error)
}

// FrameSampler seeks a video at fixed intervals and captures frames.
// Sampling is sequential: each capture settles before the next seek.
type FrameSampler interface {
	// SampleFrames captures one frame every intervalSecs seconds from 0
	// through the clip duration, JPEG-encoded, ordered by timestamp.
	SampleFrames(ctx context.Context, videoPath string, intervalSecs int, progress ProgressFunc) ([]entity.Frame, error)

	// CaptureFrame captures a single PNG frame at the given offset,
	// optionally with the mm:ss timestamp burned into the picture.
	CaptureFrame(ctx context.Context, videoPath string, atSecond int, burnTimestamp bool) (entity.Frame, error)
}

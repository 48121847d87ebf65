package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/clipscribe/clipscribe-processing-service/internal/domain/entity"
	"github.com/clipscribe/clipscribe-processing-service/internal/domain/port"
	"github.com/clipscribe/clipscribe-processing-service/internal/transcript"
	"go.uber.org/zap"
)

// jpegQScale is the mjpeg quantizer used for sampled frames; 4 lands close
// to 0.8 on the usual JPEG quality scale.
const jpegQScale = "4"

// Sampler captures frames by seeking the video one offset at a time.
// Seeking is stateful inside the decoder, so the loop is strictly
// sequential: the previous capture settles before the next seek starts.
type Sampler struct {
	prober *Prober
	logger *zap.Logger
}

func NewSampler(prober *Prober, logger *zap.Logger) *Sampler {
	return &Sampler{prober: prober, logger: logger}
}

// SamplePlan computes the capture offsets for a clip: 0, I, 2I, ... while
// the cursor does not exceed the duration.
func SamplePlan(durationSecs float64, intervalSecs int) []int {
	if intervalSecs <= 0 || durationSecs < 0 {
		return nil
	}
	var offsets []int
	for t := 0; float64(t) <= durationSecs; t += intervalSecs {
		offsets = append(offsets, t)
	}
	return offsets
}

func (s *Sampler) SampleFrames(ctx context.Context, videoPath string, intervalSecs int, progress port.ProgressFunc) ([]entity.Frame, error) {
	duration, err := s.prober.ProbeDuration(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("probe before sampling: %w", err)
	}

	offsets := SamplePlan(duration, intervalSecs)
	if len(offsets) == 0 {
		return nil, fmt.Errorf("empty sample plan for duration %.2fs interval %ds", duration, intervalSecs)
	}

	frames := make([]entity.Frame, 0, len(offsets))
	for _, at := range offsets {
		data, err := s.captureAt(ctx, videoPath, at, "mjpeg", "")
		if err != nil {
			return nil, fmt.Errorf("capture at %ds: %w", at, err)
		}
		frames = append(frames, entity.Frame{
			TimestampSeconds: at,
			Data:             data,
			MIMEType:         "image/jpeg",
		})

		if progress != nil {
			pct := 100.0
			if duration > 0 {
				pct = 100 * float64(at) / duration
				if pct > 100 {
					pct = 100
				}
			}
			progress(pct)
		}
	}

	s.logger.Info("frames sampled",
		zap.Int("count", len(frames)),
		zap.Int("interval_secs", intervalSecs),
		zap.Float64("video_duration", duration),
	)
	return frames, nil
}

func (s *Sampler) CaptureFrame(ctx context.Context, videoPath string, atSecond int, burnTimestamp bool) (entity.Frame, error) {
	overlay := ""
	if burnTimestamp {
		overlay = transcript.FormatTimestamp(atSecond)
	}
	data, err := s.captureAt(ctx, videoPath, atSecond, "png", overlay)
	if err != nil {
		return entity.Frame{}, fmt.Errorf("capture at %ds: %w", atSecond, err)
	}
	return entity.Frame{
		TimestampSeconds: atSecond,
		Data:             data,
		MIMEType:         "image/png",
	}, nil
}

// captureAt seeks to the offset and decodes exactly one picture to stdout.
func (s *Sampler) captureAt(ctx context.Context, videoPath string, atSecond int, codec, overlay string) ([]byte, error) {
	args := []string{
		"-ss", fmt.Sprintf("%d", atSecond),
		"-i", videoPath,
		"-frames:v", "1",
	}
	if overlay != "" {
		args = append(args, "-vf", drawTimestampFilter(overlay))
	}
	if codec == "mjpeg" {
		args = append(args, "-q:v", jpegQScale)
	}
	args = append(args,
		"-f", "image2pipe",
		"-vcodec", codec,
		"-",
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stdout bytes.Buffer
	var stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg error: %w, output: %s", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("no frame produced at %ds", atSecond)
	}
	return stdout.Bytes(), nil
}

// drawTimestampFilter burns the mm:ss token into the lower-left corner.
// The colon must be escaped inside drawtext.
func drawTimestampFilter(token string) string {
	escaped := strings.ReplaceAll(token, ":", `\:`)
	return fmt.Sprintf(
		"drawtext=text='%s':fontcolor=white:fontsize=28:box=1:boxcolor=black@0.6:boxborderw=6:x=16:y=h-th-16",
		escaped,
	)
}

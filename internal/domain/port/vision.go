package port

import (
	"context"
	"errors"

	"github.com/clipscribe/clipscribe-processing-service/internal/domain/entity"
)

var (
	// ErrNoImageInResponse is returned when an image-bearing call comes back
	// without an inline image part, typically a safety refusal. Not
	// retryable.
	ErrNoImageInResponse = errors.New("no image in model response")

	// ErrMalformedTranscription is returned when the structured response
	// does not parse against the transcription schema. Not retryable.
	ErrMalformedTranscription = errors.New("malformed transcription response")
)

// VisionFactory builds a VisionModel bound to a credential. An empty apiKey
// selects the service default; credential lifecycle beyond that is out of
// scope here.
type VisionFactory interface {
	ForCredential(ctx context.Context, apiKey string) (VisionModel, error)
}

// VisionModel wraps the external generative model. All three calls are
// stateless pass-throughs with no retry policy: a missing image part or a
// malformed structured response is a defined failure, not a transient one.
type VisionModel interface {
	// TranscribeFrames sends the whole frame sequence with the fixed
	// extraction instruction and returns the schema-validated
	// (timestamp, text) pairs in frame order.
	TranscribeFrames(ctx context.Context, frames []entity.Frame) ([]entity.TimedText, error)

	// IsolateText rewrites one frame so that only its on-screen text
	// remains, returning the first inline image of the response.
	IsolateText(ctx context.Context, frame entity.Frame) (entity.Frame, error)

	// EditImage applies a caller-supplied natural-language instruction to
	// one frame and returns the first inline image of the response.
	EditImage(ctx context.Context, frame entity.Frame, instruction string) (entity.Frame, error)
}

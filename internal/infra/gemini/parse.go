package gemini

import (
	"encoding/json"
	"fmt"

	"github.com/clipscribe/clipscribe-processing-service/internal/domain/entity"
	"github.com/clipscribe/clipscribe-processing-service/internal/domain/port"
	"google.golang.org/genai"
)

// ParseTimedText decodes the schema-constrained transcription payload.
// Anything that does not parse is a terminal failure, never repaired.
func ParseTimedText(raw []byte) ([]entity.TimedText, error) {
	var entries []entity.TimedText
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", port.ErrMalformedTranscription, err)
	}
	return entries, nil
}

// FirstInlineImage scans the response for the first inline image part.
// A response without one (a safety refusal, or a text-only answer) maps
// to ErrNoImageInResponse.
func FirstInlineImage(resp *genai.GenerateContentResponse) (entity.Frame, error) {
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return entity.Frame{
					Data:     part.InlineData.Data,
					MIMEType: part.InlineData.MIMEType,
				}, nil
			}
		}
	}
	return entity.Frame{}, port.ErrNoImageInResponse
}

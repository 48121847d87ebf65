package gemini

import (
	"context"
	"fmt"

	"github.com/clipscribe/clipscribe-processing-service/internal/domain/entity"
	"github.com/clipscribe/clipscribe-processing-service/internal/domain/port"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Factory builds Gemini-backed vision clients. The default credential comes
// from config; per-request overrides take precedence.
type Factory struct {
	defaultKey      string
	transcribeModel string
	imageModel      string
	logger          *zap.Logger
}

func NewFactory(defaultKey, transcribeModel, imageModel string, logger *zap.Logger) *Factory {
	return &Factory{
		defaultKey:      defaultKey,
		transcribeModel: transcribeModel,
		imageModel:      imageModel,
		logger:          logger,
	}
}

func (f *Factory) ForCredential(ctx context.Context, apiKey string) (port.VisionModel, error) {
	key := apiKey
	if key == "" {
		key = f.defaultKey
	}
	if key == "" {
		return nil, fmt.Errorf("no gemini api key configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{
		client:          client,
		transcribeModel: f.transcribeModel,
		imageModel:      f.imageModel,
		logger:          f.logger,
	}, nil
}

// Client is a stateless pass-through to the Gemini API. No retry policy:
// service errors, safety refusals and malformed responses surface to the
// caller as-is.
type Client struct {
	client          *genai.Client
	transcribeModel string
	imageModel      string
	logger          *zap.Logger
}

// transcriptionSchema constrains the batch transcription response to a JSON
// array of {timestamp:int, text:string}.
var transcriptionSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"timestamp": {Type: genai.TypeInteger, Description: "frame timestamp in seconds"},
			"text":      {Type: genai.TypeString, Description: "text readable in the frame"},
		},
		Required: []string{"timestamp", "text"},
	},
}

func (c *Client) TranscribeFrames(ctx context.Context, frames []entity.Frame) ([]entity.TimedText, error) {
	parts := []*genai.Part{genai.NewPartFromText(transcribePrompt)}
	for _, f := range frames {
		parts = append(parts,
			genai.NewPartFromText(fmt.Sprintf("Frame at %d seconds:", f.TimestampSeconds)),
			genai.NewPartFromBytes(f.Data, f.MIMEType),
		)
	}

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := c.client.Models.GenerateContent(ctx, c.transcribeModel, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   transcriptionSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("transcribe frames: %w", err)
	}

	entries, err := ParseTimedText([]byte(resp.Text()))
	if err != nil {
		return nil, err
	}

	c.logger.Info("frames transcribed",
		zap.Int("frames_sent", len(frames)),
		zap.Int("entries", len(entries)),
	)
	return entries, nil
}

func (c *Client) IsolateText(ctx context.Context, frame entity.Frame) (entity.Frame, error) {
	return c.generateImage(ctx, frame, isolateTextPrompt)
}

func (c *Client) EditImage(ctx context.Context, frame entity.Frame, instruction string) (entity.Frame, error) {
	return c.generateImage(ctx, frame, instruction)
}

func (c *Client) generateImage(ctx context.Context, frame entity.Frame, instruction string) (entity.Frame, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(instruction),
		genai.NewPartFromBytes(frame.Data, frame.MIMEType),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := c.client.Models.GenerateContent(ctx, c.imageModel, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return entity.Frame{}, fmt.Errorf("image edit: %w", err)
	}

	edited, err := FirstInlineImage(resp)
	if err != nil {
		return entity.Frame{}, err
	}
	edited.TimestampSeconds = frame.TimestampSeconds
	return edited, nil
}

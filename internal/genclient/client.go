// Package genclient talks to the remote image service: Imagen for
// text-to-image generation and a Gemini image model for upscaling.
package genclient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blacktop/imagine/internal/catalog"
	"github.com/blacktop/imagine/internal/dataurl"
	"github.com/charmbracelet/log"
	"google.golang.org/genai"
)

const (
	DefaultImageModel   = "imagen-4.0-generate-001"
	DefaultUpscaleModel = "gemini-2.5-flash-image"

	outputMIMEType     = "image/png"
	upscaleInstruction = "Upscale this image, increasing its resolution and enhancing details without altering the content."
)

// models is the slice of the genai API the client uses. *genai.Models
// satisfies it.
type models interface {
	GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config holds what is needed to reach the service.
type Config struct {
	APIKey       string
	ImageModel   string
	UpscaleModel string
	Logger       *log.Logger
}

// Client issues one request per call. It keeps no state between calls.
type Client struct {
	models       models
	imageModel   string
	upscaleModel string
	logger       *log.Logger
}

// New creates a Client backed by the Gemini API.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("API key is not set")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return newClient(gc.Models, cfg), nil
}

func newClient(m models, cfg Config) *Client {
	c := &Client{
		models:       m,
		imageModel:   cfg.ImageModel,
		upscaleModel: cfg.UpscaleModel,
		logger:       cfg.Logger,
	}
	if c.imageModel == "" {
		c.imageModel = DefaultImageModel
	}
	if c.upscaleModel == "" {
		c.upscaleModel = DefaultUpscaleModel
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	return c
}

// Generate produces exactly one image for fullPrompt at the given aspect ratio.
func (c *Client) Generate(ctx context.Context, fullPrompt, aspectRatio string) (dataurl.Image, error) {
	if strings.TrimSpace(fullPrompt) == "" {
		return dataurl.Image{}, fmt.Errorf("%w: prompt is empty", ErrInvalidInput)
	}
	if !catalog.IsAspectRatio(aspectRatio) {
		return dataurl.Image{}, fmt.Errorf("%w: unsupported aspect ratio %q", ErrInvalidInput, aspectRatio)
	}

	c.logger.Debug("Generating image", "model", c.imageModel, "aspect", aspectRatio, "prompt", fullPrompt)

	resp, err := c.models.GenerateImages(ctx, c.imageModel, fullPrompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: outputMIMEType,
		AspectRatio:    aspectRatio,
	})
	if err != nil {
		c.logger.Error("Error generating image", "err", err)
		return dataurl.Image{}, generateTransportError(err)
	}
	if resp == nil {
		c.logger.Error("Error generating image", "err", "empty response")
		return dataurl.Image{}, generateTransportError(errors.New("empty response"))
	}

	var filtered []string
	for _, gi := range resp.GeneratedImages {
		if gi == nil {
			continue
		}
		if gi.Image != nil && len(gi.Image.ImageBytes) > 0 {
			mime := gi.Image.MIMEType
			if mime == "" {
				mime = outputMIMEType
			}
			return dataurl.Image{MIMEType: mime, Data: gi.Image.ImageBytes}, nil
		}
		if gi.RAIFilteredReason != "" {
			filtered = append(filtered, gi.RAIFilteredReason)
		}
	}
	if len(resp.GeneratedImages) == 0 || len(filtered) > 0 {
		c.logger.Warn("Generation blocked", "reasons", filtered)
		return dataurl.Image{}, ErrGenerationBlocked
	}
	c.logger.Error("Error generating image", "err", "response carried no image bytes")
	return dataurl.Image{}, generateTransportError(errors.New("response carried no image bytes"))
}

// Upscale asks the service for a higher-detail version of the image held in
// imageURL, which must be a base64 data URL.
func (c *Client) Upscale(ctx context.Context, imageURL string) (dataurl.Image, error) {
	src, err := dataurl.Parse(imageURL)
	if err != nil {
		return dataurl.Image{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	c.logger.Debug("Upscaling image", "model", c.upscaleModel, "mime", src.MIMEType, "size", len(src.Data))

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(src.Data, src.MIMEType),
			genai.NewPartFromText(upscaleInstruction),
		}, genai.RoleUser),
	}
	resp, err := c.models.GenerateContent(ctx, c.upscaleModel, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityImage)},
	})
	if err != nil {
		c.logger.Error("Error upscaling image", "err", err)
		return dataurl.Image{}, upscaleTransportError(err)
	}
	if resp == nil {
		c.logger.Error("Error upscaling image", "err", "empty response")
		return dataurl.Image{}, upscaleTransportError(errors.New("empty response"))
	}

	if len(resp.Candidates) > 0 && resp.Candidates[0] != nil && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mime := part.InlineData.MIMEType
				if mime == "" {
					mime = outputMIMEType
				}
				return dataurl.Image{MIMEType: mime, Data: part.InlineData.Data}, nil
			}
		}
	}
	c.logger.Warn("Upscale blocked", "candidates", len(resp.Candidates))
	return dataurl.Image{}, ErrUpscaleBlocked
}

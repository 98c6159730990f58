package provider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ImageConfig configures the OpenAI-compatible image synthesis client.
type ImageConfig struct {
	APIKey  string
	BaseURL string // empty for the default endpoint
	Model   string
	Timeout time.Duration
	Retry   RetryPolicy
}

type openAIImageProvider struct {
	client *openai.Client
	model  string
	retry  RetryPolicy
	logger *zap.Logger
}

// NewImageProvider creates an ImageProvider backed by an OpenAI-compatible
// images API.
func NewImageProvider(cfg ImageConfig, logger *zap.Logger) (ImageProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("image provider API key is not configured")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &openAIImageProvider{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		retry:  cfg.Retry,
		logger: logger.Named("ImageProvider"),
	}, nil
}

type imageProviderMeta struct {
	Model         string `json:"model"`
	RevisedPrompt string `json:"revisedPrompt,omitempty"`
}

func (p *openAIImageProvider) GenerateImage(ctx context.Context, prompt string) (*GeneratedMedia, error) {
	p.logger.Info("Generating image", zap.Int("prompt_len", len(prompt)))

	var resp openai.ImageResponse
	err := p.retry.Do(ctx, func(ctx context.Context) error {
		var callErr error
		resp, callErr = p.client.CreateImage(ctx, openai.ImageRequest{
			Prompt:         prompt,
			Model:          p.model,
			N:              1,
			Size:           openai.CreateImageSize1024x1792,
			ResponseFormat: openai.CreateImageResponseFormatB64JSON,
		})
		return callErr
	})
	if err != nil {
		p.logger.Error("Image API call failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrImageGenerationFailed, err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("%w: API returned empty data", ErrImageGenerationFailed)
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode image payload: %v", ErrImageGenerationFailed, err)
	}

	meta, _ := json.Marshal(imageProviderMeta{Model: p.model, RevisedPrompt: resp.Data[0].RevisedPrompt})
	p.logger.Info("Image data received", zap.Int("size_bytes", len(data)))
	return &GeneratedMedia{Data: data, ContentType: "image/png", Meta: meta}, nil
}

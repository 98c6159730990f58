package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// SpeechConfig configures the self-hosted TTS server client.
type SpeechConfig struct {
	ServerURL string
	Voice     string
	Timeout   time.Duration
	Retry     RetryPolicy
}

type ttsSpeechProvider struct {
	serverURL string
	voice     string
	client    *http.Client
	retry     RetryPolicy
	logger    *zap.Logger
}

// NewSpeechProvider creates a SpeechProvider talking to a TTS HTTP server.
func NewSpeechProvider(cfg SpeechConfig, logger *zap.Logger) (SpeechProvider, error) {
	if cfg.ServerURL == "" {
		return nil, errors.New("TTS server URL is not configured")
	}
	return &ttsSpeechProvider{
		serverURL: cfg.ServerURL,
		voice:     cfg.Voice,
		client:    &http.Client{Timeout: cfg.Timeout},
		retry:     cfg.Retry,
		logger:    logger.Named("SpeechProvider"),
	}, nil
}

type ttsRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

type speechProviderMeta struct {
	Voice string `json:"voice"`
}

func (p *ttsSpeechProvider) Synthesize(ctx context.Context, text string) (*GeneratedMedia, error) {
	p.logger.Info("Synthesizing narration", zap.Int("text_len", len(text)), zap.String("voice", p.voice))

	body, err := json.Marshal(ttsRequest{Text: text, Voice: p.voice})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal request: %v", ErrSpeechSynthesisFailed, err)
	}

	var audio []byte
	err = p.retry.Do(ctx, func(ctx context.Context) error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, p.serverURL+"/synthesize", bytes.NewReader(body))
		if reqErr != nil {
			return reqErr
		}
		req.Header.Set("Content-Type", "application/json")

		resp, callErr := p.client.Do(req)
		if callErr != nil {
			return callErr
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return fmt.Errorf("TTS server returned status %d: %s", resp.StatusCode, string(errBody))
		}
		audio, callErr = io.ReadAll(resp.Body)
		return callErr
	})
	if err != nil {
		p.logger.Error("TTS call failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrSpeechSynthesisFailed, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: server returned empty audio", ErrSpeechSynthesisFailed)
	}

	meta, _ := json.Marshal(speechProviderMeta{Voice: p.voice})
	p.logger.Info("Narration audio received", zap.Int("size_bytes", len(audio)))
	return &GeneratedMedia{Data: audio, ContentType: "audio/mpeg", Meta: meta}, nil
}

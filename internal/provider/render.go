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

// RenderConfig configures the external render backend client.
type RenderConfig struct {
	BaseURL   string
	AuthToken string
	Timeout   time.Duration
}

type httpRenderBackend struct {
	baseURL   string
	authToken string
	client    *http.Client
	logger    *zap.Logger
}

// NewRenderBackend creates a RenderBackend over the backend's HTTP API.
// Submission is deliberately not retried here: a failed submission terminates
// its job, and the caller creates a fresh job for the next attempt.
func NewRenderBackend(cfg RenderConfig, logger *zap.Logger) (RenderBackend, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("render backend URL is not configured")
	}
	return &httpRenderBackend{
		baseURL:   cfg.BaseURL,
		authToken: cfg.AuthToken,
		client:    &http.Client{Timeout: cfg.Timeout},
		logger:    logger.Named("RenderBackend"),
	}, nil
}

type renderSubmitResponse struct {
	RenderID  string `json:"render_id"`
	OutputURL string `json:"output_url"`
}

type renderStateResponse struct {
	Status    string `json:"status"`
	OutputURL string `json:"output_url"`
	Error     string `json:"error"`
}

func (b *httpRenderBackend) SubmitRender(ctx context.Context, payload RenderPayload) (*RenderSubmission, error) {
	b.logger.Info("Submitting render",
		zap.String("project_id", payload.ProjectID),
		zap.String("template", payload.TemplateType),
		zap.Int("version", payload.Version))

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal payload: %v", ErrRenderSubmissionFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/renders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderSubmissionFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+b.authToken)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		b.logger.Error("Render submission failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrRenderSubmissionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: backend returned status %d: %s", ErrRenderSubmissionFailed, resp.StatusCode, string(errBody))
	}

	var parsed renderSubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrRenderSubmissionFailed, err)
	}
	if parsed.RenderID == "" {
		return nil, fmt.Errorf("%w: backend returned no render id", ErrRenderSubmissionFailed)
	}

	b.logger.Info("Render accepted", zap.String("external_render_id", parsed.RenderID))
	return &RenderSubmission{ExternalRenderID: parsed.RenderID, ProvisionalOutputURL: parsed.OutputURL}, nil
}

func (b *httpRenderBackend) GetRenderState(ctx context.Context, externalRenderID string) (*RenderState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/renders/"+externalRenderID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build render state request: %w", err)
	}
	if b.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+b.authToken)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to poll render state: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("render state poll returned status %d: %s", resp.StatusCode, string(errBody))
	}

	var parsed renderStateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode render state: %w", err)
	}
	return &RenderState{Status: parsed.Status, OutputURL: parsed.OutputURL, Error: parsed.Error}, nil
}

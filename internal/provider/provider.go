// Package provider wraps the external generation services the pipeline
// depends on: image synthesis, speech synthesis and the render backend.
// Every call here is a suspension point with an explicit timeout; a timeout
// is reported like any other provider failure.
package provider

import (
	"context"
	"encoding/json"
	"errors"
)

// Provider failure sentinels. The raw provider error text is preserved in the
// wrapped error for operator debugging.
var (
	ErrImageGenerationFailed  = errors.New("image generation failed")
	ErrSpeechSynthesisFailed  = errors.New("speech synthesis failed")
	ErrRenderSubmissionFailed = errors.New("render submission failed")
)

// GeneratedMedia is the raw result of one provider call.
type GeneratedMedia struct {
	Data        []byte
	ContentType string
	Meta        json.RawMessage // free-form provider metadata, stored on the asset
}

// ImageProvider synthesizes one illustration from a prompt.
type ImageProvider interface {
	GenerateImage(ctx context.Context, prompt string) (*GeneratedMedia, error)
}

// SpeechProvider synthesizes narration audio from text.
type SpeechProvider interface {
	Synthesize(ctx context.Context, text string) (*GeneratedMedia, error)
}

// RenderPayload is the versioned, fixed-shape payload submitted to the render
// backend. The shape for a template type never changes once assets reference
// it; schema changes become a new template version.
type RenderPayload struct {
	ProjectID    string            `json:"projectId"`
	TemplateType string            `json:"templateType"`
	Version      int               `json:"version"`
	SlotOrder    []string          `json:"slotOrder"`
	Slots        map[string]string `json:"slots"` // slot key -> approved asset URL
}

// RenderSubmission is the backend's acknowledgement of an accepted render.
type RenderSubmission struct {
	ExternalRenderID     string
	ProvisionalOutputURL string
}

// RenderState mirrors the backend's view of a render when polled.
type RenderState struct {
	Status    string // "rendering", "completed" or "failed"
	OutputURL string
	Error     string
}

// RenderBackend submits render payloads and reports their progress.
type RenderBackend interface {
	SubmitRender(ctx context.Context, payload RenderPayload) (*RenderSubmission, error)
	GetRenderState(ctx context.Context, externalRenderID string) (*RenderState, error)
}

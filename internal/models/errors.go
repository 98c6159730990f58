package models

import "errors"

// Application-wide standard errors
var (
	// Common resource errors
	ErrNotFound           = errors.New("resource not found")
	ErrProjectNotFound    = errors.New("story project not found")
	ErrPromptNotFound     = errors.New("prompt not found")
	ErrAssetNotFound      = errors.New("asset not found")
	ErrJobNotFound        = errors.New("generation job not found")
	ErrChildNotFound      = errors.New("child not found")
	ErrEntryNotFound      = errors.New("moderation queue entry not found")
	ErrAssignmentNotFound = errors.New("assignment not found")

	// Validation errors (rejected before any side effect)
	ErrInvalidVariables = errors.New("required story variable is missing")
	ErrUnknownTemplate  = errors.New("unknown template type")
	ErrUnknownSlot      = errors.New("unknown slot for template")
	ErrInvalidInput     = errors.New("invalid input data")

	// State machine errors
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAssetMissingURL   = errors.New("asset has no storage URL")
	ErrPromptNotReady    = errors.New("slot prompt has not been generated yet")

	// Conflict errors (enforced atomically at the storage layer)
	ErrAlreadyAssigned = errors.New("child already has an active assignment for this template")
	ErrAlreadyInFlight = errors.New("project already has a render job in flight")

	// Readiness errors
	ErrAssetsNotReady = errors.New("project assets are not ready for render")

	// Provider errors (recorded on the job before being surfaced)
	ErrProviderFailed = errors.New("external provider call failed")

	// Moderation errors
	ErrQueueEmpty    = errors.New("moderation queue is empty")
	ErrNotClaimOwner = errors.New("entry is claimed by another moderator")
)

package domain

import "errors"

// ============================================================================
// Request Validation Errors
// ============================================================================

var (
	ErrInvalidRequestBody = errors.New("invalid request body: expected a JSON object of named numeric features")
	ErrMissingFeature     = errors.New("missing required feature")
	ErrNonNumericFeature  = errors.New("feature must be a finite number")
	ErrUnknownFeature     = errors.New("unknown feature")
	ErrInvalidLocation    = errors.New("invalid location: latitude must be in [-90, 90] and longitude in [-180, 180]")
)

// ============================================================================
// Model Errors
// ============================================================================

var (
	ErrModelNotLoaded    = errors.New("model not loaded")
	ErrPredictionFailed  = errors.New("prediction failed")
	ErrInvalidArtifact   = errors.New("invalid model artifact")
	ErrUnsupportedKind   = errors.New("unsupported model kind")
	ErrVectorSizeInvalid = errors.New("feature vector size does not match schema")
)

// ============================================================================
// Upstream Errors
// ============================================================================

var (
	ErrUpstreamUnavailable = errors.New("upstream air quality source unavailable")
	ErrReadingIncomplete   = errors.New("upstream reading is missing a required feature")
)

package genclient

import (
	"errors"
	"fmt"
)

var (
	// ErrGenerationBlocked means the service answered but produced no image,
	// usually because of safety filtering.
	ErrGenerationBlocked = errors.New("no images were generated")
	// ErrUpscaleBlocked means the service answered without an image part.
	ErrUpscaleBlocked = errors.New("no upscaled image was returned")
	// ErrInvalidInput means a precondition on the request failed before any
	// network call was made.
	ErrInvalidInput = errors.New("invalid input")
)

// TransportError wraps any network or service level failure, including
// malformed responses.
type TransportError struct {
	Op  string // generate or upscale
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func generateTransportError(err error) *TransportError {
	return &TransportError{Op: "generate", Err: err}
}

func upscaleTransportError(err error) *TransportError {
	return &TransportError{Op: "upscale", Err: err}
}

// UserMessage returns the text to show for an error produced by Client, and
// false when err did not come from this package. Causes are never included.
func UserMessage(err error) (string, bool) {
	var te *TransportError
	switch {
	case errors.Is(err, ErrGenerationBlocked):
		return "No images were generated. The prompt may have been blocked.", true
	case errors.Is(err, ErrUpscaleBlocked):
		return "No upscaled image was returned. The operation may have been blocked.", true
	case errors.As(err, &te) && te.Op == "upscale":
		return "Failed to upscale image. Please try again.", true
	case errors.As(err, &te):
		return "Failed to generate image. Please check your prompt or API key.", true
	case errors.Is(err, ErrInvalidInput):
		return "The request was rejected before it was sent. Please check your input.", true
	}
	return "", false
}

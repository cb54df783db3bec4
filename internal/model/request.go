package model

import (
	"fmt"
	"strings"
)

// MediaRequest is a single inbound request for playable assets
type MediaRequest struct {
	URL    string
	Width  *int
	Height *int
	FPS    *int
}

// WantsVideo reports whether video mode is selected (both dimensions present)
func (r MediaRequest) WantsVideo() bool {
	return r.Width != nil && r.Height != nil
}

// TargetFPS returns the requested frame rate cap, or 0 when none was given
func (r MediaRequest) TargetFPS() int {
	if r.FPS == nil || *r.FPS <= 0 {
		return 0
	}
	return *r.FPS
}

// Validate checks the request invariants
func (r MediaRequest) Validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidRequest)
	}
	if (r.Width == nil) != (r.Height == nil) {
		return fmt.Errorf("%w: width and height must be given together", ErrInvalidRequest)
	}
	if r.WantsVideo() && (*r.Width <= 0 || *r.Height <= 0) {
		return fmt.Errorf("%w: width and height must be positive", ErrInvalidRequest)
	}
	return nil
}

// Dimensions returns the capped target dimensions, or zeros for audio-only requests
func (r MediaRequest) Dimensions(maxWidth, maxHeight int) (int, int) {
	if !r.WantsVideo() {
		return 0, 0
	}
	return CapDimensions(*r.Width, *r.Height, maxWidth, maxHeight)
}

// CapDimensions clamps width and height to the given maxima
func CapDimensions(width, height, maxWidth, maxHeight int) (int, int) {
	return min(width, maxWidth), min(height, maxHeight)
}

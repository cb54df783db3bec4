package model

import "fmt"

// Artifact file extensions
const (
	AudioExtension = ".dfpwm"
	VideoExtension = ".32vid"
)

// AudioName returns the deterministic audio artifact name for a media id
func AudioName(mediaID string) string {
	return mediaID + AudioExtension
}

// VideoName returns the deterministic video artifact name for a media id and target size
func VideoName(mediaID string, width, height int) string {
	return fmt.Sprintf("%s(%dx%d)%s", mediaID, width, height, VideoExtension)
}

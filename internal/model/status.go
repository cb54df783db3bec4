package model

// PipelineState represents the state of a single media request
type PipelineState string

const (
	// StateIdle means the request has not started yet
	StateIdle PipelineState = "Idle"

	// StateResolvingMetadata means the extraction service is resolving the URL
	StateResolvingMetadata PipelineState = "ResolvingMetadata"

	// StateAcquiringSource means source files are being downloaded into the workspace
	StateAcquiringSource PipelineState = "AcquiringSource"

	// StateConverting means the audio and/or video roles are running
	StateConverting PipelineState = "Converting"

	// StateJoined means every started role has returned
	StateJoined PipelineState = "Joined"

	// StateCompleted means every requested role produced or already had an artifact
	StateCompleted PipelineState = "Completed"

	// StatePartiallyFailed means at least one requested role failed
	StatePartiallyFailed PipelineState = "PartiallyFailed"

	// StateFailed means the request was rejected before any conversion started
	StateFailed PipelineState = "Failed"
)

// String returns the string representation of PipelineState
func (s PipelineState) String() string {
	return string(s)
}

// IsFinished returns true if the state is terminal
func (s PipelineState) IsFinished() bool {
	return s == StateCompleted || s == StatePartiallyFailed || s == StateFailed
}

// Role is one of the two independent conversion outputs a request may require
type Role string

const (
	RoleAudio Role = "audio"
	RoleVideo Role = "video"
)

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

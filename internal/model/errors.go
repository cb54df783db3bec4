package model

import "errors"

// Error taxonomy of the pipeline. Fatal errors abort the request before any
// conversion; role-scoped errors only fail their role.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrResolution     = errors.New("resolution failure")
	ErrLiveStream     = errors.New("live stream unsupported")
	ErrAcquisition    = errors.New("acquisition failure")
	ErrSourceMissing  = errors.New("source missing")
	ErrConversion     = errors.New("conversion failure")
)

// Client-facing messages. Internal diagnostics never reach the client.
const (
	MsgInvalidRequest     = "Invalid request."
	MsgResolutionFailed   = "Failed to get resource information."
	MsgLiveUnsupported    = "Livestreams are not supported"
	MsgDownloadFailed     = "Failed to download resource. Try a different URL or retry later."
	MsgAudioSourceMissing = "Audio download failed."
	MsgVideoSourceMissing = "Video download failed."
	MsgAudioConvertFailed = "Failed to convert audio!"
	MsgVideoConvertFailed = "Failed to convert video!"
	MsgChunkedFailed      = "Video conversion failed."
)

// Status messages sent while a request progresses
const (
	MsgGettingInfo     = "Getting resource information ..."
	MsgDownloading     = "Downloading resource ..."
	MsgConvertingAudio = "Converting audio to dfpwm ..."
	MsgConvertingVideo = "Converting video to 32vid ..."
	MsgMergingChunks   = "Merging video chunks ..."
)

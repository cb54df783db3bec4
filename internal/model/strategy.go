package model

// DownloaderBackend selects how the extraction service fetches media bytes
type DownloaderBackend int

const (
	// DownloaderNative uses the extraction service's own segment downloader
	DownloaderNative DownloaderBackend = iota
	// DownloaderExternalFFmpeg hands fetching to ffmpeg
	DownloaderExternalFFmpeg
)

// String returns the string representation of DownloaderBackend
func (b DownloaderBackend) String() string {
	switch b {
	case DownloaderNative:
		return "native"
	case DownloaderExternalFFmpeg:
		return "ffmpeg"
	default:
		return "unknown"
	}
}

// FormatStrategy is one rung of the acquisition ladder
type FormatStrategy struct {
	Selector   string
	Downloader DownloaderBackend
}

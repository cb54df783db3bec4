package download

import (
	"strings"

	"github.com/ytget/youcube/internal/model"
)

// Format selectors. Primary selectors prefer mp4/m4a and exclude HLS;
// fallback selectors accept any container and protocol.
const (
	VideoPrimarySelector  = "worstvideo[ext=mp4][protocol!=m3u8]+worstaudio[ext=m4a][protocol!=m3u8]/worst[ext=mp4][protocol!=m3u8]/worst[protocol!=m3u8]"
	VideoFallbackSelector = "worstvideo*+worstaudio*/worst"
	AudioPrimarySelector  = "worstaudio[ext=m4a][protocol!=m3u8]/worstaudio[protocol!=m3u8]"
	AudioFallbackSelector = "worstaudio*/worst"
)

// FragmentFailureTokens are lower-case substrings of download errors caused
// by fragmented streams rejecting the native segment downloader.
var FragmentFailureTokens = []string{
	"fragment not found",
	"downloaded file is empty",
	"http error 403",
	"forbidden",
}

// Ladder returns the acquisition tiers in the order they are tried: primary
// selector natively, fallback selector natively, fallback selector through
// the external ffmpeg downloader.
func Ladder(wantsVideo bool) []model.FormatStrategy {
	primary, fallback := AudioPrimarySelector, AudioFallbackSelector
	if wantsVideo {
		primary, fallback = VideoPrimarySelector, VideoFallbackSelector
	}
	return []model.FormatStrategy{
		{Selector: primary, Downloader: model.DownloaderNative},
		{Selector: fallback, Downloader: model.DownloaderNative},
		{Selector: fallback, Downloader: model.DownloaderExternalFFmpeg},
	}
}

// IsFragmentFailure reports whether msg denotes a fragmented-stream failure
func IsFragmentFailure(msg string) bool {
	msg = strings.ToLower(msg)
	for _, token := range FragmentFailureTokens {
		if strings.Contains(msg, token) {
			return true
		}
	}
	return false
}

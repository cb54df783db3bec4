package download

import (
	"strings"
	"testing"

	"github.com/ytget/youcube/internal/model"
)

func TestLadder(t *testing.T) {
	for _, wantsVideo := range []bool{false, true} {
		ladder := Ladder(wantsVideo)
		if len(ladder) != 3 {
			t.Fatalf("Ladder(%v) has %d tiers, expected 3", wantsVideo, len(ladder))
		}
		if ladder[0].Downloader != model.DownloaderNative || ladder[1].Downloader != model.DownloaderNative {
			t.Errorf("Ladder(%v): first two tiers must use the native downloader", wantsVideo)
		}
		if ladder[2].Downloader != model.DownloaderExternalFFmpeg {
			t.Errorf("Ladder(%v): last tier must use the external downloader", wantsVideo)
		}
		if ladder[1].Selector != ladder[2].Selector {
			t.Errorf("Ladder(%v): external tier must reuse the fallback selector", wantsVideo)
		}
		if !strings.Contains(ladder[0].Selector, "protocol!=m3u8") {
			t.Errorf("Ladder(%v): primary selector must exclude HLS, got %s", wantsVideo, ladder[0].Selector)
		}
		if strings.Contains(ladder[1].Selector, "protocol") {
			t.Errorf("Ladder(%v): fallback selector must accept any protocol, got %s", wantsVideo, ladder[1].Selector)
		}
	}
}

func TestLadder_AudioHasNoVideoTerms(t *testing.T) {
	for _, s := range Ladder(false) {
		for _, term := range []string{"video", "mp4", "avc", "h264", "vp9"} {
			if strings.Contains(s.Selector, term) {
				t.Errorf("audio selector %q contains video term %q", s.Selector, term)
			}
		}
	}
}

func TestIsFragmentFailure(t *testing.T) {
	tests := []struct {
		msg      string
		expected bool
	}{
		{"ERROR: unable to download video data: HTTP Error 403: Forbidden", true},
		{"ERROR: fragment not found; Skipping fragment 3", true},
		{"ERROR: The downloaded file is empty", true},
		{"Access FORBIDDEN", true},
		{"ERROR: unable to download video data: HTTP Error 404: Not Found", false},
		{"", false},
	}

	for _, test := range tests {
		if got := IsFragmentFailure(test.msg); got != test.expected {
			t.Errorf("IsFragmentFailure(%q) = %v, expected %v", test.msg, got, test.expected)
		}
	}
}

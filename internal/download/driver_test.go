package download

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ytget/youcube/internal/model"
	"github.com/ytget/youcube/internal/notify"
	"github.com/ytget/youcube/internal/platform"
)

type fakeExtractor struct {
	mu        sync.Mutex
	infos     map[string]string
	extracted []string
	failures  []error
	attempts  []model.FormatStrategy
}

func (f *fakeExtractor) ExtractInfo(_ context.Context, target string) (*platform.ExtractedInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.extracted = append(f.extracted, target)
	doc, ok := f.infos[target]
	if !ok {
		return nil, errors.New("ERROR: Unsupported URL: " + target)
	}
	return platform.ParseExtractedInfo([]byte(doc))
}

func (f *fakeExtractor) Download(_ context.Context, _ *platform.ExtractedInfo, strategy model.FormatStrategy, _ string, onProgress ProgressFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := len(f.attempts)
	f.attempts = append(f.attempts, strategy)
	if onProgress != nil {
		onProgress(50, 3*time.Second)
	}
	if idx < len(f.failures) {
		return f.failures[idx]
	}
	return nil
}

const fullVideo = `{"id":"abc","title":"Song","extractor":"youtube","like_count":1,"view_count":2,"duration":3.5,"formats":[{}]}`

func TestResolve_Video(t *testing.T) {
	ext := &fakeExtractor{infos: map[string]string{"https://youtu.be/abc": fullVideo}}
	media, info, err := NewDriver(ext).Resolve(context.Background(), model.MediaRequest{URL: "https://youtu.be/abc"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if media.ID != "abc" || media.Title != "Song" || info.ID != "abc" {
		t.Errorf("Resolve() = %+v", media)
	}
	if len(media.PlaylistSiblingIDs) != 0 {
		t.Errorf("Expected no siblings, got %v", media.PlaylistSiblingIDs)
	}
	if len(ext.extracted) != 1 {
		t.Errorf("Expected one extraction, got %v", ext.extracted)
	}
}

func TestResolve_PlaylistReResolvesFlatEntry(t *testing.T) {
	playlist := `{"_type":"playlist","id":"PL","entries":[
		{"_type":"url","id":"abc","url":"https://www.youtube.com/watch?v=abc"},
		{"_type":"url","id":"def"},
		{"_type":"url","id":"ghi"}]}`
	ext := &fakeExtractor{infos: map[string]string{
		"https://youtube.com/playlist?list=PL": playlist,
		"https://www.youtube.com/watch?v=abc":  fullVideo,
	}}

	media, _, err := NewDriver(ext).Resolve(context.Background(), model.MediaRequest{URL: "https://youtube.com/playlist?list=PL"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if media.ID != "abc" || media.ViewCount == nil || *media.ViewCount != 2 {
		t.Errorf("Expected fully resolved first entry, got %+v", media)
	}
	if !reflect.DeepEqual(media.PlaylistSiblingIDs, []string{"def", "ghi"}) {
		t.Errorf("PlaylistSiblingIDs = %v", media.PlaylistSiblingIDs)
	}
	if len(ext.extracted) != 2 {
		t.Errorf("Expected two extractions, got %v", ext.extracted)
	}
}

func TestResolve_RewriterList(t *testing.T) {
	ext := &fakeExtractor{infos: map[string]string{"ytsearch:first": fullVideo}}
	rewriter := RewriterFunc(func(_ context.Context, url string) ([]string, error) {
		return []string{"ytsearch:first", "ytsearch:second", "ytsearch:third"}, nil
	})

	media, _, err := NewDriver(ext, WithRewriter(rewriter)).Resolve(context.Background(), model.MediaRequest{URL: "https://open.spotify.com/album/x"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !reflect.DeepEqual(media.PlaylistSiblingIDs, []string{"ytsearch:second", "ytsearch:third"}) {
		t.Errorf("PlaylistSiblingIDs = %v", media.PlaylistSiblingIDs)
	}
}

func TestResolve_Failures(t *testing.T) {
	live := `{"id":"live1","title":"Live","extractor":"youtube","like_count":1,"view_count":2,"is_live":true}`
	ext := &fakeExtractor{infos: map[string]string{
		"live":  live,
		"empty": `{"_type":"playlist","id":"PL","entries":[]}`,
	}}
	d := NewDriver(ext)

	media, _, err := d.Resolve(context.Background(), model.MediaRequest{URL: "live"})
	if !errors.Is(err, model.ErrLiveStream) {
		t.Errorf("Expected ErrLiveStream, got %v", err)
	}
	if media == nil || !media.IsLive {
		t.Errorf("Expected live metadata alongside the error, got %+v", media)
	}

	if _, _, err := d.Resolve(context.Background(), model.MediaRequest{URL: "empty"}); !errors.Is(err, model.ErrResolution) {
		t.Errorf("Expected ErrResolution for empty playlist, got %v", err)
	}
	if _, _, err := d.Resolve(context.Background(), model.MediaRequest{URL: "missing"}); !errors.Is(err, model.ErrResolution) {
		t.Errorf("Expected ErrResolution for unknown URL, got %v", err)
	}
}

func acquire(t *testing.T, failures ...error) (*fakeExtractor, *notify.Recorder, error) {
	t.Helper()
	ext := &fakeExtractor{failures: failures}
	info, err := platform.ParseExtractedInfo([]byte(fullVideo))
	if err != nil {
		t.Fatal(err)
	}
	rec := &notify.Recorder{}
	err = NewDriver(ext).Acquire(context.Background(), info, true, t.TempDir(), rec)
	return ext, rec, err
}

func TestAcquire_PrimarySucceeds(t *testing.T) {
	ext, rec, err := acquire(t)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if len(ext.attempts) != 1 {
		t.Errorf("Expected one attempt, got %d", len(ext.attempts))
	}
	if rec.Count(model.EventError) != 0 {
		t.Errorf("Expected no error events, got %v", rec.Messages(model.EventError))
	}
	statuses := rec.Messages(model.EventStatus)
	if len(statuses) < 2 || statuses[0] != model.MsgDownloading || statuses[1] != "download 50.0% ETA 00:03" {
		t.Errorf("Unexpected status messages: %v", statuses)
	}
}

func TestAcquire_NonFragmentFailureSkipsExternal(t *testing.T) {
	notFound := errors.New("ERROR: HTTP Error 404: Not Found")
	ext, rec, err := acquire(t, notFound, notFound)
	if !errors.Is(err, model.ErrAcquisition) {
		t.Fatalf("Expected ErrAcquisition, got %v", err)
	}
	if len(ext.attempts) != 2 {
		t.Errorf("Expected two attempts, got %d", len(ext.attempts))
	}
	for _, a := range ext.attempts {
		if a.Downloader == model.DownloaderExternalFFmpeg {
			t.Error("External downloader must not run after a non-fragment failure")
		}
	}
	if msgs := rec.Messages(model.EventError); len(msgs) != 1 || msgs[0] != model.MsgDownloadFailed {
		t.Errorf("Expected one download error event, got %v", msgs)
	}
	if strings.Contains(strings.Join(rec.Messages(model.EventError), ""), "404") {
		t.Error("Diagnostics must not reach the client")
	}
}

func TestAcquire_FragmentFailureEscalates(t *testing.T) {
	forbidden := errors.New("ERROR: unable to download video data: HTTP Error 403: Forbidden")
	ext, rec, err := acquire(t, forbidden, forbidden, forbidden)
	if !errors.Is(err, model.ErrAcquisition) {
		t.Fatalf("Expected ErrAcquisition, got %v", err)
	}
	if len(ext.attempts) != 3 || ext.attempts[2].Downloader != model.DownloaderExternalFFmpeg {
		t.Errorf("Expected three attempts ending with the external downloader, got %+v", ext.attempts)
	}
	if rec.Count(model.EventError) != 1 {
		t.Errorf("Expected one error event, got %d", rec.Count(model.EventError))
	}
}

func TestAcquire_ExternalTierRecovers(t *testing.T) {
	forbidden := errors.New("HTTP Error 403")
	ext, rec, err := acquire(t, errors.New("requested format not available"), forbidden)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if len(ext.attempts) != 3 {
		t.Errorf("Expected three attempts, got %d", len(ext.attempts))
	}
	if rec.Count(model.EventError) != 0 {
		t.Error("Expected no error events after recovery")
	}
}

func TestFormatETA(t *testing.T) {
	tests := []struct {
		eta      time.Duration
		expected string
	}{
		{0, "Unknown"},
		{65 * time.Second, "01:05"},
		{3725 * time.Second, "01:02:05"},
	}
	for _, test := range tests {
		if got := FormatETA(test.eta); got != test.expected {
			t.Errorf("FormatETA(%s) = %s, expected %s", test.eta, got, test.expected)
		}
	}
}

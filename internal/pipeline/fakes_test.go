package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ytget/youcube/internal/config"
	"github.com/ytget/youcube/internal/convert"
	"github.com/ytget/youcube/internal/download"
	"github.com/ytget/youcube/internal/lock"
	"github.com/ytget/youcube/internal/model"
	"github.com/ytget/youcube/internal/platform"
)

type fakeExtractor struct {
	mu         sync.Mutex
	infos      map[string]string
	files      []string
	failures   []error
	downloads  int
	workspaces []string
}

func (f *fakeExtractor) ExtractInfo(_ context.Context, target string) (*platform.ExtractedInfo, error) {
	doc, ok := f.infos[target]
	if !ok {
		return nil, errors.New("ERROR: Unsupported URL: " + target)
	}
	return platform.ParseExtractedInfo([]byte(doc))
}

func (f *fakeExtractor) Download(_ context.Context, _ *platform.ExtractedInfo, _ model.FormatStrategy, dir string, _ download.ProgressFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.downloads
	f.downloads++
	f.workspaces = append(f.workspaces, dir)
	if idx < len(f.failures) && f.failures[idx] != nil {
		return f.failures[idx]
	}
	for _, name := range f.files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("media"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeExtractor) downloadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.downloads
}

type fakeRunner struct {
	mu       sync.Mutex
	commands []convert.Command
	fail     func(convert.Command) error
}

func (f *fakeRunner) Run(_ context.Context, c convert.Command, _ func(string)) error {
	f.mu.Lock()
	f.commands = append(f.commands, c)
	fail := f.fail
	f.mu.Unlock()

	if fail != nil {
		if err := fail(c); err != nil {
			return err
		}
	}

	switch c.Tool {
	case convert.ToolSanjuuni:
		out := argAfter(c.Args, "-o")
		content := fmt.Sprintf("32Vid 1.1\n10\nframe-%s\n", filepath.Base(argAfter(c.Args, "-i")))
		return os.WriteFile(out, []byte(content), 0o644)
	case convert.ToolFFmpeg:
		out := c.Args[len(c.Args)-1]
		if strings.Contains(out, "%03d") {
			for i := 0; i < 3; i++ {
				if err := os.WriteFile(fmt.Sprintf(out, i), []byte("seg"), 0o644); err != nil {
					return err
				}
			}
			return nil
		}
		return os.WriteFile(out, []byte("ffmpeg"), 0o644)
	}
	return nil
}

func (f *fakeRunner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.commands)
}

func argAfter(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

type harness struct {
	cfg       *config.Config
	extractor *fakeExtractor
	runner    *fakeRunner
	orch      *Orchestrator
}

const (
	testURL   = "https://youtu.be/abc"
	liveURL   = "https://youtu.be/live"
	videoInfo = `{"id":"abc","title":"Song","extractor":"youtube","like_count":5,"view_count":7,"duration":12.5,"formats":[{}]}`
	liveInfo  = `{"id":"live","title":"Live","extractor":"youtube","like_count":1,"view_count":1,"is_live":true}`
)

func newHarness(t *testing.T, mutate func(*config.Config)) *harness {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Workers = 2
	if mutate != nil {
		mutate(&cfg)
	}

	ext := &fakeExtractor{
		infos: map[string]string{testURL: videoInfo, liveURL: liveInfo},
		files: []string{"abc.mp4"},
	}
	runner := &fakeRunner{}
	orch := New(&cfg, download.NewDriver(ext), convert.NewEngine(&cfg, runner), lock.NewMemory(), zerolog.Nop())
	return &harness{cfg: &cfg, extractor: ext, runner: runner, orch: orch}
}

func intPtr(v int) *int { return &v }

func videoRequest(w, h int) model.MediaRequest {
	return model.MediaRequest{URL: testURL, Width: intPtr(w), Height: intPtr(h)}
}

type failingLocker struct{ err error }

func (f failingLocker) Lock(context.Context, string) (func(), error) {
	return nil, f.err
}

func (h *harness) useLocker(l lock.Locker) {
	h.orch = New(h.cfg, download.NewDriver(h.extractor), convert.NewEngine(h.cfg, h.runner), l, zerolog.Nop())
}

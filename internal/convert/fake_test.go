package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// fakeRunner stands in for ffmpeg and sanjuuni. It writes plausible output to
// the path following "-o" (sanjuuni) or the last argument (ffmpeg).
type fakeRunner struct {
	mu       sync.Mutex
	commands []Command
	fail     func(Command) error
	lines    []string
}

func (f *fakeRunner) Run(_ context.Context, c Command, onLine func(string)) error {
	f.mu.Lock()
	f.commands = append(f.commands, c)
	f.mu.Unlock()

	if onLine != nil {
		for _, line := range f.lines {
			onLine(line)
		}
	}
	if f.fail != nil {
		if err := f.fail(c); err != nil {
			return err
		}
	}

	switch c.Tool {
	case ToolSanjuuni:
		out := argAfter(c.Args, "-o")
		src := argAfter(c.Args, "-i")
		content := fmt.Sprintf("32Vid 1.1\n10\n\nframe-of-%s\n", filepath.Base(src))
		return os.WriteFile(out, []byte(content), 0o644)
	case ToolFFmpeg:
		out := c.Args[len(c.Args)-1]
		if strings.Contains(out, "%03d") {
			for i := 0; i < 3; i++ {
				if err := os.WriteFile(fmt.Sprintf(out, i), []byte("seg"), 0o644); err != nil {
					return err
				}
			}
			return nil
		}
		return os.WriteFile(out, []byte("ffmpeg-output"), 0o644)
	}
	return nil
}

func (f *fakeRunner) count(tool string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.commands {
		if c.Tool == tool {
			n++
		}
	}
	return n
}

func argAfter(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func exitCode(tool string, code int) error {
	return &ExitError{Tool: tool, Code: code}
}


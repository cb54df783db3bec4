package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ytget/youcube/internal/model"
)

// File permissions
const (
	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)

// PartialExtension marks a file that is still being written
const PartialExtension = ".part"

// File extensions to skip when looking for downloaded sources
var (
	SkippedExtensions = []string{PartialExtension, ".ytdl"}
)

// Role-specific extension allow-lists, lower case without the dot
var (
	VideoExtensions = []string{"mp4", "mkv", "webm", "mov", "avi"}
	AudioExtensions = []string{"m4a", "mp3", "aac", "ogg", "opus", "wav", "webm"}
)

// Segment naming produced by the video preparation stage
const (
	SegmentInfix     = ".seg"
	SegmentExtension = ".mp4"
)

// CreateDirectoryIfNotExists creates directory if it doesn't exist
func CreateDirectoryIfNotExists(dirPath string) error {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return os.MkdirAll(dirPath, DefaultDirPermissions)
	}
	return nil
}

// SelectSource picks the file in dir to feed the given role. A file named
// exactly {id}.{ext} wins, then the first file with a role extension, then
// the first remaining file. ok is false when dir holds no eligible file.
func SelectSource(dir, id string, role model.Role) (path string, ok bool, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || isSkipped(entry.Name()) {
			continue
		}
		files = append(files, entry.Name())
	}
	if len(files) == 0 {
		return "", false, nil
	}

	merged := regexp.MustCompile(`^` + regexp.QuoteMeta(id) + `\.[^.]+$`)
	for _, name := range files {
		if merged.MatchString(name) {
			return filepath.Join(dir, name), true, nil
		}
	}

	allowed := AudioExtensions
	if role == model.RoleVideo {
		allowed = VideoExtensions
	}
	for _, name := range files {
		if hasExtension(name, allowed) {
			return filepath.Join(dir, name), true, nil
		}
	}

	return filepath.Join(dir, files[0]), true, nil
}

// ArtifactExists reports whether path is a finished artifact: a regular,
// non-empty file that is not a partial write.
func ArtifactExists(path string) bool {
	if strings.HasSuffix(path, PartialExtension) {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}

// PartialPath returns a unique temporary name next to the final artifact path
func PartialPath(final string) string {
	return final + "." + uuid.NewString() + PartialExtension
}

// CommitArtifact moves a finished partial file into its final place
func CommitArtifact(partial, final string) error {
	info, err := os.Stat(partial)
	if err != nil {
		return fmt.Errorf("artifact %s was not produced: %w", filepath.Base(final), err)
	}
	if info.Size() == 0 {
		_ = os.Remove(partial)
		return fmt.Errorf("artifact %s is empty", filepath.Base(final))
	}
	if err := os.Rename(partial, final); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("failed to commit artifact %s: %w", filepath.Base(final), err)
	}
	return nil
}

// RemoveStalePartials deletes partial artifacts left behind by an interrupted
// run. Only partials not modified for olderThan are removed, so files another
// live process is still writing survive.
func RemoveStalePartials(dir string, olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), PartialExtension) {
			continue
		}
		info, err := entry.Info()
		if err != nil || time.Since(info.ModTime()) < olderThan {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("failed to remove %s: %w", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}

// SegmentPattern returns the output pattern for time-based segments of id in dir
func SegmentPattern(dir, id string) string {
	return filepath.Join(dir, id+SegmentInfix+"%03d"+SegmentExtension)
}

// ListSegments returns the segments of id in dir sorted lexicographically.
// Zero-padded indices make lexical order equal to playback order.
func ListSegments(dir, id string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	prefix := id + SegmentInfix
	var segments []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, SegmentExtension) {
			continue
		}
		segments = append(segments, filepath.Join(dir, name))
	}
	sort.Strings(segments)
	return segments, nil
}

func isSkipped(name string) bool {
	for _, ext := range SkippedExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func hasExtension(name string, allowed []string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return false
	}
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}

package convert

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ytget/youcube/internal/model"
	"github.com/ytget/youcube/internal/platform"
)

// HeaderLines is the number of leading lines of a 32vid stream holding global
// state: the format header and the frame-rate line.
const HeaderLines = 2

// ErrNoChunks is returned when a merge has no inputs
var ErrNoChunks = errors.New("no video chunks to merge")

// MergeChunks writes the chunk files to w in order. The header of the first
// chunk is copied once; every later chunk has its header skipped. Blank lines
// are dropped and every frame line ends with a newline.
func MergeChunks(chunks []string, w io.Writer) error {
	if len(chunks) == 0 {
		return fmt.Errorf("%w: %w", model.ErrConversion, ErrNoChunks)
	}

	bw := bufio.NewWriter(w)
	for i, chunk := range chunks {
		if err := mergeChunk(chunk, i == 0, bw); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func mergeChunk(path string, first bool, w *bufio.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open chunk %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for i := 0; i < HeaderLines; i++ {
		line, err := r.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return fmt.Errorf("chunk %s has a truncated header: %w", filepath.Base(path), err)
		}
		if first {
			if _, err := w.WriteString(terminate(line)); err != nil {
				return err
			}
		}
	}

	for {
		line, err := r.ReadString('\n')
		if strings.TrimRight(line, "\r\n") != "" {
			if _, werr := w.WriteString(terminate(line)); werr != nil {
				return werr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read chunk %s: %w", filepath.Base(path), err)
		}
	}
}

func terminate(line string) string {
	if strings.HasSuffix(line, "\n") {
		return line
	}
	return line + "\n"
}

// MergeChunkFiles merges chunks into the artifact at out. The artifact
// appears only when the merge completes.
func MergeChunkFiles(chunks []string, out string) error {
	if len(chunks) == 0 {
		return fmt.Errorf("%w: %w", model.ErrConversion, ErrNoChunks)
	}

	partial := platform.PartialPath(out)
	f, err := os.Create(partial)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(partial), err)
	}

	if err := MergeChunks(chunks, f); err != nil {
		f.Close()
		_ = os.Remove(partial)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("failed to close %s: %w", filepath.Base(partial), err)
	}
	return platform.CommitArtifact(partial, out)
}

package download

import (
	"context"
	"time"

	"github.com/ytget/youcube/internal/model"
	"github.com/ytget/youcube/internal/platform"
)

// ProgressFunc receives download progress. eta is zero when unknown.
type ProgressFunc func(percent float64, eta time.Duration)

// Extractor is the extraction-service collaborator
type Extractor interface {
	// ExtractInfo resolves metadata for target without fetching media bytes
	ExtractInfo(ctx context.Context, target string) (*platform.ExtractedInfo, error)

	// Download fetches the media described by info into dir using strategy.
	// Files are named after info.MediaID().
	Download(ctx context.Context, info *platform.ExtractedInfo, strategy model.FormatStrategy, dir string, onProgress ProgressFunc) error
}

// Rewriter turns an aggregator link into one or more provider URLs
type Rewriter interface {
	Rewrite(ctx context.Context, url string) ([]string, error)
}

// RewriterFunc adapts a plain function to the Rewriter interface
type RewriterFunc func(ctx context.Context, url string) ([]string, error)

// Rewrite calls f(ctx, url)
func (f RewriterFunc) Rewrite(ctx context.Context, url string) ([]string, error) {
	return f(ctx, url)
}

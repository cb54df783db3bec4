package download

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ytget/youcube/internal/logx"
	"github.com/ytget/youcube/internal/model"
	"github.com/ytget/youcube/internal/notify"
	"github.com/ytget/youcube/internal/platform"
)

// Driver resolves requests and walks the format ladder
type Driver struct {
	extractor Extractor
	rewriter  Rewriter
}

// Option configures a Driver
type Option func(*Driver)

// WithRewriter installs an upstream URL rewriter
func WithRewriter(r Rewriter) Option {
	return func(d *Driver) { d.rewriter = r }
}

// NewDriver creates a driver backed by the given extractor
func NewDriver(extractor Extractor, opts ...Option) *Driver {
	d := &Driver{extractor: extractor}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Resolve fetches metadata only. Playlists resolve to their first entry with
// the remaining entry ids kept as siblings. A live broadcast returns
// model.ErrLiveStream together with its metadata.
func (d *Driver) Resolve(ctx context.Context, req model.MediaRequest) (*model.ResolvedMedia, *platform.ExtractedInfo, error) {
	log := logx.FromCtx(ctx).With().Str(logx.FieldStage, "resolve").Logger()

	target := req.URL
	var upstream []string
	if d.rewriter != nil {
		urls, err := d.rewriter.Rewrite(ctx, req.URL)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("url", req.URL).Msg("URL rewrite failed, using original URL")
		case len(urls) > 0:
			target = urls[0]
			upstream = urls[1:]
		}
	}

	info, err := d.extractor.ExtractInfo(ctx, target)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", model.ErrResolution, target, err)
	}

	var siblings []string
	if info.IsPlaylist() {
		primary, rest := platform.SplitPlaylist(info)
		if primary == nil {
			return nil, nil, fmt.Errorf("%w: playlist %s has no entries", model.ErrResolution, info.ID)
		}
		log.Debug().Str("playlist", info.ID).Int("entries", len(info.Entries)).Msg("Resolved playlist")
		info, siblings = primary, rest
	}

	if info.Incomplete() {
		log.Debug().Str("entry", info.ID).Msg("Entry metadata incomplete, resolving again")
		full, err := d.extractor.ExtractInfo(ctx, info.Target())
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s: %w", model.ErrResolution, info.Target(), err)
		}
		info = full
	}

	media := info.Media()
	media.PlaylistSiblingIDs = platform.MergeSiblings(media.ID, upstream, siblings)

	if media.IsLive {
		return media, info, fmt.Errorf("%w: %s", model.ErrLiveStream, media.ID)
	}

	log.Info().Str(logx.FieldMediaID, media.ID).Str("extractor", media.Extractor).
		Int("siblings", len(media.PlaylistSiblingIDs)).Msg("Resolved media")
	return media, info, nil
}

// Acquire downloads the media into workspace, escalating through the ladder.
// The external downloader tier only runs after a fragmented-stream failure.
// When every applicable tier fails a single error event is sent.
func (d *Driver) Acquire(ctx context.Context, info *platform.ExtractedInfo, wantsVideo bool, workspace string, sender notify.Sender) error {
	log := logx.FromCtx(ctx).With().Str(logx.FieldStage, "acquire").Logger()

	_ = sender.Send(model.Status(model.MsgDownloading))
	progress := func(percent float64, eta time.Duration) {
		_ = sender.Send(model.Statusf("download %.1f%% ETA %s", percent, FormatETA(eta)))
	}

	var lastErr error
	for tier, strategy := range Ladder(wantsVideo) {
		if strategy.Downloader == model.DownloaderExternalFFmpeg && (lastErr == nil || !IsFragmentFailure(lastErr.Error())) {
			log.Debug().Msg("Failure is not fragment related, skipping external downloader")
			break
		}

		err := d.extractor.Download(ctx, info, strategy, workspace, progress)
		if err == nil {
			log.Info().Int("tier", tier+1).Str("downloader", strategy.Downloader.String()).Msg("Download finished")
			return nil
		}
		lastErr = err

		log.Warn().Err(err).Int("tier", tier+1).Str("format", strategy.Selector).
			Str("downloader", strategy.Downloader.String()).Msg("Download attempt failed")

		if ctxErr := ctx.Err(); ctxErr != nil {
			lastErr = errors.Join(err, ctxErr)
			break
		}
	}

	_ = sender.Send(model.Error(model.MsgDownloadFailed))
	return fmt.Errorf("%w: %w", model.ErrAcquisition, lastErr)
}

// FormatETA renders an ETA the way yt-dlp prints it
func FormatETA(eta time.Duration) string {
	if eta <= 0 {
		return "Unknown"
	}
	secs := int(eta.Round(time.Second).Seconds())
	if h := secs / 3600; h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, (secs%3600)/60, secs%60)
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

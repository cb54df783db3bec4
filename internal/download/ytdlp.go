package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/ytget/youcube/internal/config"
	"github.com/ytget/youcube/internal/logx"
	"github.com/ytget/youcube/internal/model"
	"github.com/ytget/youcube/internal/platform"
)

// yt-dlp options
const (
	DefaultSearch       = "auto"
	ExtractorArgs       = "youtube:player_client=android,web"
	MergeOutputFormat   = "mp4"
	Retries             = "3"
	FragmentRetries     = "5"
	ConcurrentFragments = 1
	OutputTemplate      = "%(id)s.%(ext)s"
	ExternalDownloader  = "ffmpeg"
	ExternalArgs        = "ffmpeg:-loglevel error"
	ProgressInterval    = 500 * time.Millisecond
	MetaDirName         = "meta"
	diagnosticLines     = 5
)

// YtDlp is the Extractor backed by the yt-dlp binary
type YtDlp struct {
	executable string
	cookies    string
	proxy      string
	timeout    time.Duration
}

// NewYtDlp creates an extractor from the process configuration
func NewYtDlp(cfg *config.Config) *YtDlp {
	timeout := cfg.ProcessTimeout
	if timeout <= 0 {
		timeout = config.DefaultProcessTimeout
	}
	return &YtDlp{
		executable: cfg.YtDlpPath,
		cookies:    cfg.CookiesFile,
		proxy:      cfg.Proxy,
		timeout:    timeout,
	}
}

func (y *YtDlp) command() *ytdlp.Command {
	cmd := ytdlp.New().
		DefaultSearch(DefaultSearch).
		RestrictFilenames().
		ExtractorArgs(ExtractorArgs)

	if y.executable != "" {
		cmd.SetExecutable(y.executable)
	}
	if y.cookies != "" {
		cmd.Cookies(y.cookies)
	}
	if y.proxy != "" {
		cmd.Proxy(y.proxy)
	}
	return cmd
}

// ExtractInfo runs a flat, metadata-only extraction
func (y *YtDlp) ExtractInfo(ctx context.Context, target string) (*platform.ExtractedInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()

	res, err := y.infoCommand().Run(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp extraction failed: %s", diagnostic(res, err))
	}

	return platform.ParseExtractedInfo([]byte(res.Stdout))
}

func (y *YtDlp) infoCommand() *ytdlp.Command {
	return y.command().
		FlatPlaylist().
		SkipDownload().
		DumpSingleJSON()
}

// Download fetches the media into dir. Resolved documents are handed back to
// yt-dlp through --load-info-json so the source is not extracted twice.
func (y *YtDlp) Download(ctx context.Context, info *platform.ExtractedInfo, strategy model.FormatStrategy, dir string, onProgress ProgressFunc) error {
	ctx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()

	cmd, args, err := y.downloadCommand(info, strategy, dir, onProgress)
	if err != nil {
		return err
	}

	logx.FromCtx(ctx).Debug().Str(logx.FieldTool, "yt-dlp").Str("format", strategy.Selector).
		Str("downloader", strategy.Downloader.String()).Msg("Starting download")

	res, err := cmd.Run(ctx, args...)
	if err != nil {
		return fmt.Errorf("yt-dlp download failed: %s", diagnostic(res, err))
	}
	return nil
}

// downloadCommand builds the yt-dlp invocation for one ladder tier. args holds
// the positional target when no info document can be handed over.
func (y *YtDlp) downloadCommand(info *platform.ExtractedInfo, strategy model.FormatStrategy, dir string, onProgress ProgressFunc) (*ytdlp.Command, []string, error) {
	id := info.MediaID()
	cmd := y.command().
		Format(strategy.Selector).
		Output(filepath.Join(dir, OutputTemplate)).
		MergeOutputFormat(MergeOutputFormat).
		Retries(Retries).
		FragmentRetries(FragmentRetries).
		SkipUnavailableFragments().
		ConcurrentFragments(ConcurrentFragments).
		ForceOverwrites()

	if strategy.Downloader == model.DownloaderExternalFFmpeg {
		cmd.Downloader(ExternalDownloader).DownloaderArgs(ExternalArgs)
	}

	if onProgress != nil {
		cmd.ProgressFunc(ProgressInterval, func(update ytdlp.ProgressUpdate) {
			if update.TotalBytes <= 0 {
				return
			}
			percent := float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100
			onProgress(percent, update.ETA())
		})
	}

	var args []string
	if info.Downloadable() {
		path, err := writeInfoJSON(info, id, dir)
		if err != nil {
			return nil, nil, err
		}
		cmd.LoadInfoJSON(path)
	} else {
		args = append(args, info.Target())
	}

	return cmd, args, nil
}

// writeInfoJSON stores the document outside the download directory listing
func writeInfoJSON(info *platform.ExtractedInfo, id, dir string) (string, error) {
	data, err := info.MarshalInfoJSON(id)
	if err != nil {
		return "", err
	}

	metaDir := filepath.Join(dir, MetaDirName)
	if err := platform.CreateDirectoryIfNotExists(metaDir); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", metaDir, err)
	}

	path := filepath.Join(metaDir, id+".info.json")
	if err := os.WriteFile(path, data, platform.DefaultFilePermissions); err != nil {
		return "", fmt.Errorf("failed to write info document: %w", err)
	}
	return path, nil
}

// diagnostic folds the tail of yt-dlp's stderr into the error text, which is
// what the fragment failure heuristic inspects.
func diagnostic(res *ytdlp.Result, err error) string {
	msg := err.Error()
	if res == nil {
		return msg
	}
	lines := strings.Split(strings.TrimSpace(res.Stderr), "\n")
	if len(lines) > diagnosticLines {
		lines = lines[len(lines)-diagnosticLines:]
	}
	if tail := strings.TrimSpace(strings.Join(lines, "\n")); tail != "" {
		msg += ": " + tail
	}
	return msg
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/ytget/youcube/internal/config"
	"github.com/ytget/youcube/internal/convert"
	"github.com/ytget/youcube/internal/download"
	"github.com/ytget/youcube/internal/lock"
	"github.com/ytget/youcube/internal/logx"
	"github.com/ytget/youcube/internal/model"
	"github.com/ytget/youcube/internal/notify"
	"github.com/ytget/youcube/internal/pipeline"
	"github.com/ytget/youcube/internal/platform"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		url        = flag.String("url", "", "media URL, playlist URL or search term")
		width      = flag.Int("width", 0, "target video width (requires -height)")
		height     = flag.Int("height", 0, "target video height (requires -width)")
		fps        = flag.Int("fps", 0, "downsample video to this frame rate")
		configPath = flag.String("config", "", "optional YAML config file")
		related    = flag.String("related", "", "comma-separated media URLs or ids queued after this one")
		quiet      = flag.Bool("quiet", false, "do not print progress events")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "youcube: %v\n", err)
		return 1
	}
	logger := logx.Setup(cfg.Log, os.Stderr)

	req := model.MediaRequest{URL: *url}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			req.Width = width
		case "height":
			req.Height = height
		case "fps":
			req.FPS = fps
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logx.WithContext(ctx, logger)

	if err := platform.CreateDirectoryIfNotExists(cfg.DataDir); err != nil {
		logger.Error().Err(err).Str("dir", cfg.DataDir).Msg("Failed to create data directory")
		return 1
	}
	if n, err := platform.RemoveStalePartials(cfg.DataDir, cfg.StalePartialAge()); err != nil {
		logger.Warn().Err(err).Msg("Failed to remove stale partial artifacts")
	} else if n > 0 {
		logger.Info().Int("removed", n).Msg("Removed stale partial artifacts")
	}

	locker, closeLocker := lock.New(ctx, cfg, logger)
	defer func() {
		if err := closeLocker(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close lock backend")
		}
	}()

	var opts []download.Option
	if *related != "" {
		opts = append(opts, download.WithRewriter(relatedRewriter(*related)))
	}
	driver := download.NewDriver(download.NewYtDlp(cfg), opts...)
	engine := convert.NewEngine(cfg, &convert.ExecRunner{Timeout: cfg.ProcessTimeout})
	orch := pipeline.New(cfg, driver, engine, locker, logger)

	logConfig(logger, cfg)
	var events notify.Sender = notify.NewJSONLines(os.Stdout)
	if *quiet {
		events = notify.Discard
	}
	sender := notify.Multi(events, notify.Func(func(e model.ProgressEvent) error {
		logger.Trace().Str("kind", string(e.Kind)).Str("message", e.Message).Msg("Event")
		return nil
	}))

	res, err := orch.Run(ctx, req, sender)
	if err != nil {
		logger.Error().Err(err).Msg("Request failed")
		return 1
	}
	logger.Info().Str("state", res.State.String()).Strs("files", res.Files).Msg("Done")
	return 0
}

// relatedRewriter keeps the request URL and lists the related entries as its
// playlist siblings.
func relatedRewriter(list string) download.RewriterFunc {
	var related []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			related = append(related, item)
		}
	}
	return func(_ context.Context, url string) ([]string, error) {
		return append([]string{url}, related...), nil
	}
}

func logConfig(logger zerolog.Logger, cfg *config.Config) {
	logger.Debug().
		Str("data_dir", cfg.DataDir).
		Str("ffmpeg", cfg.FFmpegPath).
		Str("sanjuuni", cfg.SanjuuniPath).
		Str("yt-dlp", cfg.YtDlpPath).
		Int("chunk_seconds", cfg.ChunkSeconds).
		Int("workers", cfg.Workers).
		Dur("process_timeout", cfg.ProcessTimeout).
		Bool("redis", cfg.RedisAddr != "").
		Msg("Configuration loaded")
}

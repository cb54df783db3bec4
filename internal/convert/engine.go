package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ytget/youcube/internal/config"
	"github.com/ytget/youcube/internal/logx"
	"github.com/ytget/youcube/internal/model"
	"github.com/ytget/youcube/internal/notify"
	"github.com/ytget/youcube/internal/platform"
)

// Tool labels used in logs and exit errors
const (
	ToolFFmpeg   = "ffmpeg"
	ToolSanjuuni = "sanjuuni"
)

// FFmpeg constants
const (
	AudioFormat     = "dfpwm"
	AudioSampleRate = "48000"
	AudioChannels   = "1"

	VideoCodec  = "libx264"
	VideoPreset = "ultrafast"
	VideoCRF    = "32"

	PreparedSuffix = ".prepared.mp4"
)

// Sanjuuni constants
const (
	RawFlag           = "--raw"
	DisableOpenCLFlag = "--disable-opencl"
	ChunkPattern      = "%s.chunk%03d" + model.VideoExtension
)

// Engine runs the conversion stages for one process configuration
type Engine struct {
	runner        Runner
	ffmpeg        string
	sanjuuni      string
	disableOpenCL bool
	dataDir       string
	workers       int
	statusRate    rate.Limit
}

// NewEngine creates an engine from the process configuration
func NewEngine(cfg *config.Config, runner Runner) *Engine {
	return &Engine{
		runner:        runner,
		ffmpeg:        cfg.FFmpegPath,
		sanjuuni:      cfg.SanjuuniPath,
		disableOpenCL: cfg.DisableOpenCL,
		dataDir:       cfg.DataDir,
		workers:       max(config.MinWorkers, cfg.Workers),
		statusRate:    rate.Limit(max(1, cfg.StatusLinesPerSecond)),
	}
}

// AudioPath returns the final audio artifact path for id
func (e *Engine) AudioPath(id string) string {
	return filepath.Join(e.dataDir, model.AudioName(id))
}

// VideoPath returns the final video artifact path for id and size
func (e *Engine) VideoPath(id string, width, height int) string {
	return filepath.Join(e.dataDir, model.VideoName(id, width, height))
}

// ConvertAudio transcodes src into the dfpwm artifact for id. Failure sends
// one error event and never affects the video role.
func (e *Engine) ConvertAudio(ctx context.Context, src, id string, sender notify.Sender) error {
	log := logx.FromCtx(ctx).With().Str(logx.FieldRole, model.RoleAudio.String()).Logger()
	_ = sender.Send(model.Status(model.MsgConvertingAudio))

	final := e.AudioPath(id)
	partial := platform.PartialPath(final)
	err := e.runner.Run(ctx, Command{Tool: ToolFFmpeg, Path: e.ffmpeg, Args: BuildAudioArgs(src, partial)}, nil)
	if err == nil {
		err = platform.CommitArtifact(partial, final)
	}
	if err != nil {
		_ = os.Remove(partial)
		log.Warn().Err(err).Str("source", src).Msg("Audio conversion failed")
		_ = sender.Send(model.Error(model.MsgAudioConvertFailed))
		return fmt.Errorf("%w: audio: %w", model.ErrConversion, err)
	}

	log.Info().Str("artifact", filepath.Base(final)).Msg("Audio converted")
	return nil
}

// PrepareVideo strips non-video streams and optionally resamples and
// segments src. It returns src unchanged when nothing is requested or the
// transcoder fails.
func (e *Engine) PrepareVideo(ctx context.Context, src, id string, fps, chunkSeconds int, sender notify.Sender) []string {
	if fps <= 0 && chunkSeconds <= 0 {
		return []string{src}
	}
	log := logx.FromCtx(ctx).With().Str(logx.FieldRole, model.RoleVideo.String()).Str(logx.FieldStage, "prepare").Logger()

	var parts []string
	if fps > 0 {
		parts = append(parts, fmt.Sprintf("%d fps", fps))
	}
	if chunkSeconds > 0 {
		parts = append(parts, fmt.Sprintf("%ds chunks", chunkSeconds))
	}
	_ = sender.Send(model.Statusf("Preparing video (%s) ...", strings.Join(parts, ", ")))

	dir := filepath.Dir(src)
	out := filepath.Join(dir, id+PreparedSuffix)
	if chunkSeconds > 0 {
		out = platform.SegmentPattern(dir, id)
	}

	if err := e.runner.Run(ctx, Command{Tool: ToolFFmpeg, Path: e.ffmpeg, Args: BuildPrepareArgs(src, out, fps, chunkSeconds)}, nil); err != nil {
		log.Warn().Err(err).Msg("Video preparation failed, using original source")
		return []string{src}
	}

	if chunkSeconds <= 0 {
		return []string{out}
	}

	segments, err := platform.ListSegments(dir, id)
	if err != nil || len(segments) == 0 {
		log.Warn().Err(err).Msg("No segments produced, using original source")
		return []string{src}
	}
	log.Debug().Int("segments", len(segments)).Msg("Video segmented")
	return segments
}

// ConvertVideo encodes sources into the 32vid artifact for id at the given
// size. A single unchunked source is encoded directly; otherwise every source
// is encoded concurrently into workspace and the chunks are merged in order.
func (e *Engine) ConvertVideo(ctx context.Context, sources []string, chunked bool, id string, width, height int, workspace string, sender notify.Sender) error {
	log := logx.FromCtx(ctx).With().Str(logx.FieldRole, model.RoleVideo.String()).Logger()
	final := e.VideoPath(id, width, height)

	if !chunked && len(sources) == 1 {
		_ = sender.Send(model.Status(model.MsgConvertingVideo))

		limiter := rate.NewLimiter(e.statusRate, 1)
		forward := func(line string) {
			if limiter.Allow() {
				_ = sender.Send(model.Status(line))
			}
		}

		partial := platform.PartialPath(final)
		err := e.runner.Run(ctx, e.sanjuuniCommand(sources[0], partial, width, height), forward)
		if err == nil {
			err = platform.CommitArtifact(partial, final)
		}
		if err != nil {
			_ = os.Remove(partial)
			log.Warn().Err(err).Msg("Video conversion failed")
			_ = sender.Send(model.Error(model.MsgVideoConvertFailed))
			return fmt.Errorf("%w: video: %w", model.ErrConversion, err)
		}
		log.Info().Str("artifact", filepath.Base(final)).Msg("Video converted")
		return nil
	}

	chunks, err := e.convertChunks(ctx, sources, id, width, height, workspace, sender)
	if err == nil {
		_ = sender.Send(model.Status(model.MsgMergingChunks))
		err = MergeChunkFiles(chunks, final)
	}
	if err != nil {
		log.Warn().Err(err).Int("chunks", len(sources)).Msg("Chunked video conversion failed")
		_ = sender.Send(model.Error(model.MsgChunkedFailed))
		return fmt.Errorf("%w: video: %w", model.ErrConversion, err)
	}

	log.Info().Str("artifact", filepath.Base(final)).Int("chunks", len(chunks)).Msg("Video converted")
	return nil
}

// convertChunks encodes every source on a bounded pool. The first failure
// cancels the chunks still running.
func (e *Engine) convertChunks(ctx context.Context, sources []string, id string, width, height int, workspace string, sender notify.Sender) ([]string, error) {
	total := len(sources)
	outputs := make([]string, total)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, src := range sources {
		index := i + 1
		outputs[i] = filepath.Join(workspace, fmt.Sprintf(ChunkPattern, id, index))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_ = sender.Send(model.Statusf("Converting video chunk %d/%d ...", index, total))
			if err := e.runner.Run(gctx, e.sanjuuniCommand(src, outputs[i], width, height), nil); err != nil {
				return fmt.Errorf("chunk %d/%d: %w", index, total, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

func (e *Engine) sanjuuniCommand(src, out string, width, height int) Command {
	return Command{Tool: ToolSanjuuni, Path: e.sanjuuni, Args: BuildSanjuuniArgs(src, out, width, height, e.disableOpenCL)}
}

// BuildAudioArgs builds the ffmpeg arguments for dfpwm conversion
func BuildAudioArgs(src, out string) []string {
	return []string{
		"-nostdin",
		"-y",
		"-i", src,
		"-f", AudioFormat,
		"-ar", AudioSampleRate,
		"-ac", AudioChannels,
		out,
	}
}

// BuildPrepareArgs builds the ffmpeg arguments for video preparation. When
// chunkSeconds is positive out is a segment pattern and a keyframe is forced
// at every segment boundary.
func BuildPrepareArgs(src, out string, fps, chunkSeconds int) []string {
	args := []string{"-nostdin", "-y", "-i", src}
	if fps > 0 {
		args = append(args, "-vf", "fps="+strconv.Itoa(fps))
	}
	args = append(args,
		"-an", "-sn", "-dn",
		"-c:v", VideoCodec,
		"-preset", VideoPreset,
		"-crf", VideoCRF,
	)
	if chunkSeconds > 0 {
		s := strconv.Itoa(chunkSeconds)
		args = append(args,
			"-force_key_frames", "expr:gte(t,n_forced*"+s+")",
			"-f", "segment",
			"-segment_time", s,
			"-reset_timestamps", "1",
		)
	}
	return append(args, out)
}

// BuildSanjuuniArgs builds the frame encoder arguments
func BuildSanjuuniArgs(src, out string, width, height int, disableOpenCL bool) []string {
	args := []string{
		"--width=" + strconv.Itoa(width),
		"--height=" + strconv.Itoa(height),
		"-i", src,
		RawFlag,
		"-o", out,
	}
	if disableOpenCL {
		args = append(args, DisableOpenCLFlag)
	}
	return args
}

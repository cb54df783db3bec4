package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ytget/youcube/internal/config"
	"github.com/ytget/youcube/internal/convert"
	"github.com/ytget/youcube/internal/download"
	"github.com/ytget/youcube/internal/lock"
	"github.com/ytget/youcube/internal/logx"
	"github.com/ytget/youcube/internal/model"
	"github.com/ytget/youcube/internal/notify"
	"github.com/ytget/youcube/internal/platform"
)

// WorkspacePrefix names temporary workspaces
const WorkspacePrefix = "youcube-"

// Orchestrator runs media requests
type Orchestrator struct {
	cfg    *config.Config
	driver *download.Driver
	engine *convert.Engine
	locker lock.Locker
	logger zerolog.Logger
}

// New creates an orchestrator
func New(cfg *config.Config, driver *download.Driver, engine *convert.Engine, locker lock.Locker, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{cfg: cfg, driver: driver, engine: engine, locker: locker, logger: logger}
}

// run carries the mutable state of one request
type run struct {
	log    zerolog.Logger
	state  model.PipelineState
	mu     sync.Mutex
	failed []model.Role
}

func (r *run) transition(next model.PipelineState) {
	if r.state.IsFinished() {
		r.log.Warn().Str("from", r.state.String()).Str("to", next.String()).Msg("Ignored transition out of terminal state")
		return
	}
	r.log.Debug().Str("from", r.state.String()).Str("to", next.String()).Msg("State changed")
	r.state = next
}

func (r *run) fail(role model.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, role)
}

// Run processes req, reporting progress through sender. Fatal failures
// (invalid request, resolution, live stream, acquisition) send one error
// event and return an error. Role failures still produce a result whose State
// is model.StatePartiallyFailed.
func (o *Orchestrator) Run(ctx context.Context, req model.MediaRequest, sender notify.Sender) (*model.MediaResult, error) {
	rid, err := uuid.NewV7()
	if err != nil {
		rid = uuid.New()
	}
	r := &run{
		log:   o.logger.With().Str(logx.FieldRequestID, rid.String()).Logger(),
		state: model.StateIdle,
	}
	ctx = logx.WithContext(ctx, r.log)

	if err := req.Validate(); err != nil {
		r.log.Warn().Err(err).Msg("Rejected request")
		r.transition(model.StateFailed)
		_ = sender.Send(model.Error(model.MsgInvalidRequest))
		return nil, err
	}

	r.transition(model.StateResolvingMetadata)
	_ = sender.Send(model.Status(model.MsgGettingInfo))
	media, info, err := o.driver.Resolve(ctx, req)
	if err != nil {
		r.transition(model.StateFailed)
		if errors.Is(err, model.ErrLiveStream) {
			r.log.Info().Err(err).Msg("Live stream rejected")
			_ = sender.Send(model.Error(model.MsgLiveUnsupported))
		} else {
			r.log.Warn().Err(err).Str("url", req.URL).Msg("Resolution failed")
			_ = sender.Send(model.Error(model.MsgResolutionFailed))
		}
		return nil, err
	}

	r.log = r.log.With().Str(logx.FieldMediaID, media.ID).Logger()
	ctx = logx.WithContext(ctx, r.log)

	wantsVideo := req.WantsVideo()
	width, height := req.Dimensions(o.cfg.MaxWidth, o.cfg.MaxHeight)
	audioPath := o.engine.AudioPath(media.ID)
	videoPath := o.engine.VideoPath(media.ID, width, height)

	if err := platform.CreateDirectoryIfNotExists(o.cfg.DataDir); err != nil {
		r.transition(model.StateFailed)
		_ = sender.Send(model.Error(model.MsgDownloadFailed))
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	keys := []string{model.AudioName(media.ID)}
	if wantsVideo {
		keys = append(keys, model.VideoName(media.ID, width, height))
	}
	unlock, err := lock.LockAll(ctx, o.locker, keys...)
	if err != nil {
		r.transition(model.StateFailed)
		r.log.Error().Err(err).Strs("keys", keys).Msg("Failed to lock artifacts")
		_ = sender.Send(model.Error(model.MsgDownloadFailed))
		return nil, fmt.Errorf("failed to lock artifacts of %s: %w", media.ID, err)
	}
	defer unlock()

	audioCached := platform.ArtifactExists(audioPath)
	videoCached := !wantsVideo || platform.ArtifactExists(videoPath)
	r.log.Debug().Bool("audio_cached", audioCached).Bool("video_cached", videoCached).Msg("Checked cache")

	if !audioCached || !videoCached {
		if err := o.convert(ctx, r, req, media, info, width, height, audioCached, videoCached, sender); err != nil {
			return nil, err
		}
	}

	result := model.NewMediaResult(media)
	if platform.ArtifactExists(audioPath) {
		result.Files = append(result.Files, model.AudioName(media.ID))
	}
	if wantsVideo && platform.ArtifactExists(videoPath) {
		result.Files = append(result.Files, model.VideoName(media.ID, width, height))
	}
	result.FailedRoles = r.failed

	if len(r.failed) == 0 {
		r.transition(model.StateCompleted)
	} else {
		r.transition(model.StatePartiallyFailed)
	}
	result.State = r.state

	r.log.Info().Str("state", r.state.String()).Strs("files", result.Files).Msg("Request finished")
	_ = sender.Send(model.Media(result))
	return result, nil
}

// convert acquires the sources into a fresh workspace and runs the roles
// that are not cached. The workspace is removed only after both roles joined.
func (o *Orchestrator) convert(ctx context.Context, r *run, req model.MediaRequest, media *model.ResolvedMedia, info *platform.ExtractedInfo,
	width, height int, audioCached, videoCached bool, sender notify.Sender) error {
	workspace, err := os.MkdirTemp("", WorkspacePrefix)
	if err != nil {
		r.transition(model.StateFailed)
		_ = sender.Send(model.Error(model.MsgDownloadFailed))
		return fmt.Errorf("failed to create workspace: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workspace); err != nil {
			r.log.Warn().Err(err).Str("workspace", workspace).Msg("Failed to remove workspace")
		}
	}()

	r.transition(model.StateAcquiringSource)
	if err := o.driver.Acquire(ctx, info, req.WantsVideo(), workspace, sender); err != nil {
		r.transition(model.StateFailed)
		r.log.Error().Err(err).Msg("Acquisition failed")
		return err
	}

	r.transition(model.StateConverting)
	var wg sync.WaitGroup

	if !audioCached {
		src, ok := o.selectSource(r, workspace, media.ID, model.RoleAudio)
		if !ok {
			r.fail(model.RoleAudio)
			_ = sender.Send(model.Error(model.MsgAudioSourceMissing))
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := o.engine.ConvertAudio(ctx, src, media.ID, sender); err != nil {
					r.fail(model.RoleAudio)
				}
			}()
		}
	}

	if !videoCached {
		src, ok := o.selectSource(r, workspace, media.ID, model.RoleVideo)
		if !ok {
			r.fail(model.RoleVideo)
			_ = sender.Send(model.Error(model.MsgVideoSourceMissing))
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				chunkSeconds := o.cfg.ChunkSeconds
				sources := o.engine.PrepareVideo(ctx, src, media.ID, req.TargetFPS(), chunkSeconds, sender)
				if err := o.engine.ConvertVideo(ctx, sources, chunkSeconds > 0, media.ID, width, height, workspace, sender); err != nil {
					r.fail(model.RoleVideo)
				}
			}()
		}
	}

	wg.Wait()
	r.transition(model.StateJoined)
	return nil
}

func (o *Orchestrator) selectSource(r *run, workspace, id string, role model.Role) (string, bool) {
	src, ok, err := platform.SelectSource(workspace, id, role)
	if err != nil {
		r.log.Warn().Err(err).Str(logx.FieldRole, role.String()).Msg("Failed to list workspace")
		return "", false
	}
	if !ok {
		r.log.Warn().Str(logx.FieldRole, role.String()).Msg("Source file not found")
		return "", false
	}
	r.log.Debug().Str(logx.FieldRole, role.String()).Str("source", src).Msg("Selected source")
	return src, true
}

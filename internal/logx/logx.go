package logx

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls logger construction
type Config struct {
	Service        string `yaml:"service"`
	Level          string `yaml:"level"`            // debug|info|warn|error
	Format         string `yaml:"format"`           // json|console
	FilePath       string `yaml:"file"`             // "" = disabled
	FileMaxSizeMB  int    `yaml:"file_max_size_mb"` // rotate at ~MB
	FileMaxBackups int    `yaml:"file_max_backups"`
	FileMaxAgeDays int    `yaml:"file_max_age_days"`
	FileCompress   bool   `yaml:"file_compress"`
}

// Field names shared by every component
const (
	FieldRequestID = "rid"
	FieldMediaID   = "media"
	FieldStage     = "stage"
	FieldRole      = "role"
	FieldTool      = "tool"
)

// Setup configures the zerolog global logger and returns it.
// Console output goes to out (stderr when nil) so stdout stays free for events.
func Setup(c Config, out io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(c.Level)
	if err != nil || c.Level == "" {
		lvl = zerolog.InfoLevel
	}
	if out == nil {
		out = os.Stderr
	}

	var writers []io.Writer
	if c.Format == "console" {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		})
	} else {
		writers = append(writers, out)
	}
	if c.FilePath != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   c.FilePath,
			MaxSize:    c.FileMaxSizeMB,
			MaxBackups: c.FileMaxBackups,
			MaxAge:     c.FileMaxAgeDays,
			Compress:   c.FileCompress,
		})
	}

	logger := zerolog.New(io.MultiWriter(writers...)).Level(lvl).With().
		Timestamp().
		Str("svc", c.Service).
		Logger()

	log.Logger = logger
	zerolog.DefaultContextLogger = &log.Logger
	return logger
}

// WithContext attaches l to ctx. zerolog does not store a disabled logger,
// so one is replaced by a silent equivalent to keep FromCtx from falling
// back to the global logger.
func WithContext(ctx context.Context, l zerolog.Logger) context.Context {
	if l.GetLevel() == zerolog.Disabled {
		l = l.Output(io.Discard).Level(zerolog.PanicLevel)
	}
	return l.WithContext(ctx)
}

// FromCtx returns the request logger carried by ctx, or the global logger.
func FromCtx(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l := zerolog.Ctx(ctx); l != zerolog.Ctx(context.Background()) {
			return l
		}
	}
	return &log.Logger
}

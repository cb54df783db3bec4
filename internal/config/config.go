package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ytget/youcube/internal/logx"
)

// Default values
const (
	DefaultFFmpegPath       = "ffmpeg"
	DefaultSanjuuniPath     = "sanjuuni"
	DefaultYtDlpPath        = "yt-dlp"
	DefaultDataDir          = "data"
	DefaultProcessTimeout   = 30 * time.Minute
	DefaultMaxWidth         = 328
	DefaultMaxHeight        = 171
	DefaultStatusLinesPerS  = 4
	DefaultLockTTL          = time.Hour
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "console"
	DefaultLogFileMaxSizeMB = 50
	DefaultLogFileBackups   = 3
	DefaultLogFileMaxAge    = 7

	MinWorkers = 1
	MaxWorkers = 64

	MinLockTTL        = time.Second
	StalePartialSlack = time.Minute
)

// Config is the process-wide configuration. It is built once by Load and
// never mutated afterwards.
type Config struct {
	DataDir string `yaml:"data_dir"`

	FFmpegPath    string `yaml:"ffmpeg_path"`
	SanjuuniPath  string `yaml:"sanjuuni_path"`
	YtDlpPath     string `yaml:"ytdlp_path"`
	DisableOpenCL bool   `yaml:"disable_opencl"`

	CookiesFile string `yaml:"ytdlp_cookies"`
	Proxy       string `yaml:"ytdlp_proxy"`

	ChunkSeconds   int           `yaml:"chunk_seconds"`
	Workers        int           `yaml:"workers"`
	ProcessTimeout time.Duration `yaml:"process_timeout"`

	MaxWidth  int `yaml:"max_width"`
	MaxHeight int `yaml:"max_height"`

	StatusLinesPerSecond int `yaml:"status_lines_per_second"`

	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	LockTTL       time.Duration `yaml:"lock_ttl"`

	Log logx.Config `yaml:"log"`
}

// DefaultWorkers returns the chunk worker pool size: available parallelism
// minus one unit of headroom, never below one.
func DefaultWorkers() int {
	return max(MinWorkers, runtime.NumCPU()-1)
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	return Config{
		DataDir:              DefaultDataDir,
		FFmpegPath:           DefaultFFmpegPath,
		SanjuuniPath:         DefaultSanjuuniPath,
		YtDlpPath:            DefaultYtDlpPath,
		Workers:              DefaultWorkers(),
		ProcessTimeout:       DefaultProcessTimeout,
		MaxWidth:             DefaultMaxWidth,
		MaxHeight:            DefaultMaxHeight,
		StatusLinesPerSecond: DefaultStatusLinesPerS,
		LockTTL:              DefaultLockTTL,
		Log: logx.Config{
			Service:        "youcube",
			Level:          DefaultLogLevel,
			Format:         DefaultLogFormat,
			FileMaxSizeMB:  DefaultLogFileMaxSizeMB,
			FileMaxBackups: DefaultLogFileBackups,
			FileMaxAgeDays: DefaultLogFileMaxAge,
			FileCompress:   true,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// any), then .env, then the process environment.
func Load(path string) (*Config, error) {
	c := Default()

	if path != "" {
		if err := loadFile(path, &c); err != nil {
			return nil, err
		}
	}

	// A missing .env is not an error; explicit environment always wins.
	_ = godotenv.Load()
	applyEnv(&c, os.LookupEnv)

	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func loadFile(path string, c *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(c); err != nil {
		return fmt.Errorf("failed to decode YAML config file %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(c *Config, lookup lookupFunc) {
	str := func(k string, dst *string) {
		if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(k string, dst *int) {
		if v, ok := lookup(k); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = n
			}
		}
	}
	flag := func(k string, dst *bool) {
		if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
			v = strings.ToLower(strings.TrimSpace(v))
			*dst = v == "1" || v == "true" || v == "yes"
		}
	}
	dur := func(k string, dst *time.Duration) {
		if v, ok := lookup(k); ok {
			if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
				*dst = d
			}
		}
	}

	str("DATA_FOLDER", &c.DataDir)
	str("FFMPEG_PATH", &c.FFmpegPath)
	str("SANJUUNI_PATH", &c.SanjuuniPath)
	str("YTDLP_PATH", &c.YtDlpPath)
	flag("DISABLE_OPENCL", &c.DisableOpenCL)
	str("YTDLP_COOKIES", &c.CookiesFile)
	str("YTDLP_PROXY", &c.Proxy)
	num("SANJUUNI_CHUNK_SECONDS", &c.ChunkSeconds)
	num("SANJUUNI_WORKERS", &c.Workers)
	dur("PROCESS_TIMEOUT", &c.ProcessTimeout)
	num("MAX_WIDTH", &c.MaxWidth)
	num("MAX_HEIGHT", &c.MaxHeight)
	num("STATUS_LINES_PER_SECOND", &c.StatusLinesPerSecond)
	str("REDIS_ADDR", &c.RedisAddr)
	str("REDIS_PASSWORD", &c.RedisPassword)
	num("REDIS_DB", &c.RedisDB)
	dur("LOCK_TTL", &c.LockTTL)

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("LOG_FILE", &c.Log.FilePath)
	num("LOG_FILE_MAX_SIZE", &c.Log.FileMaxSizeMB)
	num("LOG_FILE_MAX_BACKUPS", &c.Log.FileMaxBackups)
	num("LOG_FILE_MAX_AGE", &c.Log.FileMaxAgeDays)
	flag("LOG_FILE_COMPRESS", &c.Log.FileCompress)
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
}

func (c *Config) validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory must not be empty")
	}
	abs, err := filepath.Abs(c.DataDir)
	if err != nil {
		return fmt.Errorf("failed to resolve data directory %s: %w", c.DataDir, err)
	}
	c.DataDir = abs

	if c.ChunkSeconds < 0 {
		return fmt.Errorf("chunk seconds must not be negative, got %d", c.ChunkSeconds)
	}
	if c.MaxWidth <= 0 || c.MaxHeight <= 0 {
		return fmt.Errorf("max dimensions must be positive, got %dx%d", c.MaxWidth, c.MaxHeight)
	}
	if c.Workers < MinWorkers {
		c.Workers = MinWorkers
	}
	if c.Workers > MaxWorkers {
		c.Workers = MaxWorkers
	}
	if c.ProcessTimeout <= 0 {
		c.ProcessTimeout = DefaultProcessTimeout
	}
	if c.StatusLinesPerSecond <= 0 {
		c.StatusLinesPerSecond = DefaultStatusLinesPerS
	}
	if c.LockTTL <= 0 {
		c.LockTTL = DefaultLockTTL
	}
	if c.LockTTL < MinLockTTL {
		c.LockTTL = MinLockTTL
	}
	return nil
}

// StalePartialAge is the age after which a partial artifact can no longer
// belong to a live process: every writer is killed at ProcessTimeout.
func (c *Config) StalePartialAge() time.Duration {
	return c.ProcessTimeout + StalePartialSlack
}

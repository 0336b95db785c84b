package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const commitLogFileName = "commit.log"

// Config is the server configuration. Zero values are replaced by the defaults
// from Default.
type Config struct {
	HTTPAddr  string    `yaml:"http_addr"`
	DataDir   string    `yaml:"data_dir"`
	Log       Log       `yaml:"log"`
	CommitLog CommitLog `yaml:"commit_log"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type CommitLog struct {
	FlushInterval  time.Duration `yaml:"flush_interval"`
	EnqueueTimeout time.Duration `yaml:"enqueue_timeout"`
	MaxEnqueuing   int           `yaml:"max_enqueuing"`
	BufferBytes    int           `yaml:"buffer_bytes"`
}

func Default() Config {
	return Config{
		HTTPAddr: "127.0.0.1:8080",
		DataDir:  "data",
		Log: Log{
			Level:  "info",
			Format: "json",
		},
		CommitLog: CommitLog{
			FlushInterval:  time.Second,
			EnqueueTimeout: 5 * time.Second,
			MaxEnqueuing:   1024,
			BufferBytes:    4 * 1024 * 1024,
		},
	}
}

// Load reads the YAML file at path, when path is not empty, on top of the
// defaults and then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: open %s: %w", path, err)
		}
		defer file.Close()

		decoder := yaml.NewDecoder(file)
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.HTTPAddr = envOrDefault("SEQ_HTTP_ADDR", cfg.HTTPAddr)
	cfg.DataDir = envOrDefault("SEQ_DATA_DIR", cfg.DataDir)
	cfg.Log.Level = envOrDefault("SEQ_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = envOrDefault("SEQ_LOG_FORMAT", cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: http_addr must not be empty")
	}
	if c.DataDir == "" {
		return errors.New("config: data_dir must not be empty")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	if c.CommitLog.FlushInterval < 0 || c.CommitLog.EnqueueTimeout < 0 {
		return errors.New("config: commit log durations must not be negative")
	}
	return nil
}

// CommitLogPath is where the server keeps its commit log.
func (c Config) CommitLogPath() string {
	return filepath.Join(c.DataDir, commitLogFileName)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

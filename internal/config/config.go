package config

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"spritecomp/internal/assetcache"
	"spritecomp/internal/gpu"
)

// Config holds application configuration
type Config struct {
	Window  Window  `json:"window" toml:"window" yaml:"window"`
	GPU     GPU     `json:"gpu" toml:"gpu" yaml:"gpu"`
	Assets  Assets  `json:"assets" toml:"assets" yaml:"assets"`
	Logging Logging `json:"logging" toml:"logging" yaml:"logging"`
}

// Window contains the initial window setup
type Window struct {
	Width     int    `json:"width" toml:"width" yaml:"width"`
	Height    int    `json:"height" toml:"height" yaml:"height"`
	Title     string `json:"title" toml:"title" yaml:"title"`
	Resizable bool   `json:"resizable" toml:"resizable" yaml:"resizable"`
}

// GPU selects the graphics backend
type GPU struct {
	// Backend is vulkan, metal, dx12 or gl. Empty lets the driver pick.
	Backend string `json:"backend" toml:"backend" yaml:"backend"`

	// PowerPreference is high-performance, low-power or empty
	PowerPreference string `json:"power_preference" toml:"power_preference" yaml:"power_preference"`

	// PresentMode is fifo, immediate or mailbox
	PresentMode string `json:"present_mode" toml:"present_mode" yaml:"present_mode"`
}

// Assets says where textures come from
type Assets struct {
	// Dirs are stacked into one asset file system; missing ones are skipped
	Dirs []string `json:"dirs" toml:"dirs" yaml:"dirs"`

	// TexturePath is the texture directory inside the overlay
	TexturePath string `json:"texture_path" toml:"texture_path" yaml:"texture_path"`

	// CacheDir stores textures downloaded over http(s)
	CacheDir string `json:"cache_dir" toml:"cache_dir" yaml:"cache_dir"`

	// Prefetch lists texture URLs downloaded in the background at startup
	Prefetch []string `json:"prefetch,omitempty" toml:"prefetch,omitempty" yaml:"prefetch,omitempty"`
}

// Logging configures the application logger
type Logging struct {
	// Level is debug, info, warn or error
	Level string `json:"level" toml:"level" yaml:"level"`
}

var presentModes = map[string]bool{"fifo": true, "immediate": true, "mailbox": true}

// searchPaths are tried in order by Get.
var searchPaths = []string{"config.json", "config.toml", "config.yaml", "config.yml"}

var (
	instance *Config
	once     sync.Once
	mu       sync.RWMutex
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Window: Window{
			Width:     1280,
			Height:    720,
			Title:     "Sprite Compositor",
			Resizable: true,
		},
		GPU: GPU{
			PowerPreference: "high-performance",
			PresentMode:     "fifo",
		},
		Assets: Assets{
			Dirs:        []string{"assets"},
			TexturePath: "textures",
			CacheDir:    ".texture_cache",
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// Validate rejects sizes and names the application cannot use
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errors.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if !gpu.ValidBackend(c.GPU.Backend) {
		return errors.Errorf("unknown gpu backend %q", c.GPU.Backend)
	}
	if !gpu.ValidPowerPreference(c.GPU.PowerPreference) {
		return errors.Errorf("unknown power preference %q", c.GPU.PowerPreference)
	}
	if c.GPU.PresentMode != "" && !presentModes[strings.ToLower(c.GPU.PresentMode)] {
		return errors.Errorf("unknown present mode %q", c.GPU.PresentMode)
	}
	for _, u := range c.Assets.Prefetch {
		if !assetcache.IsRemote(u) {
			return errors.Errorf("prefetch entry %q is not an http(s) URL", u)
		}
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses Logging.Level. Empty means info.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if c.Logging.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return slog.LevelInfo, errors.Wrapf(err, "unknown log level %q", c.Logging.Level)
	}
	return level, nil
}

// NewLogger returns a text logger writing to w at the configured level.
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := c.LogLevel()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		if instance != nil {
			return
		}
		instance = DefaultConfig()
		for _, p := range searchPaths {
			data, err := os.ReadFile(p)
			if err != nil {
				continue
			}
			if cfg, err := Parse(p, data); err == nil {
				instance = cfg
			}
			break
		}
	})
	mu.RLock()
	defer mu.RUnlock()
	return instance
}

// Parse decodes data over the defaults, using the format implied by the
// extension of path, and validates the result.
func Parse(path string, data []byte) (*Config, error) {
	cfg := DefaultConfig()

	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return nil, errors.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.WithMessage(err, path)
	}
	return cfg, nil
}

// Load loads configuration from a file
func Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read config")
	}

	cfg, err := Parse(path, data)
	if err != nil {
		return err
	}

	once.Do(func() {})
	mu.Lock()
	defer mu.Unlock()
	instance = cfg
	return nil
}

// Encode serializes cfg in the format implied by the extension of path.
func Encode(path string, cfg *Config) ([]byte, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return json.MarshalIndent(cfg, "", "  ")
	case ".toml":
		return toml.Marshal(cfg)
	case ".yaml", ".yml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, errors.Errorf("unsupported config format %q", ext)
	}
}

// Save saves configuration to a file
func Save(path string) error {
	cfg := Get()

	mu.RLock()
	data, err := Encode(path, cfg)
	mu.RUnlock()
	if err != nil {
		return errors.Wrap(err, "failed to encode config")
	}

	return os.WriteFile(path, data, 0644)
}

// SetWindowSize records the current window size, clamped to at least 1x1
func SetWindowSize(width, height int) {
	Get()

	mu.Lock()
	defer mu.Unlock()

	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	instance.Window.Width = width
	instance.Window.Height = height
}

// WindowSize returns the recorded window size
func WindowSize() (int, int) {
	cfg := Get()

	mu.RLock()
	defer mu.RUnlock()
	return cfg.Window.Width, cfg.Window.Height
}

// Package config loads swipectl configuration. Layers apply in order:
// built-in defaults, the YAML config file, settings stored in the database,
// then environment variables.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/ayusman/swipectl/internal/dispatch"
	"github.com/ayusman/swipectl/internal/gesture"
)

// Source kinds.
const (
	SourceCamera = "camera"
	SourceReplay = "replay"
)

// Dispatch modes.
const (
	DispatchADB    = "adb"
	DispatchPlugin = "plugin"
	DispatchLog    = "log"
)

// MinCooldown is the smallest non-zero cooldown accepted.
const MinCooldown = time.Millisecond

// Config is the full application configuration.
type Config struct {
	Gesture  GestureConfig  `mapstructure:"gesture"`
	Source   SourceConfig   `mapstructure:"source"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Log      LogConfig      `mapstructure:"log"`
	Tray     TrayConfig     `mapstructure:"tray"`
}

// GestureConfig tunes classification and the displayed label.
type GestureConfig struct {
	HorizontalThreshold float64       `mapstructure:"horizontal_threshold" env:"SWIPECTL_HORIZONTAL_THRESHOLD"`
	VerticalThreshold   float64       `mapstructure:"vertical_threshold"   env:"SWIPECTL_VERTICAL_THRESHOLD"`
	Cooldown            time.Duration `mapstructure:"cooldown"             env:"SWIPECTL_COOLDOWN"`
	LabelTTL            time.Duration `mapstructure:"label_ttl"            env:"SWIPECTL_LABEL_TTL"`
}

// SourceConfig selects where wrist samples come from.
type SourceConfig struct {
	Kind       string `mapstructure:"kind"        env:"SWIPECTL_SOURCE"`
	CameraID   int    `mapstructure:"camera_id"   env:"SWIPECTL_CAMERA_ID"`
	FPS        int    `mapstructure:"fps"         env:"SWIPECTL_CAMERA_FPS"`
	Mirror     bool   `mapstructure:"mirror"      env:"SWIPECTL_MIRROR"`
	ReplayPath string `mapstructure:"replay_path" env:"SWIPECTL_REPLAY_PATH"`
	ReplayPace bool   `mapstructure:"replay_pace" env:"SWIPECTL_REPLAY_PACE"`
	// RecordPath, when set, writes every observation to a JSONL trace.
	RecordPath string `mapstructure:"record_path" env:"SWIPECTL_RECORD_PATH"`
	ScriptPath string `mapstructure:"script_path" env:"SWIPECTL_MEDIAPIPE_SCRIPT"`
	PythonPath string `mapstructure:"python_path" env:"SWIPECTL_PYTHON"`
}

// DispatchConfig selects and tunes command delivery.
type DispatchConfig struct {
	Mode        string        `mapstructure:"mode"         env:"SWIPECTL_DISPATCH"`
	ADBPath     string        `mapstructure:"adb_path"     env:"SWIPECTL_ADB_PATH"`
	Serial      string        `mapstructure:"serial"       env:"ANDROID_SERIAL"`
	PluginDir   string        `mapstructure:"plugin_dir"   env:"SWIPECTL_PLUGIN_DIR"`
	Plugin      string        `mapstructure:"plugin"       env:"SWIPECTL_PLUGIN"`
	Timeout     time.Duration `mapstructure:"timeout"      env:"SWIPECTL_DISPATCH_TIMEOUT"`
	MaxAttempts int           `mapstructure:"max_attempts" env:"SWIPECTL_DISPATCH_ATTEMPTS"`
	QueueSize   int           `mapstructure:"queue_size"   env:"SWIPECTL_QUEUE_SIZE"`
}

type ServerConfig struct {
	// Addr is the HTTP listen address; empty disables the server.
	Addr string `mapstructure:"addr" env:"SWIPECTL_ADDR"`
	// StaticDir is served at / when set.
	StaticDir string `mapstructure:"static_dir" env:"SWIPECTL_STATIC_DIR"`
}

type StoreConfig struct {
	Path string `mapstructure:"path" env:"SWIPECTL_DB"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"  env:"SWIPECTL_LOG_LEVEL"`
	Format string `mapstructure:"format" env:"SWIPECTL_LOG_FORMAT"`
}

type TrayConfig struct {
	Enabled bool `mapstructure:"enabled" env:"SWIPECTL_TRAY"`
}

// DataDir returns ~/.swipectl, or .swipectl when the home directory is
// unknown.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".swipectl"
	}
	return filepath.Join(home, ".swipectl")
}

// Default returns the built-in configuration.
func Default() Config {
	dataDir := DataDir()
	g := gesture.DefaultConfig()
	q := dispatch.DefaultQueueConfig()

	return Config{
		Gesture: GestureConfig{
			HorizontalThreshold: g.HorizontalThreshold,
			VerticalThreshold:   g.VerticalThreshold,
			Cooldown:            g.Cooldown,
			LabelTTL:            2 * time.Second,
		},
		Source: SourceConfig{
			Kind:   SourceCamera,
			FPS:    30,
			Mirror: true,
		},
		Dispatch: DispatchConfig{
			Mode:        DispatchADB,
			ADBPath:     "adb",
			PluginDir:   filepath.Join(dataDir, "plugins"),
			Plugin:      "adb-input",
			Timeout:     q.Timeout,
			MaxAttempts: q.MaxAttempts,
			QueueSize:   q.Size,
		},
		Server: ServerConfig{Addr: "127.0.0.1:8080"},
		Store:  StoreConfig{Path: filepath.Join(dataDir, "swipectl.db")},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads the config file at path over the defaults, then applies the
// environment. With an empty path, config.yaml in DataDir is used when it
// exists.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(DataDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	hook := mapstructure.ComposeDecodeHookFunc(
		durationHook,
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(&cfg, viper.DecodeHook(hook)); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := applyCooldownSeconds(v, &cfg.Gesture); err != nil {
		return Config{}, err
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.expandPaths()
	return cfg, nil
}

// WithSettings overlays stored settings, then re-applies the environment
// so variables still win.
func (c Config) WithSettings(stored map[string]string) (Config, error) {
	s, err := ParseSettings(stored)
	if err != nil {
		return c, err
	}
	s.Apply(&c.Gesture)
	if err := applyEnv(&c); err != nil {
		return c, err
	}
	c.expandPaths()
	return c, nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// durationHook decodes durations from strings with units ("1s", "500ms").
// Bare numbers other than 0 are rejected rather than read as nanoseconds.
func durationHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != durationType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q: %w", v, err)
		}
		return d, nil
	case time.Duration:
		return v, nil
	case int:
		if v == 0 {
			return time.Duration(0), nil
		}
	case int64:
		if v == 0 {
			return time.Duration(0), nil
		}
	case float64:
		if v == 0 {
			return time.Duration(0), nil
		}
	}
	return nil, fmt.Errorf("duration %v has no unit; write it as e.g. \"%vs\"", data, data)
}

// cooldownSecondsKey spells the cooldown as float seconds, the same way
// stored settings do.
const cooldownSecondsKey = "gesture.cooldown_seconds"

func applyCooldownSeconds(v *viper.Viper, g *GestureConfig) error {
	if !v.IsSet(cooldownSecondsKey) {
		return nil
	}
	if v.IsSet("gesture.cooldown") {
		return errors.New("gesture.cooldown and gesture.cooldown_seconds are both set")
	}
	secs, err := toSeconds(v.Get(cooldownSecondsKey))
	if err != nil {
		return fmt.Errorf("%s: %w", cooldownSecondsKey, err)
	}
	Settings{CooldownSeconds: &secs}.Apply(g)
	return nil
}

func toSeconds(raw any) (float64, error) {
	var f float64
	switch n := raw.(type) {
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", n)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("invalid number %v", raw)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid number %v", raw)
	}
	return f, nil
}

func applyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) expandPaths() {
	c.Store.Path = expandHome(c.Store.Path)
	c.Dispatch.PluginDir = expandHome(c.Dispatch.PluginDir)
	c.Source.ReplayPath = expandHome(c.Source.ReplayPath)
	c.Source.RecordPath = expandHome(c.Source.RecordPath)
	c.Source.ScriptPath = expandHome(c.Source.ScriptPath)
	c.Server.StaticDir = expandHome(c.Server.StaticDir)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error

	errs = append(errs, c.Gesture.Validate())
	switch c.Source.Kind {
	case SourceCamera:
	case SourceReplay:
		if c.Source.ReplayPath == "" {
			errs = append(errs, errors.New("source.replay_path is required for replay source"))
		}
	default:
		errs = append(errs, fmt.Errorf("source.kind %q must be camera or replay", c.Source.Kind))
	}

	switch c.Dispatch.Mode {
	case DispatchADB, DispatchLog:
	case DispatchPlugin:
		if c.Dispatch.Plugin == "" {
			errs = append(errs, errors.New("dispatch.plugin is required for plugin mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("dispatch.mode %q must be adb, plugin or log", c.Dispatch.Mode))
	}
	if c.Dispatch.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("dispatch.max_attempts must be at least 1, got %d", c.Dispatch.MaxAttempts))
	}
	if c.Dispatch.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("dispatch.queue_size must be at least 1, got %d", c.Dispatch.QueueSize))
	}
	if c.Dispatch.Timeout < 0 {
		errs = append(errs, errors.New("dispatch.timeout must not be negative"))
	}

	return errors.Join(errs...)
}

// Validate checks thresholds and durations.
func (g GestureConfig) Validate() error {
	var errs []error
	if g.HorizontalThreshold <= 0 || g.HorizontalThreshold > 1 {
		errs = append(errs, fmt.Errorf("gesture.horizontal_threshold must be in (0,1], got %v", g.HorizontalThreshold))
	}
	if g.VerticalThreshold <= 0 || g.VerticalThreshold > 1 {
		errs = append(errs, fmt.Errorf("gesture.vertical_threshold must be in (0,1], got %v", g.VerticalThreshold))
	}
	if g.Cooldown < 0 {
		errs = append(errs, fmt.Errorf("gesture.cooldown must not be negative, got %v", g.Cooldown))
	} else if g.Cooldown > 0 && g.Cooldown < MinCooldown {
		errs = append(errs, fmt.Errorf("gesture.cooldown must be 0 or at least %v, got %v", MinCooldown, g.Cooldown))
	}
	if g.LabelTTL < 0 {
		errs = append(errs, fmt.Errorf("gesture.label_ttl must not be negative, got %v", g.LabelTTL))
	}
	return errors.Join(errs...)
}

// Engine returns the classification parameters.
func (g GestureConfig) Engine() gesture.Config {
	return gesture.Config{
		HorizontalThreshold: g.HorizontalThreshold,
		VerticalThreshold:   g.VerticalThreshold,
		Cooldown:            g.Cooldown,
	}
}

// Queue returns the dispatch queue parameters.
func (d DispatchConfig) Queue() dispatch.QueueConfig {
	q := dispatch.DefaultQueueConfig()
	q.Size = d.QueueSize
	q.Timeout = d.Timeout
	q.MaxAttempts = d.MaxAttempts
	return q
}

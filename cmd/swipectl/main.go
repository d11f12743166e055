// Package main starts swipectl: camera hand tracking to device swipes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"github.com/ayusman/swipectl/internal/app"
	"github.com/ayusman/swipectl/internal/capture"
	"github.com/ayusman/swipectl/internal/config"
	"github.com/ayusman/swipectl/internal/detector"
	"github.com/ayusman/swipectl/internal/dispatch"
	"github.com/ayusman/swipectl/internal/display"
	"github.com/ayusman/swipectl/internal/logging"
	"github.com/ayusman/swipectl/internal/plugin"
	"github.com/ayusman/swipectl/internal/server"
	"github.com/ayusman/swipectl/internal/source"
	"github.com/ayusman/swipectl/internal/store"
	"github.com/ayusman/swipectl/internal/tray"
)

// options are the command line flags. They override every config layer.
type options struct {
	configPath string
	replay     string
	record     string
	dryRun     bool
	tray       bool
	paused     bool
}

func parseFlags(fs *flag.FlagSet, args []string) (options, error) {
	var o options
	fs.StringVar(&o.configPath, "config", "", "path to a YAML config file")
	fs.StringVar(&o.replay, "replay", "", "play a JSONL wrist trace instead of the camera")
	fs.StringVar(&o.record, "record", "", "write observed wrist positions to a JSONL trace")
	fs.BoolVar(&o.dryRun, "dry-run", false, "log swipe commands instead of sending them")
	fs.BoolVar(&o.tray, "tray", false, "show the system tray menu")
	fs.BoolVar(&o.paused, "paused", false, "start with detection paused")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return o, nil
}

func (o options) apply(cfg *config.Config) {
	if o.replay != "" {
		cfg.Source.Kind = config.SourceReplay
		cfg.Source.ReplayPath = o.replay
	}
	if o.record != "" {
		cfg.Source.RecordPath = o.record
	}
	if o.dryRun {
		cfg.Dispatch.Mode = config.DispatchLog
	}
	if o.tray {
		cfg.Tray.Enabled = true
	}
}

func main() {
	opts, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse flags: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		slog.Error("swipectl failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// loadConfig layers defaults, file, stored settings, environment and flags.
func loadConfig(opts options, st *store.Store, base config.Config) (config.Config, error) {
	stored, err := st.Settings().All()
	if err != nil {
		return config.Config{}, fmt.Errorf("load stored settings: %w", err)
	}
	cfg, err := base.WithSettings(stored)
	if err != nil {
		return config.Config{}, fmt.Errorf("apply stored settings: %w", err)
	}
	opts.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, opts options) error {
	base, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Level: base.Log.Level, Format: base.Log.Format})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	st, err := store.New(base.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	cfg, err := loadConfig(opts, st, base)
	if err != nil {
		return err
	}
	logger.Info("swipectl starting",
		"source", cfg.Source.Kind,
		"dispatch", cfg.Dispatch.Mode,
		"store", st.Path(),
	)

	plugins := plugin.NewManager(cfg.Dispatch.PluginDir, logger)
	if err := plugins.Discover(); err != nil {
		logger.Warn("plugin discovery failed", "dir", cfg.Dispatch.PluginDir, "error", err)
	}

	dispatcher, err := newDispatcher(cfg.Dispatch, plugins, logger)
	if err != nil {
		return err
	}
	queueCfg := cfg.Dispatch.Queue()
	queueCfg.Logger = logger
	queue := dispatch.NewQueue(dispatcher, queueCfg)

	src, err := openSource(cfg.Source, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	last := display.NewLast(cfg.Gesture.LabelTTL)
	hub := server.NewEventHub(logger)
	last.Subscribe(hub.Broadcast)

	a, err := app.New(app.Config{
		Source:      src,
		Engine:      cfg.Gesture.Engine(),
		Queue:       queue,
		Display:     last,
		StartPaused: opts.paused,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	fail := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
		cancel()
	}

	if cfg.Server.Addr != "" {
		srv := server.New(server.Config{
			Status:    a,
			Settings:  st.Settings(),
			Gesture:   base.Gesture,
			Plugins:   plugins,
			Events:    hub,
			StaticDir: cfg.Server.StaticDir,
			Logger:    logger,
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(ctx, cfg.Server.Addr); err != nil {
				fail(fmt.Errorf("http server: %w", err))
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		if err := a.Run(ctx); err != nil {
			fail(err)
		}
	}()

	if cfg.Tray.Enabled {
		t := tray.New(a.Enabled())
		t.SetStateSource(a.Enabled)
		t.OnToggle(a.SetEnabled)
		t.OnQuit(cancel)
		t.SetLabelSource(last.Label)
		if cfg.Server.Addr != "" && cfg.Server.StaticDir != "" {
			url := "http://" + cfg.Server.Addr + "/"
			t.OnSettings(func() {
				if err := openBrowser(url); err != nil {
					logger.Warn("open settings failed", "url", url, "error", err)
				}
			})
		}
		t.Run(ctx)
		cancel()
	}

	wg.Wait()
	logger.Info("swipectl stopped", "dispatch", a.DispatchStats())
	return errors.Join(errs...)
}

func newDispatcher(cfg config.DispatchConfig, plugins *plugin.Manager, logger *slog.Logger) (dispatch.Dispatcher, error) {
	switch cfg.Mode {
	case config.DispatchLog:
		return dispatch.Log{Logger: logger}, nil
	case config.DispatchPlugin:
		return dispatch.NewPlugin(plugins, cfg.Plugin, plugin.NewExecutor(cfg.Timeout))
	case config.DispatchADB:
		return dispatch.NewADB(cfg.ADBPath, cfg.Serial), nil
	default:
		return nil, fmt.Errorf("unknown dispatch mode %q", cfg.Mode)
	}
}

func openSource(cfg config.SourceConfig, logger *slog.Logger) (source.Provider, error) {
	var (
		src source.Provider
		err error
	)
	switch cfg.Kind {
	case config.SourceReplay:
		src, err = source.OpenReplay(cfg.ReplayPath, source.ReplayOptions{Pace: cfg.ReplayPace})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", source.ErrNoInput, err)
		}
	default:
		src, err = openCamera(cfg, logger)
		if err != nil {
			return nil, err
		}
	}

	if cfg.RecordPath == "" {
		return src, nil
	}
	f, err := os.Create(cfg.RecordPath)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("create trace: %w", err)
	}
	logger.Info("recording trace", "path", cfg.RecordPath)
	return source.NewTee(src, f), nil
}

func openCamera(cfg config.SourceConfig, logger *slog.Logger) (source.Provider, error) {
	det, err := detector.NewMediaPipeDetector(detector.DefaultConfig(), detector.MediaPipeOptions{
		ScriptPath: cfg.ScriptPath,
		PythonPath: cfg.PythonPath,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrNoInput, err)
	}

	camCfg := capture.DefaultConfig()
	camCfg.DeviceID = cfg.CameraID
	if cfg.FPS > 0 {
		camCfg.FPS = cfg.FPS
	}

	cam, err := source.OpenCamera(source.CameraConfig{
		Camera:   capture.NewCamera(camCfg),
		Detector: det,
		Mirror:   cfg.Mirror,
		Logger:   logger,
	})
	if err != nil {
		det.Close()
		return nil, err
	}
	return cam, nil
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

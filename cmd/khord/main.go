// Command khord sonifies Linux kernel activity in real time: it wires the
// probe reader, signal conditioner, music engine, audio renderer and
// MIDI/OSC mirrors into one running daemon and exposes a small HTTP control
// plane for a UI. Flag parsing here is intentionally minimal (stdlib flag,
// matching cmd/main.go's init-time flag.StringVar/BoolVar idiom in the
// teacher); a CLI framework is explicitly out of scope per spec.md §1.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/khor-project/khord/internal/config"
	"github.com/khor-project/khord/internal/control"
	"github.com/khor-project/khord/internal/coordinator"
	"github.com/khor-project/khord/internal/probe"
)

var (
	configPath string
	listenAddr string
	uiDir      string
	noBPF      bool
	noAudio    bool
	enableMidi bool
	enableOsc  bool
	enableFake bool
	logLevel   string
	logFormat  string
)

func init() {
	flag.StringVar(&configPath, "config", "", "Path to the persisted config JSON file (default: XDG config dir)")
	flag.StringVar(&listenAddr, "listen", "", "HOST:PORT for the control-plane HTTP server (overrides config)")
	flag.StringVar(&uiDir, "ui-dir", "", "Directory to serve the UI from (overrides config)")
	flag.BoolVar(&noBPF, "no-bpf", false, "Disable the in-kernel probe even if config enables it")
	flag.BoolVar(&noAudio, "no-audio", false, "Disable the internal audio renderer even if config enables it")
	flag.BoolVar(&enableMidi, "midi", false, "Force-enable the MIDI mirror")
	flag.BoolVar(&enableOsc, "osc", false, "Force-enable the OSC mirror")
	flag.BoolVar(&enableFake, "fake", false, "Force-enable the offline synthetic generator")
	flag.StringVar(&logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	flag.StringVar(&logFormat, "log-format", "console", "Log encoding: console|json")
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "khord — sonify Linux kernel activity in real time\n\nUsage:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	log, err := buildLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "khord: logger setup failed: %v\n", err)
		os.Exit(2)
	}

	os.Exit(run(log))
}

// run returns the process exit code: 0 on a normal signal-triggered stop, 2
// on control-plane bind failure or config load failure, matching spec.md §6.
func run(log logr.Logger) int {
	cfgMgr, err := config.NewManager(
		config.WithLoader(config.NewFileLoader(configPath, log)),
		config.WithLogger(log),
	)
	if err != nil {
		log.Error(err, "failed to load config")
		return 2
	}

	cfg := applyFlagOverrides(cfgMgr.Get())
	if err := cfgMgr.Replace(cfg); err != nil {
		log.Error(err, "failed to persist flag-overridden config")
	}

	probeSrc := probe.NewRingbufSource(log, "")
	coord := coordinator.New(log, probeSrc)
	if err := coord.Start(cfg); err != nil {
		log.Error(err, "failed to start coordinator")
		return 2
	}

	surface := control.NewSurface(log, cfgMgr, coord)
	mux := newMux(log, surface, cfg)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Listen.Host, cfg.Listen.Port),
		Handler: mux,
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.ListenAndServe() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			log.Error(err, "control-plane bind failed")
			_ = coord.Stop()
			return 2
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = coord.Stop()
	return 0
}

func applyFlagOverrides(cfg config.Config) config.Config {
	if listenAddr != "" {
		var host string
		var port int
		if n, _ := fmt.Sscanf(listenAddr, "%[^:]:%d", &host, &port); n == 2 {
			cfg.Listen.Host, cfg.Listen.Port = host, port
		}
	}
	if uiDir != "" {
		cfg.UI.Dir = uiDir
	}
	if noBPF {
		cfg.Features.BPF = false
	}
	if noAudio {
		cfg.Features.Audio = false
	}
	if enableMidi {
		cfg.Features.Midi = true
	}
	if enableOsc {
		cfg.Features.Osc = true
	}
	if enableFake {
		cfg.Features.Fake = true
	}
	return cfg
}

func buildLogger() (logr.Logger, error) {
	var zcfg zap.Config
	if logFormat == "json" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(logLevel)); err != nil {
		return logr.Logger{}, fmt.Errorf("log level: %w", err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)

	zl, err := zcfg.Build()
	if err != nil {
		return logr.Logger{}, fmt.Errorf("build zap logger: %w", err)
	}
	return zapr.NewLogger(zl), nil
}

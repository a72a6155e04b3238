package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"folio/app"
	"folio/engine/loader"
	"folio/hal"
	"folio/internal/buildinfo"
	"folio/viewport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", os.Getenv("FOLIO_CONFIG"), "YAML config file.")
		headless   = flag.Bool("headless", false, "Run without a window.")
		hz         = flag.Int("hz", 60, "Tick rate in headless mode.")
		ticks      = flag.Uint64("ticks", 0, "Stop after N ticks in headless mode (0 = run forever).")
		src        = flag.String("src", "", "Model to show first (path, URL or builtin:torus).")
		background = flag.String("background", "", "Background color.")
		distance   = flag.Float64("camera-distance", 0, "Fixed camera distance (0 = fit the model).")
		root       = flag.String("root", "", "Directory relative model paths are confined to.")
		snapshot   = flag.String("snapshot", "", "Write a PNG of the last frame here on exit.")
		logLevel   = flag.String("log-level", "", "Log level.")
	)
	flag.Parse()

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	// Flags given explicitly win over the file and the environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "headless":
			cfg.Headless = *headless
		case "hz":
			cfg.Hz = *hz
		case "ticks":
			cfg.Ticks = *ticks
		case "src":
			cfg.Src = *src
		case "background":
			cfg.Background = *background
		case "camera-distance":
			cfg.CameraDistance = *distance
		case "root":
			cfg.AssetRoot = *root
		case "snapshot":
			cfg.Snapshot = *snapshot
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})

	log, err := app.NewLogger(cfg.LogLevel, cfg.Dev)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	log.Info("starting", buildinfo.Fields()...)

	viewport.SetLogger(log.Named("viewport"))
	loader.SetLogger(log.Named("loader"))

	loop := hal.NewLoop()
	box := hal.NewBox(cfg.Width, cfg.Height)
	a := app.New(cfg, log, loop, box, loader.New(loader.NewFetcher(cfg.AssetRoot)))
	if err := a.Mount(); err != nil {
		return err
	}
	defer func() {
		if cfg.Snapshot != "" {
			if err := a.Snapshot(cfg.Snapshot); err != nil {
				log.Error("snapshot failed", zap.Error(err))
			}
		}
		a.Close()
	}()

	if cfg.Headless {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		err = hal.RunHeadless(ctx, loop, hal.HeadlessConfig{Enabled: true, Hz: cfg.Hz, Ticks: cfg.Ticks}, a.Step)
	} else {
		err = hal.RunWindow(loop, box, hal.WindowConfig{
			Title:  "folio",
			Width:  cfg.Width,
			Height: cfg.Height,
		}, a.Step)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, app.ErrQuit) {
		return nil
	}
	return err
}

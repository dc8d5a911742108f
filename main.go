package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"ripple/internal/frame"
	"ripple/internal/gpu/opencl"
	"ripple/internal/input"
	"ripple/internal/logger"
	"ripple/internal/metrics"
	"ripple/internal/source"
)

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	log, err := logger.New(logger.Config{
		Environment: *envFlag,
		LogLevel:    *logLevelFlag,
		ServiceName: serviceName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(log, flag.Arg(0)); err != nil {
		log.Error("ripple exited", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "usage: ripple [flags] <image>\n\n")
	fmt.Fprintf(out, "<image> is a file path or http(s) URL.\n")
	fmt.Fprintf(out, "Simulation parameters: %s\n\n", strings.Join(paramFlagNames(), ", "))
	flag.PrintDefaults()
}

func run(log *zap.Logger, imageRef string) error {
	preset := *presetFlag
	if *driftFlag && !flagSet(flag.CommandLine, "preset") {
		preset = "drift"
	}
	cfg, err := simulationConfig(preset, *configFileFlag, explicitParams(flag.CommandLine))
	if err != nil {
		return err
	}
	log.Info("simulation parameters", zap.Any("config", cfg))

	if *cpuProfileFlag != "" {
		stop, err := startCPUProfile(*cpuProfileFlag)
		if err != nil {
			return fmt.Errorf("starting CPU profile: %w", err)
		}
		defer stop()
	}

	dev, err := opencl.Open(opencl.Options{
		DeviceType: *deviceFlag,
		HalfField:  *preferFP16Flag,
		Logger:     log,
	})
	if err != nil {
		return fmt.Errorf("opening GPU device: %w", err)
	}
	defer dev.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var met *metrics.Collector
	if *metricsAddrFlag != "" {
		met = metrics.New()
		srv := &http.Server{Addr: *metricsAddrFlag, Handler: met.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", zap.Error(err))
			}
		}()
		log.Info("serving metrics", zap.String("addr", *metricsAddrFlag))
		defer func() {
			sctx, scancel := context.WithTimeout(context.Background(), metricsShutdown)
			defer scancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	images := source.NewLoader(imageRef, source.Options{MaxDim: *maxImageDimFlag, Logger: log})
	images.Start(ctx)
	if *watchImageFlag {
		if err := images.Watch(ctx, imageReloadDebounce); err != nil {
			log.Warn("image watch disabled", zap.Error(err))
		}
	}

	tracker := input.NewTracker()
	var drift *input.Drift
	if *driftFlag {
		drift = input.NewDrift(tracker, driftRampSeconds)
	}

	ticker := frame.NewTicker()
	driver, err := frame.New(frame.Options{
		Device:    dev,
		Scheduler: ticker,
		Input:     tracker,
		Config:    cfg,
		Logger:    log,
		Metrics:   met,
		Verify:    *verifyKernelsFlag,
	})
	if err != nil {
		return err
	}
	defer driver.Close()
	resizer := frame.NewResizer(driver, ticker, images)

	g := newGame(driver, resizer, ticker, tracker, drift, log)

	ebiten.SetWindowSize(*widthFlag, *heightFlag)
	ebiten.SetWindowTitle(windowTitle)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(ebiten.SyncWithFPS)
	return ebiten.RunGame(g)
}

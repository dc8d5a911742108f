package main

import (
	"fmt"
	"time"

	"ripple/internal/config"
)

// Application constants.
const (
	serviceName         = "ripple"
	windowTitle         = "Ripple"
	defaultWindowWidth  = 960
	defaultWindowHeight = 640
	imageReloadDebounce = 250 * time.Millisecond
	driftRampSeconds    = 3
	metricsShutdown     = 2 * time.Second
)

// simulationConfig resolves the parameter set: preset, then file, then
// explicit flags.
func simulationConfig(preset, file string, explicit map[string]interface{}) (config.Config, error) {
	cfg, err := config.Preset(preset)
	if err != nil {
		return config.Config{}, err
	}
	if file != "" {
		if cfg, err = config.Load(file, cfg); err != nil {
			return config.Config{}, fmt.Errorf("loading config: %w", err)
		}
	}
	if cfg, err = config.Merge(cfg, explicit); err != nil {
		return config.Config{}, fmt.Errorf("applying flags: %w", err)
	}
	return cfg, nil
}

// Package config holds the immutable simulation and compositing parameters of a
// ripple surface, their defaults, named presets, and file/flag overrides.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config is the full parameter set for one surface. Values are passed to the
// GPU kernels as given; nothing here is validated beyond decoding.
type Config struct {
	// RippleSize is the forcing radius in field pixels.
	RippleSize float32 `mapstructure:"rippleSize" yaml:"rippleSize"`
	// RippleStrength is the pressure added at the centre of the forcing disk.
	RippleStrength float32 `mapstructure:"rippleStrength" yaml:"rippleStrength"`
	// DistortionStrength scales the field gradient into texture-space offsets.
	DistortionStrength float32 `mapstructure:"distortionStrength" yaml:"distortionStrength"`
	// WaveSpeed is the integration step; values above 1 are clamped by the integrator.
	WaveSpeed float32 `mapstructure:"waveSpeed" yaml:"waveSpeed"`
	// SpringStrength pulls pressure back toward rest.
	SpringStrength float32 `mapstructure:"springStrength" yaml:"springStrength"`
	// VelocityDamping is removed from velocity each step, scaled by the step.
	VelocityDamping float32 `mapstructure:"velocityDamping" yaml:"velocityDamping"`
	// PressureDamping multiplies pressure each step.
	PressureDamping float32 `mapstructure:"pressureDamping" yaml:"pressureDamping"`

	EnableChromaticAberration    bool    `mapstructure:"enableChromaticAberration" yaml:"enableChromaticAberration"`
	ChromaticAberrationStrength  float32 `mapstructure:"chromaticAberrationStrength" yaml:"chromaticAberrationStrength"`
	ChromaticAberrationDispersal float32 `mapstructure:"chromaticAberrationDispersal" yaml:"chromaticAberrationDispersal"`
}

// Default returns the stock parameter set.
func Default() Config {
	return Config{
		RippleSize:                   30,
		RippleStrength:               1.0,
		DistortionStrength:           0.2,
		WaveSpeed:                    1.0,
		SpringStrength:               0.005,
		VelocityDamping:              0.002,
		PressureDamping:              0.999,
		EnableChromaticAberration:    false,
		ChromaticAberrationStrength:  1.0,
		ChromaticAberrationDispersal: 0.01,
	}
}

// Delta is the integration step actually used: WaveSpeed clamped to 1, the
// stability bound of the explicit scheme.
func (c Config) Delta() float32 {
	if c.WaveSpeed > 1 {
		return 1
	}
	return c.WaveSpeed
}

// AberrationActive reports whether the compositor splits colour channels.
func (c Config) AberrationActive() bool {
	return c.EnableChromaticAberration && c.ChromaticAberrationStrength > 0
}

var presets = map[string]map[string]interface{}{
	"default": {},
	// Tuned for the scripted drift input: wider, softer rings that linger.
	"drift": {
		"rippleSize":                  40,
		"rippleStrength":              0.8,
		"distortionStrength":          0.3,
		"waveSpeed":                   0.8,
		"springStrength":              0.004,
		"velocityDamping":             0.001,
		"pressureDamping":             0.998,
		"enableChromaticAberration":   true,
		"chromaticAberrationStrength": 1.2,
	},
}

// Presets lists the available preset names in sorted order.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset returns the defaults with the named preset applied.
func Preset(name string) (Config, error) {
	overrides, ok := presets[strings.ToLower(name)]
	if !ok {
		return Config{}, fmt.Errorf("unknown preset %q (have %s)", name, strings.Join(Presets(), ", "))
	}
	return Merge(Default(), overrides)
}

// Merge decodes overrides onto base. Keys use the camelCase parameter names;
// unknown keys are an error so typos in files do not pass silently.
func Merge(base Config, overrides map[string]interface{}) (Config, error) {
	out := base
	if len(overrides) == 0 {
		return out, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return Config{}, fmt.Errorf("creating config decoder: %w", err)
	}
	if err := dec.Decode(overrides); err != nil {
		return Config{}, fmt.Errorf("decoding config overrides: %w", err)
	}
	return out, nil
}

// Load reads a YAML parameter file and applies it on top of base.
func Load(path string, base Config) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var overrides map[string]interface{}
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return Config{}, fmt.Errorf("parsing %q: %w", path, err)
	}
	cfg, err := Merge(base, overrides)
	if err != nil {
		return Config{}, fmt.Errorf("applying %q: %w", path, err)
	}
	return cfg, nil
}

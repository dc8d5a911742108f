package main

import (
	"flag"
	"sort"

	"ripple/internal/config"
)

// Command-line flags. Simulation parameters start from -preset, then -config,
// then any parameter flag given explicitly.
var (
	// presetFlag selects the named parameter set to start from.
	presetFlag = flag.String("preset", "default", "parameter preset (default, drift); -drift implies drift unless set")

	// configFileFlag names a YAML file of parameter overrides.
	configFileFlag = flag.String("config", "", "YAML file with simulation parameter overrides")

	// driftFlag replaces pointer input with a scripted looping path.
	driftFlag = flag.Bool("drift", false, "animate the ripple source along a looping path instead of following the pointer")

	widthFlag  = flag.Int("width", defaultWindowWidth, "initial window width")
	heightFlag = flag.Int("height", defaultWindowHeight, "initial window height")

	// deviceFlag restricts OpenCL device selection.
	deviceFlag = flag.String("device", "gpu", "OpenCL device type: gpu, or any to also accept CPU devices")

	// preferFP16Flag stores the field at half precision on the device.
	preferFP16Flag = flag.Bool("prefer-fp16", false, "store field surfaces as 16-bit floats")

	verifyKernelsFlag = flag.Bool("verify-kernels", false, "compare every device step with the host integrator and log divergence")

	// watchImageFlag reloads the image when the file changes.
	watchImageFlag = flag.Bool("watch-image", false, "reload the image when the file changes")

	maxImageDimFlag = flag.Int("max-image-dim", 4096, "downscale images whose longer side exceeds this (0 disables)")

	// metricsAddrFlag serves Prometheus metrics when set, e.g. :9090.
	metricsAddrFlag = flag.String("metrics-addr", "", "address to serve Prometheus metrics on")

	logLevelFlag = flag.String("log-level", "info", "log level: debug, info, warn, error")
	envFlag      = flag.String("env", "development", "logging environment: development or production")

	// debugFlag enables the FPS and driver overlay.
	debugFlag = flag.Bool("debug", false, "show FPS and driver overlay")

	cpuProfileFlag = flag.String("cpuprofile", "", "write a CPU profile to this file")
)

// Parameter flags are only read back through explicitParams, so that unset
// flags never override a preset or file.
func init() {
	d := config.Default()
	flag.Float64("ripple-size", float64(d.RippleSize), "forcing radius in field pixels")
	flag.Float64("ripple-strength", float64(d.RippleStrength), "pressure added at the centre of the forcing disk")
	flag.Float64("distortion-strength", float64(d.DistortionStrength), "refraction offset per unit of field gradient")
	flag.Float64("wave-speed", float64(d.WaveSpeed), "integration step (clamped to 1)")
	flag.Float64("spring-strength", float64(d.SpringStrength), "restoring force toward rest")
	flag.Float64("velocity-damping", float64(d.VelocityDamping), "velocity loss per step")
	flag.Float64("pressure-damping", float64(d.PressureDamping), "pressure multiplier per step")
	flag.Bool("chromatic-aberration", d.EnableChromaticAberration, "split colour channels around refractions")
	flag.Float64("aberration-strength", float64(d.ChromaticAberrationStrength), "chromatic aberration strength")
	flag.Float64("aberration-dispersal", float64(d.ChromaticAberrationDispersal), "chromatic aberration growth toward the edges")
}

// paramFlags maps parameter flag names to configuration keys.
var paramFlags = map[string]string{
	"ripple-size":          "rippleSize",
	"ripple-strength":      "rippleStrength",
	"distortion-strength":  "distortionStrength",
	"wave-speed":           "waveSpeed",
	"spring-strength":      "springStrength",
	"velocity-damping":     "velocityDamping",
	"pressure-damping":     "pressureDamping",
	"chromatic-aberration": "enableChromaticAberration",
	"aberration-strength":  "chromaticAberrationStrength",
	"aberration-dispersal": "chromaticAberrationDispersal",
}

// explicitParams returns the parameter flags set on fs, keyed by
// configuration key.
func explicitParams(fs *flag.FlagSet) map[string]interface{} {
	set := make(map[string]interface{})
	fs.Visit(func(f *flag.Flag) {
		if key, ok := paramFlags[f.Name]; ok {
			set[key] = f.Value.String()
		}
	})
	return set
}

// flagSet reports whether the named flag was given on fs.
func flagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func paramFlagNames() []string {
	names := make([]string, 0, len(paramFlags))
	for name := range paramFlags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

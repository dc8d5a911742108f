// Package metrics exposes frame-loop instrumentation through Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the ripple metrics on a private registry. A nil *Collector
// records nothing.
type Collector struct {
	registry *prometheus.Registry

	Frames           prometheus.Counter
	StepSeconds      prometheus.Histogram
	Resizes          prometheus.Counter
	SurfaceFailures  prometheus.Counter
	TextureUploads   prometheus.Counter
	VerifyMismatches prometheus.Counter
	InputActive      prometheus.Gauge
	SurfaceTexels    prometheus.Gauge
}

// New registers the ripple metrics plus the Go runtime collectors.
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Collector{
		registry: reg,
		Frames: f.NewCounter(prometheus.CounterOpts{
			Name: "ripple_frames_total",
			Help: "Frames stepped by the driver",
		}),
		StepSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "ripple_step_seconds",
			Help:    "Time spent simulating and compositing one frame",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		Resizes: f.NewCounter(prometheus.CounterOpts{
			Name: "ripple_resizes_total",
			Help: "Surface rebuilds caused by viewport changes",
		}),
		SurfaceFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "ripple_surface_failures_total",
			Help: "Failed surface pair or target allocations",
		}),
		TextureUploads: f.NewCounter(prometheus.CounterOpts{
			Name: "ripple_texture_uploads_total",
			Help: "Source image uploads to the device",
		}),
		VerifyMismatches: f.NewCounter(prometheus.CounterOpts{
			Name: "ripple_verify_mismatches_total",
			Help: "Frames whose device field diverged from the host step",
		}),
		InputActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "ripple_input_active",
			Help: "1 while the pointer is forcing the field",
		}),
		SurfaceTexels: f.NewGauge(prometheus.GaugeOpts{
			Name: "ripple_surface_texels",
			Help: "Texels in each field surface",
		}),
	}
}

// Registry returns the registry the metrics live on.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveFrame records one completed step.
func (c *Collector) ObserveFrame(d time.Duration, inputActive bool) {
	if c == nil {
		return
	}
	c.Frames.Inc()
	c.StepSeconds.Observe(d.Seconds())
	if inputActive {
		c.InputActive.Set(1)
	} else {
		c.InputActive.Set(0)
	}
}

// ObserveResize records a surface rebuild of width x height; failed rebuilds
// also count as surface failures.
func (c *Collector) ObserveResize(width, height int, err error) {
	if c == nil {
		return
	}
	c.Resizes.Inc()
	if err != nil {
		c.SurfaceFailures.Inc()
		c.SurfaceTexels.Set(0)
		return
	}
	c.SurfaceTexels.Set(float64(width * height))
}

// ObserveUpload records a texture upload.
func (c *Collector) ObserveUpload() {
	if c == nil {
		return
	}
	c.TextureUploads.Inc()
}

// ObserveMismatch records a verification failure.
func (c *Collector) ObserveMismatch() {
	if c == nil {
		return
	}
	c.VerifyMismatches.Inc()
}

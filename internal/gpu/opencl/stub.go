//go:build !opencl

// Package opencl runs the ripple kernels on an OpenCL device.
package opencl

import (
	"go.uber.org/zap"

	"ripple/internal/gpu"
)

// Options selects and configures the OpenCL device.
type Options struct {
	DeviceType string
	HalfField  bool
	Logger     *zap.Logger
}

// Device is unavailable in builds without the opencl tag.
type Device struct {
	gpu.Device
}

// Open always fails: OpenCL support is compiled out.
func Open(Options) (*Device, error) {
	return nil, &gpu.CapabilityError{Reason: "OpenCL support is not enabled; rebuild with -tags opencl"}
}

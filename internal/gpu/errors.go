package gpu

import "fmt"

// CapabilityError reports a device that cannot run the ripple kernels at all:
// no usable device, or no floating-point field storage.
type CapabilityError struct {
	Device string
	Reason string
	Err    error
}

func (e *CapabilityError) Error() string {
	msg := "gpu capability"
	if e.Device != "" {
		msg += " (" + e.Device + ")"
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CapabilityError) Unwrap() error { return e.Err }

// CompileError carries the device compiler's log for a program that failed
// to build.
type CompileError struct {
	Program string
	Log     string
	Err     error
}

func (e *CompileError) Error() string {
	if e.Log != "" {
		return fmt.Sprintf("compiling %s program: %s", e.Program, e.Log)
	}
	return fmt.Sprintf("compiling %s program: %v", e.Program, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// LinkError reports a built program whose entry point could not be resolved.
type LinkError struct {
	Program string
	Entry   string
	Err     error
}

func (e *LinkError) Error() string {
	msg := fmt.Sprintf("linking %s program: entry point %q", e.Program, e.Entry)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LinkError) Unwrap() error { return e.Err }

// ResourceError reports a failed buffer or texture allocation.
type ResourceError struct {
	Resource      string
	Width, Height int
	Err           error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("allocating %s %dx%d: %v", e.Resource, e.Width, e.Height, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

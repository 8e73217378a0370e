// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
)

// Renderer errors.
var (
	// ErrAdapterNotFound is returned when no adapter can present to the surface.
	ErrAdapterNotFound = errors.New("render: no compatible GPU adapter found")

	// ErrDeviceRequestFailed is returned when the selected adapter refuses to
	// open a device.
	ErrDeviceRequestFailed = errors.New("render: device request failed")

	// ErrBackendUnavailable is returned when the requested HAL backend is not
	// compiled in.
	ErrBackendUnavailable = errors.New("render: GPU backend not available")

	// ErrSurfaceCreation is returned when the window surface cannot be created.
	ErrSurfaceCreation = errors.New("render: surface creation failed")

	// ErrPipelineCreation is returned when the shader or pipeline cannot be built.
	ErrPipelineCreation = errors.New("render: pipeline creation failed")

	// ErrNotReady is returned when an operation needs a Ready renderer.
	ErrNotReady = errors.New("render: renderer is not ready")

	// ErrFrameInFlight is returned by RenderFrame while a previous frame
	// has not been finished.
	ErrFrameInFlight = errors.New("render: a frame is already in flight")

	// ErrStaleFrame is returned when a Frame is used after FinishFrame.
	ErrStaleFrame = errors.New("render: frame already finished")
)

// Surface error sentinels. A SurfaceError wraps exactly one of these.
var (
	ErrSurfaceLost        = errors.New("render: surface lost")
	ErrSurfaceOutdated    = errors.New("render: surface outdated")
	ErrSurfaceTimeout     = errors.New("render: surface acquire timed out")
	ErrSurfaceOutOfMemory = errors.New("render: out of memory")
)

// SurfaceErrorKind classifies a surface acquire or present failure.
type SurfaceErrorKind int

const (
	SurfaceErrorOther SurfaceErrorKind = iota
	SurfaceErrorLost
	SurfaceErrorOutdated
	SurfaceErrorTimeout
	SurfaceErrorOutOfMemory
)

// String returns the kind name.
func (k SurfaceErrorKind) String() string {
	switch k {
	case SurfaceErrorOther:
		return "Other"
	case SurfaceErrorLost:
		return "Lost"
	case SurfaceErrorOutdated:
		return "Outdated"
	case SurfaceErrorTimeout:
		return "Timeout"
	case SurfaceErrorOutOfMemory:
		return "OutOfMemory"
	default:
		return fmt.Sprintf("SurfaceErrorKind(%d)", int(k))
	}
}

func (k SurfaceErrorKind) sentinel() error {
	switch k {
	case SurfaceErrorLost:
		return ErrSurfaceLost
	case SurfaceErrorOutdated:
		return ErrSurfaceOutdated
	case SurfaceErrorTimeout:
		return ErrSurfaceTimeout
	case SurfaceErrorOutOfMemory:
		return ErrSurfaceOutOfMemory
	}
	return nil
}

// SurfaceError is returned by RenderFrame and FinishFrame when the surface
// cannot provide or present a texture.
type SurfaceError struct {
	Kind SurfaceErrorKind
	Op   string
	Err  error
}

// NewSurfaceError returns a SurfaceError of the given kind.
func NewSurfaceError(kind SurfaceErrorKind, op string, err error) *SurfaceError {
	return &SurfaceError{Kind: kind, Op: op, Err: err}
}

func (e *SurfaceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("render: %s: surface %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("render: %s: surface %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the kind sentinel and the underlying error.
func (e *SurfaceError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Recovery is the frame loop's response to a frame error.
type Recovery int

const (
	// RecoverSkip drops the current frame and continues.
	RecoverSkip Recovery = iota

	// RecoverReconfigure reconfigures the surface, then continues.
	RecoverReconfigure

	// RecoverFatal stops the frame loop.
	RecoverFatal
)

// String returns the recovery name.
func (r Recovery) String() string {
	switch r {
	case RecoverSkip:
		return "Skip"
	case RecoverReconfigure:
		return "Reconfigure"
	case RecoverFatal:
		return "Fatal"
	default:
		return fmt.Sprintf("Recovery(%d)", int(r))
	}
}

// Classify returns how the frame loop should react to err.
func Classify(err error) Recovery {
	switch {
	case err == nil:
		return RecoverSkip
	case errors.Is(err, ErrSurfaceLost), errors.Is(err, ErrSurfaceOutdated):
		return RecoverReconfigure
	case errors.Is(err, ErrSurfaceOutOfMemory):
		return RecoverFatal
	default:
		return RecoverSkip
	}
}

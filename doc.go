// Package sandbox is a minimal real-time 3D renderer: one window, one
// static coloured mesh, one camera and a small parameter panel.
//
// # Overview
//
// The rendering core lives in sub-packages:
//
//   - buffer: typed GPU buffers of fixed-layout elements
//   - camera: the viewer pose and its model-view-projection matrix
//   - mesh: the vertex layout and built-in meshes
//   - render: device, surface, pipeline and the per-frame cycle
//   - overlay: the camera parameter panel and its GPU pass
//   - client: the event-driven frame loop and its error policy
//
// This package holds what the command needs to wire them together: the
// YAML configuration and the shared logger.
//
// # Configuration
//
//	cfg, err := sandbox.LoadConfig("sandbox.yaml")
//	if err != nil {
//	    return err
//	}
//	opts, err := cfg.RendererOptions()
//
// Keys missing from the file keep the values of DefaultConfig.
//
// # Logging
//
// Nothing is logged by default. SetLogger installs a logger for this
// package and every sub-package that logs.
package sandbox

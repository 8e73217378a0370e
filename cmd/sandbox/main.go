// Command sandbox opens a window and draws a coloured mesh that can be
// explored with the keyboard and the parameter panel.
//
// Usage:
//
//	sandbox [-config path] [-width N] [-height N] [-mesh name] [-log-level L] [-headless N]
//
// W/A/S/D or the arrow keys move the camera. Tab selects a panel row,
// +/- edits it, F1 hides the panel and Escape quits.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/gogpu/sandbox"
	"github.com/gogpu/sandbox/client"
	"github.com/gogpu/sandbox/internal/window"
	"github.com/gogpu/sandbox/mesh"
	"github.com/gogpu/sandbox/render"
)

func init() {
	// The window's event loop must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "sandbox:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("sandbox", flag.ContinueOnError)
	var (
		configPath = fs.String("config", "", "YAML config file")
		width      = fs.Int("width", 0, "window width (overrides config)")
		height     = fs.Int("height", 0, "window height (overrides config)")
		meshName   = fs.String("mesh", "", "built-in mesh: triangle, quad or pentagon (overrides config)")
		logLevel   = fs.String("log-level", "", "debug, info, warn or error (overrides config)")
		headless   = fs.Int("headless", 0, "render N frames offscreen and exit")
	)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg := sandbox.DefaultConfig()
	if *configPath != "" {
		loaded, err := sandbox.LoadConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *width > 0 {
		cfg.Window.Width = *width
	}
	if *height > 0 {
		cfg.Window.Height = *height
	}
	if *meshName != "" {
		cfg.Mesh = *meshName
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	sandbox.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	log := sandbox.Logger()

	m, err := cfg.LoadMesh()
	if err != nil {
		return err
	}
	opts, err := cfg.RendererOptions()
	if err != nil {
		return err
	}

	if *headless > 0 {
		return runHeadless(cfg, m, *headless, opts)
	}

	power, err := render.ParsePowerPreference(cfg.Renderer.PowerPreference)
	if err != nil {
		return err
	}
	window.SetLogger(log)
	win := window.New(window.Config{
		Title:           cfg.Window.Title,
		Width:           cfg.Window.Width,
		Height:          cfg.Window.Height,
		PowerPreference: power,
	})
	var c *client.Client
	err = win.Run(func(host window.Host) (window.Handler, func(), error) {
		r, err := render.NewHosted(host.Provider, host.Surface, host.Width, host.Height, m, opts...)
		if err != nil {
			return nil, nil, err
		}
		c, err = client.New(r, cfg.CameraPose())
		if err != nil {
			r.Destroy()
			return nil, nil, err
		}
		info := r.AdapterInfo()
		log.Info("sandbox: running", "adapter", info.Name, "mesh", cfg.Mesh, "width", host.Width, "height", host.Height)
		return c, func() {
			c.Destroy()
			r.Destroy()
		}, nil
	})
	if err != nil {
		return err
	}
	if c != nil {
		stats := c.Stats()
		log.Info("sandbox: exiting", "frames", stats.Frames, "skipped", stats.Skipped)
	}
	return nil
}

// runHeadless renders frames into an offscreen texture, strafing the
// camera right once per frame. It runs the device and frame path without
// a window.
func runHeadless(cfg sandbox.Config, m *mesh.Mesh, frames int, opts []render.Option) error {
	surface := render.NewOffscreenSurface()
	r, err := render.New(surface.Source(), cfg.Window.Width, cfg.Window.Height, m, opts...)
	if err != nil {
		return err
	}
	defer r.Destroy()

	c, err := client.New(r, cfg.CameraPose(), client.WithoutOverlay())
	if err != nil {
		return err
	}
	defer c.Destroy()

	strafe := client.KeyEvent{Key: client.KeyD, Action: client.Press}
	for range frames {
		if err := c.HandleEvent(strafe); err != nil {
			return err
		}
		if err := c.HandleEvent(client.Redraw{}); err != nil {
			return err
		}
	}
	stats := c.Stats()
	sandbox.Logger().Info("sandbox: headless run finished",
		"frames", stats.Frames,
		"skipped", stats.Skipped,
		"presented", surface.Presented(),
		"eye", c.Camera().Eye)
	return nil
}

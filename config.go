package sandbox

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/sandbox/camera"
	"github.com/gogpu/sandbox/mesh"
	"github.com/gogpu/sandbox/render"
)

// ErrInvalidConfig is returned when a configuration fails validation.
var ErrInvalidConfig = errors.New("sandbox: invalid config")

// Config is the sandbox configuration. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Renderer RendererConfig `yaml:"renderer"`
	Mesh     string         `yaml:"mesh"`
	Camera   CameraConfig   `yaml:"camera"`
	Log      LogConfig      `yaml:"log"`

	// dir is the directory of the loaded file. Relative shader paths are
	// resolved against it.
	dir string
}

// WindowConfig describes the window.
type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// RendererConfig holds renderer settings.
type RendererConfig struct {
	// PowerPreference is "low-power", "high-performance" or "none".
	PowerPreference string `yaml:"power_preference"`

	ClearColor RGBA `yaml:"clear_color"`

	// Shader is an optional WGSL file replacing the built-in mesh shader.
	Shader string `yaml:"shader"`

	ValidateShader bool `yaml:"validate_shader"`
}

// CameraConfig is the initial camera pose.
type CameraConfig struct {
	Eye    [3]float32 `yaml:"eye,flow"`
	Target [3]float32 `yaml:"target,flow"`
	Up     [3]float32 `yaml:"up,flow"`
	FOV    float32    `yaml:"fov"`
	Speed  float32    `yaml:"speed"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `yaml:"level"`
}

// DefaultConfig returns the built-in configuration: an 800x600 window
// showing the pentagon from the default camera.
func DefaultConfig() Config {
	c := camera.Default()
	return Config{
		Window: WindowConfig{Title: "Sandbox", Width: 800, Height: 600},
		Renderer: RendererConfig{
			PowerPreference: render.PowerLow.String(),
			ClearColor:      RGBA{R: 0.1, G: 0.2, B: 0.3, A: 1},
			ValidateShader:  true,
		},
		Mesh: "pentagon",
		Camera: CameraConfig{
			Eye:    c.Eye,
			Target: c.Target,
			Up:     c.Up,
			FOV:    c.FOV,
			Speed:  c.Speed,
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadConfig reads a YAML file and merges it over DefaultConfig. Keys
// missing from the file keep their defaults; unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("sandbox: read config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// ParseConfig decodes YAML data over DefaultConfig and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("sandbox: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section and returns the first problem found.
func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d must be positive", ErrInvalidConfig, c.Window.Width, c.Window.Height)
	}
	if _, err := render.ParsePowerPreference(c.Renderer.PowerPreference); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := mesh.Builtin(c.Mesh); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.CameraPose().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Camera.Speed <= 0 {
		return fmt.Errorf("%w: camera speed %g must be positive", ErrInvalidConfig, c.Camera.Speed)
	}
	if _, err := c.LogLevel(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// CameraPose returns the initial camera.
func (c Config) CameraPose() camera.Camera {
	return camera.Camera{
		Eye:    mgl32.Vec3(c.Camera.Eye),
		Target: mgl32.Vec3(c.Camera.Target),
		Up:     mgl32.Vec3(c.Camera.Up),
		FOV:    c.Camera.FOV,
		Speed:  c.Camera.Speed,
	}
}

// LoadMesh returns a fresh copy of the configured built-in mesh.
func (c Config) LoadMesh() (*mesh.Mesh, error) {
	return mesh.Builtin(c.Mesh)
}

// LogLevel parses the configured log level.
func (c Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("sandbox: log level: %w", err)
	}
	return level, nil
}

// RendererOptions converts the renderer section to render options. A
// configured shader file is read here.
func (c Config) RendererOptions() ([]render.Option, error) {
	power, err := render.ParsePowerPreference(c.Renderer.PowerPreference)
	if err != nil {
		return nil, err
	}
	opts := []render.Option{
		render.WithPowerPreference(power),
		render.WithClearColor(c.Renderer.ClearColor.GPU()),
		render.WithShaderValidation(c.Renderer.ValidateShader),
	}
	if c.Renderer.Shader != "" {
		path := c.Renderer.Shader
		if !filepath.IsAbs(path) && c.dir != "" {
			path = filepath.Join(c.dir, path)
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("sandbox: read shader: %w", err)
		}
		opts = append(opts, render.WithShaderSource(string(src)))
	}
	return opts, nil
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/rainfrog/engine/core"
)

const (
	BackendOpenGL = "opengl"
	BackendSoft   = "soft"
)

type Config struct {
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Assets   AssetsConfig   `toml:"assets"`
	Log      LogConfig      `toml:"log"`
}

type WindowConfig struct {
	Title  string `toml:"title"`
	X      int    `toml:"x"`
	Y      int    `toml:"y"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	VSync  bool   `toml:"vsync"`
	// Samples is the MSAA sample count requested for the default framebuffer.
	Samples int `toml:"samples"`
}

type RendererConfig struct {
	Backend string `toml:"backend"`
	// Debug enables the device debug channel and the live resource registry.
	Debug bool `toml:"debug"`
	// Strict turns missing uniforms and attributes into errors.
	Strict bool `toml:"strict"`
	// Permissive keeps the previous program when a hot reload fails to compile.
	Permissive bool       `toml:"permissive"`
	ClearColor [4]float32 `toml:"clear_color"`
}

type ShaderPaths struct {
	Vertex   string `toml:"vertex"`
	Fragment string `toml:"fragment"`
}

type AssetsConfig struct {
	Root  string `toml:"root"`
	Watch bool   `toml:"watch"`

	PBRShader    ShaderPaths `toml:"pbr_shader"`
	SkyboxShader ShaderPaths `toml:"skybox_shader"`
	ScreenShader ShaderPaths `toml:"screen_shader"`
	SpriteShader ShaderPaths `toml:"sprite_shader"`

	// Skybox faces ordered +X, -X, +Y, -Y, +Z, -Z.
	Skybox []string `toml:"skybox"`
	Sprite string   `toml:"sprite"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns a configuration that runs the testbed from the repository root.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:   "RainFrog",
			X:       100,
			Y:       100,
			Width:   1280,
			Height:  720,
			VSync:   true,
			Samples: 4,
		},
		Renderer: RendererConfig{
			Backend: BackendOpenGL,
			Debug:   true,
			// coral
			ClearColor: [4]float32{1.0, 0.498, 0.314, 1.0},
		},
		Assets: AssetsConfig{
			Root:         "assets",
			Watch:        true,
			PBRShader:    ShaderPaths{Vertex: "shaders/pbr.vert", Fragment: "shaders/pbr.frag"},
			SkyboxShader: ShaderPaths{Vertex: "shaders/skybox.vert", Fragment: "shaders/skybox.frag"},
			ScreenShader: ShaderPaths{Vertex: "shaders/screen.vert", Fragment: "shaders/screen.frag"},
			SpriteShader: ShaderPaths{Vertex: "shaders/sprite.vert", Fragment: "shaders/sprite.frag"},
			Skybox: []string{
				"textures/skybox/right.png",
				"textures/skybox/left.png",
				"textures/skybox/top.png",
				"textures/skybox/bottom.png",
				"textures/skybox/front.png",
				"textures/skybox/back.png",
			},
			Sprite: "textures/frog.png",
		},
		Log: LogConfig{Level: "debug"},
	}
}

// Load reads a TOML file on top of the defaults. Keys missing from the file
// keep their default value.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &core.AssetReadError{Path: path, Err: err}
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("config %s:%d:%d: %w", path, row, col, err)
		}
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults and
// found=false. A file that exists but fails to decode or validate is an error.
func LoadOrDefault(path string) (cfg *Config, found bool, err error) {
	cfg, err = Load(path)
	switch {
	case err == nil:
		return cfg, true, nil
	case errors.Is(err, fs.ErrNotExist):
		return Default(), false, nil
	default:
		return nil, false, err
	}
}

// Marshal encodes the configuration back to TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	switch c.Renderer.Backend {
	case BackendOpenGL, BackendSoft:
	default:
		return fmt.Errorf("unknown renderer backend %q", c.Renderer.Backend)
	}
	if len(c.Assets.Skybox) != 6 {
		return &core.InvalidFaceCountError{Count: len(c.Assets.Skybox)}
	}
	return nil
}

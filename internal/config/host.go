package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/woxQAQ/wasm-gl-bridge/internal/gl"
)

// EnvPrefix prefixes environment overrides, e.g. GLHOST_WASM_DEBUG=true.
const EnvPrefix = "GLHOST"

type HostConfig struct {
	PayloadPaths []string     `mapstructure:"payload_paths"`
	Payload      string       `mapstructure:"payload"`
	LogLevel     string       `mapstructure:"log_level"`
	Canvas       CanvasConfig `mapstructure:"canvas"`
	GL           GLConfig     `mapstructure:"gl"`
	Wasm         WasmConfig   `mapstructure:"wasm"`
}

// CanvasConfig sizes the drawing buffer. A payload manifest may override it.
type CanvasConfig struct {
	Width  int32 `mapstructure:"width"`
	Height int32 `mapstructure:"height"`
}

// GLConfig tunes the graphics bridge.
type GLConfig struct {
	// Decode cache policy: offset, keyed or off.
	DecodeCache string `mapstructure:"decode_cache"`
	// Vertex array bind mode: compat or fixed.
	VertexArrayBind string `mapstructure:"vertex_array_bind"`
}

// WasmConfig holds Wasm runtime configuration.
type WasmConfig struct {
	// Memory limit per module (in pages, 64KB each).
	MemoryPages uint32 `mapstructure:"memory_pages"`
	// Enable debug logging.
	Debug bool `mapstructure:"debug"`
	// Compilation cache directory.
	CacheDir string `mapstructure:"cache_dir"`
	// Maximum concurrent instances.
	MaxInstances int `mapstructure:"max_instances"`
	// Entry point timeout (seconds); 0 disables it.
	ExecutionTimeout int `mapstructure:"execution_timeout"`
}

// Timeout returns ExecutionTimeout as a duration.
func (w WasmConfig) Timeout() time.Duration {
	return time.Duration(w.ExecutionTimeout) * time.Second
}

// BridgeOptions returns the validated bridge options.
func (g GLConfig) BridgeOptions() (gl.Options, error) {
	policy, err := gl.ParseCachePolicy(g.DecodeCache)
	if err != nil {
		return gl.Options{}, &ConfigError{Key: "gl.decode_cache", Err: err}
	}
	bind, err := gl.ParseVertexArrayBind(g.VertexArrayBind)
	if err != nil {
		return gl.Options{}, &ConfigError{Key: "gl.vertex_array_bind", Err: err}
	}
	return gl.Options{CachePolicy: policy, VertexArrayBind: bind}, nil
}

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Key string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config '%s': %v", e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func LoadHostConfig(configPath string) (*HostConfig, error) {
	return LoadHostConfigWithOverrides(configPath, nil)
}

// LoadHostConfigWithOverrides loads the configuration like LoadHostConfig and
// then applies overrides (viper keys such as "log_level") on top of the file
// and environment before validating. Command-line flags go through here.
func LoadHostConfigWithOverrides(configPath string, overrides map[string]any) (*HostConfig, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("payload_paths", []string{"./payloads"})
	v.SetDefault("payload", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("canvas.width", 640)
	v.SetDefault("canvas.height", 480)
	v.SetDefault("gl.decode_cache", string(gl.CacheByOffset))
	v.SetDefault("gl.vertex_array_bind", string(gl.BindCompat))

	// Wasm defaults
	v.SetDefault("wasm.memory_pages", 256) // 16MB
	v.SetDefault("wasm.debug", false)
	v.SetDefault("wasm.cache_dir", "")
	v.SetDefault("wasm.max_instances", 100)
	v.SetDefault("wasm.execution_timeout", 0)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	var cfg HostConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated and bounded values.
func (c *HostConfig) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return &ConfigError{Key: "log_level", Err: fmt.Errorf("unknown level %q", c.LogLevel)}
	}
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return &ConfigError{Key: "canvas", Err: fmt.Errorf("size must be positive, got %dx%d", c.Canvas.Width, c.Canvas.Height)}
	}
	if c.Wasm.MemoryPages == 0 || c.Wasm.MemoryPages > 65536 {
		return &ConfigError{Key: "wasm.memory_pages", Err: fmt.Errorf("must be in 1..65536, got %d", c.Wasm.MemoryPages)}
	}
	if c.Wasm.MaxInstances < 0 {
		return &ConfigError{Key: "wasm.max_instances", Err: fmt.Errorf("must not be negative")}
	}
	if c.Wasm.ExecutionTimeout < 0 {
		return &ConfigError{Key: "wasm.execution_timeout", Err: fmt.Errorf("must not be negative")}
	}
	_, err := c.GL.BridgeOptions()
	return err
}

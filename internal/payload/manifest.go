package payload

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultWasmFile is fetched when a manifest names neither a file nor a URL.
	DefaultWasmFile = "main.wasm"

	// DefaultEntry is the export run when a manifest does not name one.
	DefaultEntry = "test"
)

// Import groups a payload may declare.
const (
	ImportMemory  = "memory"
	ImportConsole = "console"
	ImportWebGL2  = "webgl2"
)

// Manifest represents the payload manifest.yaml structure.
type Manifest struct {
	Name        string       `yaml:"name"`
	Version     string       `yaml:"version"`
	Description string       `yaml:"description"`
	Wasm        WasmConfig   `yaml:"wasm"`
	Entry       string       `yaml:"entry"`
	Canvas      CanvasConfig `yaml:"canvas"`
	Imports     []string     `yaml:"imports"`
	Author      string       `yaml:"author"`
	License     string       `yaml:"license"`

	// Internal fields
	dir string // Directory containing manifest
}

// WasmConfig holds Wasm module configuration. File and URL are exclusive.
type WasmConfig struct {
	File string `yaml:"file"`
	URL  string `yaml:"url"`
	Size int    `yaml:"size"` // upper bound in KB; 0 means no limit
}

// CanvasConfig overrides the host's canvas size; zero keeps the host value.
type CanvasConfig struct {
	Width  int32 `yaml:"width"`
	Height int32 `yaml:"height"`
}

// ParseManifest reads and parses manifest.yaml from a directory.
func ParseManifest(dir string) (*Manifest, error) {
	manifestPath := filepath.Join(dir, "manifest.yaml")

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, &ManifestNotFoundError{
			Path: manifestPath,
			Err:  err,
		}
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &ManifestParseError{
			Path: manifestPath,
			Err:  err,
		}
	}

	m.dir = dir
	m.applyDefaults()

	// Validate manifest
	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

func (m *Manifest) applyDefaults() {
	if m.Wasm.File == "" && m.Wasm.URL == "" {
		m.Wasm.File = DefaultWasmFile
	}
	if m.Entry == "" {
		m.Entry = DefaultEntry
	}
	if len(m.Imports) == 0 {
		m.Imports = []string{ImportMemory, ImportConsole, ImportWebGL2}
	}
}

// Validate checks manifest fields.
func (m *Manifest) Validate() error {
	// Check required fields
	if m.Name == "" {
		return &ManifestValidationError{
			Path:    m.Path(),
			Field:   "name",
			Message: "name is required",
		}
	}

	if m.Version == "" {
		return &ManifestValidationError{
			Path:    m.Path(),
			Field:   "version",
			Message: "version is required",
		}
	}

	if m.Wasm.File != "" && m.Wasm.URL != "" {
		return &ManifestValidationError{
			Path:    m.Path(),
			Field:   "wasm",
			Message: "wasm.file and wasm.url are mutually exclusive",
		}
	}

	if m.Wasm.Size < 0 {
		return &ManifestValidationError{
			Path:    m.Path(),
			Field:   "wasm.size",
			Message: "wasm.size must not be negative",
		}
	}

	if m.Canvas.Width < 0 || m.Canvas.Height < 0 {
		return &ManifestValidationError{
			Path:    m.Path(),
			Field:   "canvas",
			Message: fmt.Sprintf("canvas size must not be negative, got %dx%d", m.Canvas.Width, m.Canvas.Height),
		}
	}

	validImports := map[string]bool{
		ImportMemory:  true,
		ImportConsole: true,
		ImportWebGL2:  true,
	}
	for _, imp := range m.Imports {
		if !validImports[imp] {
			return &ManifestValidationError{
				Path:    m.Path(),
				Field:   "imports",
				Message: fmt.Sprintf("unknown import group: %s (must be one of: memory, console, webgl2)", imp),
			}
		}
	}

	if m.IsRemote() {
		return nil
	}

	// Validate Wasm file exists
	if _, err := os.Stat(m.WasmPath()); os.IsNotExist(err) {
		return &WasmNotFoundError{
			ManifestPath: m.Path(),
			WasmFile:     m.Wasm.File,
		}
	}

	return nil
}

// IsRemote reports whether the module is fetched over HTTP.
func (m *Manifest) IsRemote() bool {
	return m.Wasm.URL != ""
}

// Path returns the manifest file path.
func (m *Manifest) Path() string {
	return filepath.Join(m.dir, "manifest.yaml")
}

// WasmPath returns the path to the Wasm file, or "" for remote payloads.
func (m *Manifest) WasmPath() string {
	if m.IsRemote() {
		return ""
	}
	return filepath.Join(m.dir, m.Wasm.File)
}

// Dir returns the directory containing the manifest.
func (m *Manifest) Dir() string {
	return m.dir
}

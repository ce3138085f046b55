package payload

import (
	"fmt"
)

// ManifestNotFoundError occurs when manifest.yaml is not found in a directory.
type ManifestNotFoundError struct {
	Path string
	Err  error
}

func (e *ManifestNotFoundError) Error() string {
	return fmt.Sprintf("manifest not found at '%s': %v", e.Path, e.Err)
}

func (e *ManifestNotFoundError) Unwrap() error {
	return e.Err
}

// ManifestParseError occurs when manifest.yaml cannot be parsed as valid YAML.
type ManifestParseError struct {
	Path string
	Err  error
}

func (e *ManifestParseError) Error() string {
	return fmt.Sprintf("failed to parse manifest at '%s': %v", e.Path, e.Err)
}

func (e *ManifestParseError) Unwrap() error {
	return e.Err
}

// ManifestValidationError occurs when manifest.yaml fails validation.
type ManifestValidationError struct {
	Path    string
	Field   string
	Message string
}

func (e *ManifestValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("manifest validation failed at '%s': %s (field: %s)",
			e.Path, e.Message, e.Field)
	}
	return fmt.Sprintf("manifest validation failed at '%s': %s", e.Path, e.Message)
}

// WasmNotFoundError occurs when the Wasm file referenced in manifest doesn't exist.
type WasmNotFoundError struct {
	ManifestPath string
	WasmFile     string
}

func (e *WasmNotFoundError) Error() string {
	return fmt.Sprintf("Wasm file '%s' not found (referenced in manifest '%s')",
		e.WasmFile, e.ManifestPath)
}

// PayloadLoadError occurs when compiling or fetching a payload fails.
type PayloadLoadError struct {
	PayloadName string
	Err         error
}

func (e *PayloadLoadError) Error() string {
	return fmt.Sprintf("failed to load payload '%s': %v", e.PayloadName, e.Err)
}

func (e *PayloadLoadError) Unwrap() error {
	return e.Err
}

// UndeclaredImportError occurs when a module imports a host function from a
// group its manifest does not list.
type UndeclaredImportError struct {
	PayloadName string
	Function    string
	Group       string
}

func (e *UndeclaredImportError) Error() string {
	return fmt.Sprintf("payload '%s' imports env.%s but does not declare the '%s' import group", e.PayloadName, e.Function, e.Group)
}

// PayloadSizeError occurs when a module is larger than its manifest allows.
type PayloadSizeError struct {
	PayloadName string
	SizeBytes   int64
	LimitKB     int
}

func (e *PayloadSizeError) Error() string {
	return fmt.Sprintf("payload '%s' is %d bytes, over its %d KB limit", e.PayloadName, e.SizeBytes, e.LimitKB)
}

// PayloadNotFoundError occurs when a payload is not found in the registry.
type PayloadNotFoundError struct {
	PayloadName string
}

func (e *PayloadNotFoundError) Error() string {
	return fmt.Sprintf("payload '%s' not found", e.PayloadName)
}

// PayloadAlreadyRegisteredError occurs when attempting to register a duplicate payload.
type PayloadAlreadyRegisteredError struct {
	PayloadName string
}

func (e *PayloadAlreadyRegisteredError) Error() string {
	return fmt.Sprintf("payload '%s' is already registered", e.PayloadName)
}

// NoPayloadsFoundError occurs when no payloads are found in the configured paths.
type NoPayloadsFoundError struct {
	Paths []string
}

func (e *NoPayloadsFoundError) Error() string {
	return fmt.Sprintf("no payloads found in paths: %v", e.Paths)
}

package payload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/woxQAQ/wasm-gl-bridge/internal/wasm"
)

// Loader handles loading payloads from disk.
type Loader struct {
	runtime      *wasm.Runtime
	moduleLoader *wasm.ModuleLoader
	logger       *zap.Logger
}

// NewLoader creates a new payload loader.
func NewLoader(runtime *wasm.Runtime, logger *zap.Logger) *Loader {
	return &Loader{
		runtime:      runtime,
		moduleLoader: wasm.NewModuleLoader(runtime, logger),
		logger:       logger.With(zap.String("component", "payload-loader")),
	}
}

// source returns where the payload's bytecode comes from.
func source(m *Manifest) wasm.ModuleSource {
	if m.IsRemote() {
		return &wasm.HTTPModuleSource{URL: m.Wasm.URL}
	}
	return &wasm.FileModuleSource{Path: m.WasmPath()}
}

// LoadPayload loads a single payload from a directory.
func (l *Loader) LoadPayload(ctx context.Context, dir string) (*Payload, error) {
	l.logger.Debug("Loading payload", zap.String("dir", dir))

	// Parse manifest
	manifest, err := ParseManifest(dir)
	if err != nil {
		return nil, err
	}

	src := source(manifest)
	l.logger.Info("Loading payload",
		zap.String("name", manifest.Name),
		zap.String("version", manifest.Version),
		zap.String("source", src.Name()),
	)

	// Compile Wasm module (uses internal caching)
	compiled, err := l.moduleLoader.LoadModule(ctx, src)
	if err != nil {
		return nil, &PayloadLoadError{
			PayloadName: manifest.Name,
			Err:         err,
		}
	}

	p := &Payload{
		Manifest: manifest,
		Compiled: compiled,
		LoadedAt: time.Now(),
	}

	if err := p.checkSize(); err != nil {
		return nil, err
	}
	if err := p.checkImports(); err != nil {
		return nil, err
	}

	l.logger.Info("Payload loaded successfully",
		zap.String("name", manifest.Name),
		zap.Int64("size_bytes", compiled.SizeBytes),
	)

	return p, nil
}

// ReloadPayload drops the cached module for dir and loads it again.
func (l *Loader) ReloadPayload(ctx context.Context, dir string) (*Payload, error) {
	if manifest, err := ParseManifest(dir); err == nil {
		l.runtime.EvictCompiledModule(ctx, source(manifest).Name())
	}
	return l.LoadPayload(ctx, dir)
}

// DiscoverPayloads scans directories for payloads.
func (l *Loader) DiscoverPayloads(ctx context.Context, paths []string) ([]*Payload, error) {
	var payloads []*Payload
	var errs []error

	for _, basePath := range paths {
		l.logger.Debug("Scanning payload directory", zap.String("path", basePath))

		// Read subdirectories
		entries, err := os.ReadDir(basePath)
		if err != nil {
			if os.IsNotExist(err) {
				l.logger.Warn("Payload path does not exist", zap.String("path", basePath))
				continue
			}
			return nil, fmt.Errorf("failed to read directory '%s': %w", basePath, err)
		}

		// Try to load each subdirectory as a payload
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}

			payloadDir := filepath.Join(basePath, entry.Name())

			p, err := l.LoadPayload(ctx, payloadDir)
			if err != nil {
				l.logger.Error("Failed to load payload",
					zap.String("dir", payloadDir),
					zap.Error(err),
				)
				errs = append(errs, err)
				continue
			}

			payloads = append(payloads, p)
		}
	}

	// If we found some payloads but had errors, log warning but continue
	if len(payloads) > 0 && len(errs) > 0 {
		l.logger.Warn("Some payloads failed to load",
			zap.Int("loaded", len(payloads)),
			zap.Int("failed", len(errs)),
		)
	}

	// If no payloads loaded, return error
	if len(payloads) == 0 {
		return nil, &NoPayloadsFoundError{Paths: paths}
	}

	return payloads, nil
}

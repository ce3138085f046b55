package payload

import (
	"strings"
	"time"

	"github.com/woxQAQ/wasm-gl-bridge/internal/wasm"
)

// Payload is a loaded guest program with its manifest and compiled module.
type Payload struct {
	// Manifest is the parsed payload metadata
	Manifest *Manifest

	// Compiled is the compiled Wasm module
	Compiled *wasm.CompiledModule

	// LoadedAt is the timestamp when the payload was loaded
	LoadedAt time.Time
}

// Name returns the payload name.
func (p *Payload) Name() string {
	return p.Manifest.Name
}

// Version returns the payload version.
func (p *Payload) Version() string {
	return p.Manifest.Version
}

// Entry returns the export called to run the payload.
func (p *Payload) Entry() string {
	return p.Manifest.Entry
}

// Imports returns the host import groups the payload links against.
func (p *Payload) Imports() []string {
	return p.Manifest.Imports
}

// UsesImport checks if the payload declares an import group.
func (p *Payload) UsesImport(group string) bool {
	for _, g := range p.Manifest.Imports {
		if g == group {
			return true
		}
	}
	return false
}

// importGroup returns the group providing an "env" import, or "" for names
// no group provides.
func importGroup(name string) string {
	switch {
	case name == "malloc" || name == "free":
		return ImportMemory
	case name == "consoleLog" || name == "logMessage":
		return ImportConsole
	case strings.HasPrefix(name, "gl"):
		return ImportWebGL2
	}
	return ""
}

// checkImports rejects a module that links against an "env" group its
// manifest does not declare. Imports outside every group are left for
// instantiation to report.
func (p *Payload) checkImports() error {
	if p.Compiled == nil || p.Compiled.Module == nil {
		return nil
	}
	for _, def := range p.Compiled.Module.ImportedFunctions() {
		module, name, _ := def.Import()
		if module != wasm.HostModuleName {
			continue
		}
		if group := importGroup(name); group != "" && !p.UsesImport(group) {
			return &UndeclaredImportError{
				PayloadName: p.Name(),
				Function:    name,
				Group:       group,
			}
		}
	}
	return nil
}

// checkSize enforces the manifest's wasm.size limit, if any.
func (p *Payload) checkSize() error {
	limit := int64(p.Manifest.Wasm.Size) * 1024
	if limit > 0 && p.Compiled != nil && p.Compiled.SizeBytes > limit {
		return &PayloadSizeError{
			PayloadName: p.Name(),
			SizeBytes:   p.Compiled.SizeBytes,
			LimitKB:     p.Manifest.Wasm.Size,
		}
	}
	return nil
}

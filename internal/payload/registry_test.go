package payload

import (
	"testing"

	"go.uber.org/zap"
)

func testPayload(name string, imports ...string) *Payload {
	return &Payload{
		Manifest: &Manifest{
			Name:    name,
			Version: "1.0.0",
			Entry:   DefaultEntry,
			Imports: imports,
			dir:     "/tmp/" + name,
		},
	}
}

func TestRegistry_Register(t *testing.T) {
	registry := NewRegistry(zap.NewNop())

	if err := registry.Register(testPayload("cube", ImportWebGL2)); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	if registry.Count() != 1 {
		t.Errorf("expected count 1, got %d", registry.Count())
	}
}

func TestRegistry_Duplicate(t *testing.T) {
	registry := NewRegistry(zap.NewNop())

	if err := registry.Register(testPayload("cube")); err != nil {
		t.Fatalf("First Register() failed: %v", err)
	}

	err := registry.Register(testPayload("cube"))
	if err == nil {
		t.Fatal("Register() should fail for duplicate payload")
	}

	if _, ok := err.(*PayloadAlreadyRegisteredError); !ok {
		t.Errorf("expected PayloadAlreadyRegisteredError, got %T", err)
	}
}

func TestRegistry_Replace(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	first := testPayload("cube", ImportWebGL2)
	second := testPayload("cube", ImportConsole)

	registry.Register(first)
	registry.Replace(second)

	got, ok := registry.Get("cube")
	if !ok || got != second {
		t.Fatal("Replace() should swap in the new payload")
	}

	if got.UsesImport(ImportWebGL2) || !got.UsesImport(ImportConsole) {
		t.Errorf("unexpected imports after Replace(): %v", got.Imports())
	}
	if registry.Count() != 1 {
		t.Errorf("expected count 1 after Replace(), got %d", registry.Count())
	}
}

func TestRegistry_Get(t *testing.T) {
	registry := NewRegistry(zap.NewNop())

	if _, ok := registry.Get("cube"); ok {
		t.Error("Get() should return false for non-existent payload")
	}

	registry.Register(testPayload("cube"))

	retrieved, ok := registry.Get("cube")
	if !ok {
		t.Fatal("Get() should return true for existing payload")
	}

	if retrieved.Name() != "cube" {
		t.Errorf("expected name 'cube', got '%s'", retrieved.Name())
	}
}

func TestRegistry_ListSorted(t *testing.T) {
	registry := NewRegistry(zap.NewNop())

	if len(registry.List()) != 0 {
		t.Error("expected empty list")
	}

	registry.Register(testPayload("zeta"))
	registry.Register(testPayload("alpha"))

	list := registry.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 payloads, got %d", len(list))
	}

	if list[0].Name() != "alpha" || list[1].Name() != "zeta" {
		t.Errorf("expected sorted names, got %s, %s", list[0].Name(), list[1].Name())
	}
}

func TestRegistry_Unregister(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	registry.Register(testPayload("cube", ImportWebGL2))

	registry.Unregister("cube")
	registry.Unregister("never-registered")

	if registry.Count() != 0 {
		t.Errorf("expected count 0, got %d", registry.Count())
	}

	if _, ok := registry.Get("cube"); ok {
		t.Error("Get() should return false after unregister")
	}
}

package loader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/typekit/core/registry"
)

func writeSchema(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "node.yaml", `
type: Node
fields:
  id:    { type: Uuid }
  child: { type: "Node?" }
`)

	reg, err := Load([]string{dir}, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Non-generic templates are resolved eagerly.
	if reg.ResolvedCount() != 1 {
		t.Errorf("ResolvedCount() = %d, want 1", reg.ResolvedCount())
	}
	if _, ok := reg.Template("Node"); !ok {
		t.Error("Node template not registered")
	}
}

func TestLoad_GenericNotEagerlyResolved(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "box.yaml", `
type: Box
params: [T]
fields:
  value: { type: T }
`)

	reg, err := Load([]string{dir}, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if reg.ResolvedCount() != 0 {
		t.Errorf("ResolvedCount() = %d, want 0", reg.ResolvedCount())
	}
}

func TestLoad_DanglingReference(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "owner.yaml", `
type: Owner
fields:
  pet: { type: Pet }
`)

	if _, err := Load([]string{dir}, nil); err == nil {
		t.Error("Load() with dangling reference should fail")
	}
}

func TestHolder_Reload(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "node.yaml", `
type: Node
fields:
  id: { type: Uuid }
`)

	h, err := NewHolder(Config{Dirs: []string{dir}, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("NewHolder() error = %v", err)
	}
	defer h.Stop()

	before := h.Get()
	if _, ok := before.Template("Node"); !ok {
		t.Fatal("initial registry missing Node")
	}

	var swapped int
	h.OnSwap(func(_ *registry.Registry) { swapped++ })

	writeSchema(t, dir, "edge.yaml", `
type: Edge
fields:
  from: { type: Node }
  to:   { type: Node }
`)

	if err := h.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	after := h.Get()
	if after == before {
		t.Error("Reload() must swap in a fresh registry")
	}
	if _, ok := after.Template("Edge"); !ok {
		t.Error("reloaded registry missing Edge")
	}
	if swapped != 1 {
		t.Errorf("OnSwap called %d times, want 1", swapped)
	}
}

func TestHolder_ReloadKeepsOldOnFailure(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "node.yaml", `
type: Node
fields:
  id: { type: Uuid }
`)

	h, err := NewHolder(Config{Dirs: []string{dir}, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("NewHolder() error = %v", err)
	}
	defer h.Stop()

	before := h.Get()

	// Break the schema directory.
	writeSchema(t, dir, "broken.yaml", `
type: Broken
fields:
  x: { type: "List<" }
`)

	if err := h.Reload(); err == nil {
		t.Fatal("Reload() with broken schema should fail")
	}
	if h.Get() != before {
		t.Error("failed reload must keep the old registry")
	}
}

func TestHolder_WatchDebounce(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "node.yaml", `
type: Node
fields:
  id: { type: Uuid }
`)

	h, err := NewHolder(Config{
		Dirs:     []string{dir},
		Logger:   zerolog.Nop(),
		Debounce: 250 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewHolder() error = %v", err)
	}
	defer h.Stop()

	swapped := make(chan *registry.Registry, 16)
	h.OnSwap(func(reg *registry.Registry) { swapped <- reg })

	if err := h.WatchDirs(); err != nil {
		t.Fatalf("WatchDirs() error = %v", err)
	}

	// A burst of saves well inside the debounce window.
	for i := 0; i < 3; i++ {
		writeSchema(t, dir, "edge.yaml", `
type: Edge
fields:
  from: { type: Node }
  to:   { type: Node }
`)
	}

	select {
	case reg := <-swapped:
		if _, ok := reg.Template("Edge"); !ok {
			t.Error("reloaded registry missing Edge")
		}
	case <-time.After(10 * time.Second):
		t.Fatal("no reload after schema change")
	}

	// The burst coalesces into that single reload.
	select {
	case <-swapped:
		t.Error("burst of writes triggered more than one reload")
	case <-time.After(750 * time.Millisecond):
	}
}

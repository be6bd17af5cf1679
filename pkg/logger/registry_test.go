package logger

import (
	"bytes"
	"testing"
)

func TestRegistry_SetLevelByModule(t *testing.T) {
	var buf bytes.Buffer
	root := New(Config{Level: "info", Output: &buf})
	carousel := root.WithComponent("mot-carousel")

	reg := NewRegistry(root)
	reg.Register("mot-carousel", carousel)

	if matched := reg.SetLevel("mot-carousel", DebugLevel); matched != 1 {
		t.Fatalf("expected 1 match, got %d", matched)
	}
	lvl, ok := reg.GetLevel("mot-carousel")
	if !ok || lvl != DebugLevel {
		t.Fatalf("expected mot-carousel at DebugLevel, got %v ok=%v", lvl, ok)
	}
	if rootLvl, _ := reg.GetLevel(""); rootLvl != InfoLevel {
		t.Fatalf("expected root untouched at InfoLevel, got %v", rootLvl)
	}
}

func TestRegistry_SetLevelAllModules(t *testing.T) {
	var buf bytes.Buffer
	root := New(Config{Level: "info", Output: &buf})
	reg := NewRegistry(root)
	reg.Register("a", root.WithComponent("a"))
	reg.Register("b", root.WithComponent("b"))

	matched := reg.SetLevel("", ErrorLevel)
	if matched != 3 {
		t.Fatalf("expected 3 matches (root+a+b), got %d", matched)
	}
	for _, name := range []string{"root", "a", "b"} {
		if lvl, ok := reg.GetLevel(name); !ok || lvl != ErrorLevel {
			t.Fatalf("expected %s at ErrorLevel, got %v ok=%v", name, lvl, ok)
		}
	}
}

func TestRegistry_GetLevelUnknownModule(t *testing.T) {
	reg := NewRegistry(New(Config{Level: "info"}))
	if _, ok := reg.GetLevel("nope"); ok {
		t.Fatal("expected unknown module to report ok=false")
	}
}

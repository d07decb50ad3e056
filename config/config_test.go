package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "dbgcore.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadMissingFileReturnsZeroOptions(t *testing.T) {
	opts, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(opts.Skip) != 0 || opts.SigintTrampoline || opts.IgnoreFirstCallEvent != nil {
		t.Errorf("Load(missing) = %+v, want zero value", opts)
	}
}

func TestLoadParsesFields(t *testing.T) {
	path := writeTemp(t, "skip:\n  - \"importlib*\"\n  - \"encodings*\"\nsigintTrampoline: true\nignoreFirstCallEvent: false\n")
	opts, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(opts.Skip) != 2 || opts.Skip[0] != "importlib*" {
		t.Errorf("Skip = %v", opts.Skip)
	}
	if !opts.SigintTrampoline {
		t.Error("SigintTrampoline = false, want true")
	}
	if opts.IgnoreFirstCallEvent == nil || *opts.IgnoreFirstCallEvent {
		t.Errorf("IgnoreFirstCallEvent = %v, want pointer to false", opts.IgnoreFirstCallEvent)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeTemp(t, "skip: [this is not\n  valid yaml")
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

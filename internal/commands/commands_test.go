package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--db", dbPath, "--email", "cli@example.com", "--password", "secret1"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestPresetLifecycle(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "cli.db")

	if out, err := execute(t, dbPath, "register"); err != nil || !strings.Contains(out, "Registered cli@example.com") {
		t.Fatalf("register: %v %s", err, out)
	}
	if _, err := execute(t, dbPath, "register"); err == nil {
		t.Fatal("expected a second register to fail")
	}

	out, err := execute(t, dbPath, "presets", "add", "--name", "Tabata", "--mode", "interval", "--work", "20", "--rest", "10")
	if err != nil || !strings.Contains(out, "Added preset Tabata") {
		t.Fatalf("add: %v %s", err, out)
	}
	if _, err := execute(t, dbPath, "presets", "add", "--name", "Broken", "--mode", "interval", "--rest", "10"); err == nil {
		t.Fatal("expected an interval preset without work seconds to be rejected")
	}

	out, err = execute(t, dbPath, "presets", "list")
	if err != nil || !strings.Contains(out, "Tabata") || !strings.Contains(out, "20s") {
		t.Fatalf("list: %v %s", err, out)
	}

	exportPath := filepath.Join(dir, "presets.yaml")
	if _, err := execute(t, dbPath, "presets", "export", exportPath); err != nil {
		t.Fatalf("export: %v", err)
	}
	raw, err := os.ReadFile(exportPath)
	if err != nil || !strings.Contains(string(raw), "name: Tabata") {
		t.Fatalf("unexpected export: %v %s", err, raw)
	}

	importPath := filepath.Join(dir, "import.yaml")
	importYAML := "presets:\n  - name: Squats\n    work_mode: rest_only\n    rest_seconds: 180\n  - name: \"\"\n    work_mode: interval\n    rest_seconds: 10\n"
	if err := os.WriteFile(importPath, []byte(importYAML), 0o644); err != nil {
		t.Fatalf("write import file: %v", err)
	}
	out, err = execute(t, dbPath, "presets", "import", importPath)
	if err != nil || !strings.Contains(out, "Imported 1 of 2 presets") {
		t.Fatalf("import: %v %s", err, out)
	}

	out, err = execute(t, dbPath, "history")
	if err != nil || !strings.Contains(out, "No sessions yet") {
		t.Fatalf("history: %v %s", err, out)
	}
}

func TestLoginRequired(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cli.db")

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", dbPath, "--email", "", "--password", "", "presets", "list"})
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "--email") {
		t.Fatalf("expected a missing credentials error, got %v", err)
	}

	if _, err := execute(t, dbPath, "presets", "list"); err == nil || !strings.Contains(err.Error(), "invalid email or password") {
		t.Fatalf("expected unknown user to fail, got %v", err)
	}
}

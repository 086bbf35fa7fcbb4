package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	output, err := executeCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(output, "Wrote sample configuration") {
		t.Fatalf("unexpected output %q", output)
	}

	content, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample config: %v", err)
	}
	if !strings.Contains(string(content), "[portal]") {
		t.Fatalf("sample config missing portal section:\n%s", content)
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(target, []byte("# existing"), 0o644); err != nil {
		t.Fatalf("write existing config: %v", err)
	}

	_, err := executeCommand(t, "config", "init", "--path", target)
	if err == nil {
		t.Fatal("expected refusal without --overwrite")
	}

	if _, err := executeCommand(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestMatchCommand(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	if _, err := executeCommand(t, "config", "init", "--path", cfgPath); err != nil {
		t.Fatalf("config init: %v", err)
	}

	output, err := executeCommand(t,
		"--config", cfgPath,
		"match", "--payee", "John Doe", "pay to the order of john doe")
	if err != nil {
		t.Fatalf("match command: %v", err)
	}
	if !strings.Contains(output, "Matched: yes") {
		t.Fatalf("expected match, got %q", output)
	}
}

func TestMatchCommandRequiresPayee(t *testing.T) {
	if _, err := executeCommand(t, "match", "some text"); err == nil {
		t.Fatal("expected error without --payee")
	}
}

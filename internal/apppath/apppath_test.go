package apppath

import (
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestRuntimeDirUsesXDGRuntimeDirWhenSet(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", td)

	got, err := RuntimeDir()
	if err != nil {
		t.Fatalf("RuntimeDir() error: %v", err)
	}
	if got != td {
		t.Fatalf("RuntimeDir() = %q, want %q", got, td)
	}
}

func TestRuntimeDirFallbacksWhenXDGRuntimeDirMissing(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "")

	got, err := RuntimeDir()
	if err != nil {
		t.Fatalf("RuntimeDir() error: %v", err)
	}

	wantRun := fmt.Sprintf("/run/user/%d", os.Getuid())
	wantTmp := fmt.Sprintf("/tmp/taskdesk-runtime-%d", os.Getuid())
	if got != wantRun && got != wantTmp {
		t.Fatalf("RuntimeDir() = %q, want %q or %q", got, wantRun, wantTmp)
	}
}

func TestSocketPath(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", td)

	socket, err := SocketPath()
	if err != nil {
		t.Fatalf("SocketPath() error: %v", err)
	}
	if !strings.HasSuffix(socket, "/taskdesk.sock") {
		t.Fatalf("SocketPath() = %q, missing suffix", socket)
	}
}

func TestStateFilePath(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", td)

	path, err := StateFilePath()
	if err != nil {
		t.Fatalf("StateFilePath() error: %v", err)
	}
	if !strings.HasSuffix(path, "/taskdesk/window-state.json") {
		t.Fatalf("StateFilePath() = %q, missing suffix", path)
	}
}

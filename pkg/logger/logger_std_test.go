package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestInit_DevStd_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{
		Service:   "demo",
		Version:   "v0.0.1",
		Env:       EnvDev,
		Backend:   BackendStd,
		Level:     slog.LevelDebug,
		AddSource: true,
		Output:    &buf,
	})
	slog.Info("Hello world")

	out := buf.String()
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Fatalf("expected text output in dev/std, got JSON: %s", out)
	}
	if !strings.Contains(out, "Hello world") {
		t.Fatalf("message missing: %s", out)
	}
	if !strings.Contains(out, "service=demo") {
		t.Fatalf("service attr missing: %s", out)
	}
	if !strings.Contains(out, "env=dev") {
		t.Fatalf("env attr missing: %s", out)
	}
}

func TestInit_StageStd_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Service: "demo", Env: EnvStage, Backend: BackendStd, Output: &buf})
	L().Info("staged")

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("expected JSON line, got %s, err=%v", buf.String(), err)
	}
	if m["msg"] != "staged" || m["env"] != "stage" {
		t.Fatalf("unexpected record: %v", m)
	}
}

func TestInit_DebugFlag(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Env: EnvDev, Backend: BackendStd, Output: &buf})
	slog.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug record leaked at info level: %s", buf.String())
	}

	Init(Config{Env: EnvDev, Backend: BackendStd, Debug: true, Output: &buf})
	slog.Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("debug record missing: %s", buf.String())
	}
}

package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestInit_ProdZap_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{
		Service:          "demo",
		Version:          "1.2.3",
		Env:              EnvProd,
		Backend:          BackendZap,
		Level:            slog.LevelInfo,
		SampleInitial:    100000,
		SampleThereafter: 100000,
		Output:           &buf,
	})
	slog.Info("booted", slog.String("k", "v"))

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("expected JSON line, got %s, err=%v", buf.String(), err)
	}

	if m["msg"] != "booted" {
		t.Fatalf("msg mismatch: %v", m["msg"])
	}
	if m["service"] != "demo" || m["env"] != "prod" || m["version"] != "1.2.3" {
		t.Fatalf("attrs missing: service=%v env=%v version=%v", m["service"], m["env"], m["version"])
	}
	if m["level"] != "INFO" {
		t.Fatalf("level mismatch: %v", m["level"])
	}
	if m["k"] != "v" {
		t.Fatalf("custom field missing: %v", m["k"])
	}
}

func TestInit_DefaultBackendByEnv(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Service: "demo", Env: EnvProd, Output: &buf})
	slog.Warn("zapped")

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("prod should default to zap JSON, got %s", buf.String())
	}
	if m["level"] != "WARN" {
		t.Fatalf("level mismatch: %v", m["level"])
	}
}

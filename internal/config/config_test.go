package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.AppointmentsTable != "appointments" {
		t.Errorf("expected default appointments table, got %s", cfg.AppointmentsTable)
	}
	if cfg.SlotHoldTTL != 30*time.Second {
		t.Errorf("expected default slot hold TTL 30s, got %s", cfg.SlotHoldTTL)
	}
	if cfg.GeminiModelID == "" {
		t.Error("expected a default gemini model id")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("WORKER_COUNT", "5")
	t.Setenv("USE_MEMORY_QUEUE", "true")
	t.Setenv("SLOT_HOLD_TTL", "2m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.eclinic.gh, https://staging.eclinic.gh")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.WorkerCount != 5 {
		t.Errorf("expected worker count 5, got %d", cfg.WorkerCount)
	}
	if !cfg.UseMemoryQueue {
		t.Error("expected memory queue enabled")
	}
	if cfg.SlotHoldTTL != 2*time.Minute {
		t.Errorf("expected slot hold TTL 2m, got %s", cfg.SlotHoldTTL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://staging.eclinic.gh" {
		t.Errorf("unexpected CORS origins: %v", cfg.CORSOrigins)
	}
}

func TestLoadBadValuesFallBack(t *testing.T) {
	t.Setenv("WORKER_COUNT", "not-a-number")
	t.Setenv("SLOT_HOLD_TTL", "soon")

	cfg := Load()

	if cfg.WorkerCount != 2 {
		t.Errorf("expected fallback worker count 2, got %d", cfg.WorkerCount)
	}
	if cfg.SlotHoldTTL != 30*time.Second {
		t.Errorf("expected fallback TTL 30s, got %s", cfg.SlotHoldTTL)
	}
}

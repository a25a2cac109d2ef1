package popquiz_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"popquiz"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := popquiz.LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LLM.Model != "mistral:7b" || cfg.LLM.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("llm defaults = %+v", cfg.LLM)
	}
	if cfg.LLM.GenerationTimeout != 30*time.Second || cfg.LLM.GradingTimeout != 45*time.Second {
		t.Errorf("timeouts = %v, %v", cfg.LLM.GenerationTimeout, cfg.LLM.GradingTimeout)
	}
	if cfg.Generation.MaxQuestions != 20 || cfg.Generation.SourceTextLimit != popquiz.DefaultSourceTextLimit {
		t.Errorf("generation defaults = %+v", cfg.Generation)
	}
	if cfg.Server.RateLimit != 20 || len(cfg.Server.AllowedOrigins) != 1 {
		t.Errorf("server defaults = %+v", cfg.Server)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `server:
  port: "9000"
  allowed_origins:
    - http://localhost:5173
llm:
  model: llama3
  grading_timeout: 10s
generation:
  max_questions: 8
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("POPQUIZ_LLM_MODEL", "qwen2")
	t.Setenv("POPQUIZ_DATABASE_PATH", "/tmp/other.db")

	cfg, err := popquiz.LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != "9000" || cfg.Server.AllowedOrigins[0] != "http://localhost:5173" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.LLM.Model != "qwen2" {
		t.Errorf("env did not override model: %q", cfg.LLM.Model)
	}
	if cfg.LLM.GradingTimeout != 10*time.Second {
		t.Errorf("grading timeout = %v", cfg.LLM.GradingTimeout)
	}
	if cfg.Database.Path != "/tmp/other.db" || cfg.Generation.MaxQuestions != 8 {
		t.Errorf("database = %+v generation = %+v", cfg.Database, cfg.Generation)
	}
}

func TestLoadConfigRejectsBadLimits(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("generation:\n  max_questions: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := popquiz.LoadConfig(dir); err == nil {
		t.Error("expected an error for max_questions 0")
	}
}

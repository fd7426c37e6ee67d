package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	yaml := `
llm:
  model: local-model
  templates:
    generate_question: "Ask about {{.topic}}"
remote:
  limits:
    swipes_per_minute: 99
  default_vibe: date
  game_session:
    ttl: 45m
  vibe_check:
    questions:
      - prompt: Cats or dogs?
        options: [cats, dogs]
      - prompt: Beach or mountains?
        options: [beach, mountains]
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Remote.Limits.SwipesPerMinute != 99 {
		t.Fatalf("unexpected swipes/min: %d", cfg.Remote.Limits.SwipesPerMinute)
	}
	if cfg.Remote.DefaultVibe != "date" {
		t.Fatalf("unexpected default vibe: %s", cfg.Remote.DefaultVibe)
	}
	if cfg.Remote.GameSession.TTL.String() != "45m0s" {
		t.Fatalf("unexpected game session ttl: %s", cfg.Remote.GameSession.TTL)
	}
	questions := cfg.Remote.VibeCheck.Questions
	if len(questions) != 2 || questions[1].Options[1] != "mountains" {
		t.Fatalf("unexpected vibe check questions: %+v", questions)
	}
	if cfg.LLM.Model != "local-model" || cfg.LLM.Templates.GenerateQuestion != "Ask about {{.topic}}" {
		t.Fatalf("unexpected llm config: %+v", cfg.LLM)
	}

	if cfg.Remote.Limits.SwipesPerDay != 500 {
		t.Fatalf("swipes_per_day default should stay 500")
	}
	if cfg.Remote.Media.GalleryLimit != 6 {
		t.Fatalf("gallery_limit default should stay 6")
	}
	if cfg.LLM.Timeout.String() != "15s" {
		t.Fatalf("llm timeout default should stay 15s")
	}
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config with missing file: %v", err)
	}

	if len(cfg.Remote.VibeCheck.Questions) != 3 {
		t.Fatalf("unexpected default question count: %d", len(cfg.Remote.VibeCheck.Questions))
	}
	if cfg.Remote.GameSession.TTL.String() != "6h0m0s" {
		t.Fatalf("unexpected default game session ttl: %s", cfg.Remote.GameSession.TTL)
	}
	if cfg.Remote.DefaultVibe != "friends" {
		t.Fatalf("unexpected default vibe: %s", cfg.Remote.DefaultVibe)
	}
	if cfg.Jobs.CleanupInterval.String() != "15m0s" {
		t.Fatalf("unexpected cleanup interval: %s", cfg.Jobs.CleanupInterval)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://bondly.app, https://admin.bondly.app,")
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("GAME_SESSION_TTL", "2h")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://admin.bondly.app" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.LLM.APIKey != "sk-test" || cfg.Remote.GameSession.TTL.String() != "2h0m0s" {
		t.Fatalf("unexpected env overrides: %+v", cfg)
	}

	t.Setenv("JOBS_CLEANUP_INTERVAL", "soon")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected invalid duration error")
	}
}

func TestLoadRejectsDefaultJWTSecretInProduction(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("APP_ENV", "prod")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error when auth.jwt_secret keeps its default in production")
	}

	t.Setenv("JWT_SECRET", "a-real-secret")
	if _, err := Load(""); err != nil {
		t.Fatalf("load with secret: %v", err)
	}
}

func TestLoadRejectsBrokenVibeCheckQuestions(t *testing.T) {
	clearConfigEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
remote:
  vibe_check:
    questions:
      - prompt: Same?
        options: [yes, yes]
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error for duplicate options")
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV",
		"HTTP_ADDR",
		"HTTP_READ_TIMEOUT",
		"HTTP_WRITE_TIMEOUT",
		"HTTP_IDLE_TIMEOUT",
		"LOG_LEVEL",
		"POSTGRES_DSN",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"S3_ENDPOINT",
		"S3_ACCESS_KEY",
		"S3_SECRET_KEY",
		"S3_BUCKET",
		"S3_USE_SSL",
		"S3_PUBLIC_BASE_URL",
		"JWT_SECRET",
		"JWT_ACCESS_TTL",
		"REFRESH_TTL",
		"LLM_BASE_URL",
		"LLM_API_KEY",
		"LLM_MODEL",
		"LLM_TIMEOUT",
		"CORS_ALLOWED_ORIGINS",
		"JOBS_CLEANUP_INTERVAL",
		"GAME_SESSION_TTL",
	} {
		t.Setenv(key, "")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"HTTP_PORT", "DATABASE_URL", "REDIS_URL", "REPORT_QUEUE_KEY",
		"PROVIDER_API_KEY", "PROVIDER_BASE_URL", "EMBEDDING_MODEL",
		"CHAT_MODEL", "PROVIDER_TIMEOUT_SECONDS", "SLACK_BOT_TOKEN",
		"SLACK_CHANNEL", "TRIAGE_POLICY_FILE",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPPort != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.HTTPPort)
	}
	if cfg.DatabaseURL == "" {
		t.Error("expected a default database URL")
	}
	if cfg.EmbeddingModel != "text-embedding-3-small" {
		t.Errorf("unexpected default embedding model: %s", cfg.EmbeddingModel)
	}
	if cfg.ChatModel != "gpt-4o-mini" {
		t.Errorf("unexpected default chat model: %s", cfg.ChatModel)
	}
	if cfg.ProviderTimeout != 30*time.Second {
		t.Errorf("unexpected default provider timeout: %s", cfg.ProviderTimeout)
	}
	if cfg.ReportQueueKey != "triagehub:report_jobs" {
		t.Errorf("unexpected default queue key: %s", cfg.ReportQueueKey)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://test:test@db:5432/test")
	t.Setenv("PROVIDER_API_KEY", "sk-test")
	t.Setenv("PROVIDER_TIMEOUT_SECONDS", "5")
	t.Setenv("TRIAGE_POLICY_FILE", "/etc/triagehub/policy.yaml")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPPort != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTPPort)
	}
	if cfg.DatabaseURL != "postgres://test:test@db:5432/test" {
		t.Errorf("unexpected database URL: %s", cfg.DatabaseURL)
	}
	if cfg.ProviderAPIKey != "sk-test" {
		t.Errorf("unexpected API key: %s", cfg.ProviderAPIKey)
	}
	if cfg.ProviderTimeout != 5*time.Second {
		t.Errorf("unexpected timeout: %s", cfg.ProviderTimeout)
	}
	if cfg.PolicyPath != "/etc/triagehub/policy.yaml" {
		t.Errorf("unexpected policy path: %s", cfg.PolicyPath)
	}
}

func TestLoadInvalidPortFallsBack(t *testing.T) {
	t.Setenv("HTTP_PORT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPPort != 8080 {
		t.Errorf("expected fallback to 8080, got %d", cfg.HTTPPort)
	}
}

func TestLoadPolicyEmptyPath(t *testing.T) {
	policy, err := LoadPolicy("")
	if err != nil {
		t.Fatalf("an unset policy path must not be an error: %v", err)
	}
	if policy.CandidatePoolSize != 0 || len(policy.Taxonomy) != 0 {
		t.Errorf("expected an empty policy, got %+v", policy)
	}
}

func TestLoadPolicyFile(t *testing.T) {
	content := `
candidate_pool_size: 50
match_threshold: 0.4
auto_report_member_threshold: 20
taxonomy:
  equipment:
    - treadmill
    - kiosk
brands:
  - brand_id: hapana
    name: Hapana
locations:
  - location_id: gym-001
    brand_id: hapana
    name: Downtown Gym
    total_members: 450
`
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write policy file: %v", err)
	}

	policy, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if policy.CandidatePoolSize != 50 {
		t.Errorf("expected pool size 50, got %d", policy.CandidatePoolSize)
	}
	if policy.MatchThreshold != 0.4 {
		t.Errorf("expected threshold 0.4, got %f", policy.MatchThreshold)
	}
	if len(policy.Taxonomy["equipment"]) != 2 {
		t.Errorf("unexpected taxonomy: %+v", policy.Taxonomy)
	}
	if len(policy.Brands) != 1 || policy.Brands[0].BrandID != "hapana" {
		t.Errorf("unexpected brands: %+v", policy.Brands)
	}
	if len(policy.Locations) != 1 || policy.Locations[0].TotalMembers != 450 {
		t.Errorf("unexpected locations: %+v", policy.Locations)
	}
}

func TestLoadPolicyMissingFile(t *testing.T) {
	if _, err := LoadPolicy(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected an error for a missing policy file")
	}
}

func TestLoadPolicyInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte("candidate_pool_size: [not an int"), 0o600); err != nil {
		t.Fatalf("failed to write policy file: %v", err)
	}
	if _, err := LoadPolicy(path); err == nil {
		t.Fatal("expected a parse error")
	}
}

package config

import "testing"

func TestLoadEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("ANTHROPIC_BASE_URL", "https://proxy.example.com")
	t.Setenv("ANTHROPIC_MODEL", "claude-3-5-haiku-20241022")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GEMINI_API_KEY", "g-test")
	t.Setenv("BEDROCK_MODEL_ID", "anthropic.claude-3-5-sonnet-20241022-v2:0")
	t.Setenv("BEDROCK_ENDPOINT_URL", "http://localhost:4566")

	env := LoadEnv()
	if env.Anthropic.APIKey != "sk-ant-test" {
		t.Errorf("Anthropic key not read: %q", env.Anthropic.APIKey)
	}
	if env.Anthropic.BaseURL != "https://proxy.example.com" {
		t.Errorf("Anthropic base URL not read: %q", env.Anthropic.BaseURL)
	}
	if env.Anthropic.Model != "claude-3-5-haiku-20241022" {
		t.Errorf("Anthropic model override not read: %q", env.Anthropic.Model)
	}
	if env.OpenAI.APIKey != "sk-test" || env.Gemini.APIKey != "g-test" {
		t.Errorf("Provider keys not read: %+v", env)
	}
	if env.Bedrock.Model != "anthropic.claude-3-5-sonnet-20241022-v2:0" {
		t.Errorf("Bedrock model id not read: %q", env.Bedrock.Model)
	}
	if env.Bedrock.BaseURL != "http://localhost:4566" {
		t.Errorf("Bedrock endpoint not read: %q", env.Bedrock.BaseURL)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults("/work/project")

	if cfg.ProjectRoot != "/work/project" {
		t.Errorf("ProjectRoot default wrong: %q", cfg.ProjectRoot)
	}
	if cfg.MaxIterations != 50 {
		t.Errorf("MaxIterations default wrong: %d", cfg.MaxIterations)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr default wrong: %q", cfg.ListenAddr)
	}
	if cfg.DatabasePath == "" {
		t.Error("DatabasePath default missing")
	}

	// Explicit values survive.
	cfg = &Config{MaxIterations: 10, ListenAddr: ":9999"}
	cfg.applyDefaults("/elsewhere")
	if cfg.MaxIterations != 10 || cfg.ListenAddr != ":9999" {
		t.Errorf("Explicit values overwritten: %+v", cfg)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithRequiredKeys(t *testing.T) {
	isolate(t)
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("REPLICATE_API_TOKEN", "r8-token")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":3000", cfg.HTTP.Address)
	require.Equal(t, ProviderGemini, cfg.LLM.Provider)
	require.Equal(t, "gemini-2.5-pro", cfg.LLM.Model)
	require.Equal(t, "google/nano-banana", cfg.ImageEdit.Model)
	require.Equal(t, "uploads", cfg.Upload.Dir)
	require.Equal(t, 120*time.Second, cfg.Stages.EditTimeout)
	require.False(t, cfg.HTTP.RateLimit.Enabled)
}

func TestLoadRequiresAPIKeys(t *testing.T) {
	isolate(t)
	_, err := Load()
	require.ErrorContains(t, err, "GEMINI_API_KEY")

	t.Setenv("GEMINI_API_KEY", "g-key")
	_, err = Load()
	require.ErrorContains(t, err, "REPLICATE_API_TOKEN")
}

func TestLoadReadsDotEnvWithoutOverridingEnvironment(t *testing.T) {
	dir := isolate(t)
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("GEMINI_API_KEY=from-file\nREPLICATE_API_TOKEN=r8-file\nPORT=4000\n"), 0o600))
	t.Setenv("ENV_FILE", envFile)
	t.Setenv("REPLICATE_API_TOKEN", "r8-env")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "from-file", cfg.LLM.GeminiAPIKey)
	require.Equal(t, "r8-env", cfg.ImageEdit.ReplicateToken)
	require.Equal(t, ":4000", cfg.HTTP.Address)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: openai
  apiKey: sk-file
  model: gpt-4o-mini
upload:
  backend: memory
stages:
  editTimeout: 45s
`), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("REPLICATE_API_TOKEN", "r8-token")
	t.Setenv("LLM_MODEL", "gpt-4.1")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	require.Equal(t, "sk-file", cfg.LLM.APIKey)
	require.Equal(t, "gpt-4.1", cfg.LLM.Model)
	require.Equal(t, "memory", cfg.Upload.Backend)
	require.Equal(t, 45*time.Second, cfg.Stages.EditTimeout)
}

func TestVercelUsesTempDir(t *testing.T) {
	isolate(t)
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("REPLICATE_API_TOKEN", "r8-token")
	t.Setenv("VERCEL", "1")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, os.TempDir(), cfg.Upload.Dir)
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := defaultConfig()
	cfg.LLM.GeminiAPIKey = "g"
	cfg.ImageEdit.ReplicateToken = "r"
	require.NoError(t, cfg.Validate())

	cfg.Upload.Backend = "ftp"
	require.Error(t, cfg.Validate())

	cfg.Upload.Backend = "s3"
	require.Error(t, cfg.Validate())
}

func TestLoadPicksDefaultModelPerProvider(t *testing.T) {
	isolate(t)
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("REPLICATE_API_TOKEN", "r8-token")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
}

func TestValidateRequiresWriteTimeoutAboveEditTimeout(t *testing.T) {
	cfg := defaultConfig()
	cfg.LLM.GeminiAPIKey = "g"
	cfg.ImageEdit.ReplicateToken = "r"

	cfg.Stages.EditTimeout = 300 * time.Second
	require.ErrorContains(t, cfg.Validate(), "http.writeTimeout")

	cfg.HTTP.WriteTimeout = 310 * time.Second
	require.NoError(t, cfg.Validate())

	cfg.HTTP.WriteTimeout = 0
	require.NoError(t, cfg.Validate())
}

func TestLoadRejectsEditTimeoutBeyondWriteTimeout(t *testing.T) {
	isolate(t)
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("REPLICATE_API_TOKEN", "r8-token")
	t.Setenv("STAGE_EDIT_TIMEOUT", "300s")

	_, err := Load()
	require.ErrorContains(t, err, "http.writeTimeout")

	t.Setenv("HTTP_WRITE_TIMEOUT", "320s")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 320*time.Second, cfg.HTTP.WriteTimeout)
}

// isolate runs the test from an empty directory with the service variables
// cleared so a developer's shell or .env cannot leak in.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, key := range []string{"CONFIG_PATH", "ENV_FILE", "GEMINI_API_KEY", "REPLICATE_API_TOKEN", "PORT", "HTTP_ADDRESS", "VERCEL", "LLM_PROVIDER", "LLM_MODEL", "LLM_API_KEY", "UPLOAD_BACKEND", "UPLOAD_DIR", "STAGE_EDIT_TIMEOUT", "HTTP_WRITE_TIMEOUT"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	return dir
}

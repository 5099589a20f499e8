package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetFlags(t *testing.T) {
	t.Cleanup(func() {
		configPath, token, deployment, since, output, apiURL, summaryDir = "", "", "", "", "", "", ""
	})
	for _, key := range []string{
		"SEMGREP_API_TOKEN",
		"SEMGREP_DEPLOYMENT_SLUG",
		"SEMGREP_START_DATE",
		"SEMGREP_API_URL",
		"FINDINGS_OUTPUT",
		"OUTPUT_DIR",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigFlagsOverrideEnv(t *testing.T) {
	resetFlags(t)
	t.Setenv("SEMGREP_API_TOKEN", "env-token")
	t.Setenv("SEMGREP_DEPLOYMENT_SLUG", "env-slug")

	token = "flag-token"
	since = "2024-01-01"

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "flag-token", cfg.Semgrep.Token)
	assert.Equal(t, "env-slug", cfg.Semgrep.DeploymentSlug)
	assert.Equal(t, "2024-01-01", cfg.Semgrep.StartDate)
	assert.Equal(t, "findings.json", cfg.Output.File)
}

func TestLoadConfigOutputDir(t *testing.T) {
	tests := []struct {
		name string
		env  string
		flag string
		want string
	}{
		{name: "default", want: "reports"},
		{name: "env", env: "env-reports", want: "env-reports"},
		{name: "flag over env", env: "env-reports", flag: "flag-reports", want: "flag-reports"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags(t)
			t.Setenv("OUTPUT_DIR", tt.env)
			summaryDir = tt.flag

			cfg, err := loadConfig()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Output.Directory)
		})
	}
}

func TestLoadConfigBadFile(t *testing.T) {
	resetFlags(t)
	configPath = "does-not-exist.yaml"

	_, err := loadConfig()
	assert.Error(t, err)
}

func TestCountEnabled(t *testing.T) {
	assert.Equal(t, 0, countEnabled())
	assert.Equal(t, 2, countEnabled(true, false, true))
}

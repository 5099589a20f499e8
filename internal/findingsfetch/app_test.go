package findingsfetch

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Afrawles/findingsfetch/internal/config"
	"github.com/Afrawles/findingsfetch/internal/findings"
)

const apiBody = `{"findings":[{"id":1,"rule_name":"r1","severity":"high","repository":{"name":"acme/api"}},{"id":2,"rule_name":"r2","severity":"low","repository":{"name":"acme/web"}}]}`

func TestFetchThenSummarize(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(apiBody))
	}))
	defer ts.Close()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Semgrep.Token = "token"
	cfg.Semgrep.DeploymentSlug = "acme"
	cfg.Semgrep.APIURL = ts.URL
	cfg.Output.File = filepath.Join(dir, "findings.json")

	var out, logs bytes.Buffer
	app := New(cfg, &out, &logs, slog.LevelDebug)

	res := app.FetchFindings(context.Background())
	require.Equal(t, findings.OutcomeWritten, res.Outcome)
	assert.Contains(t, logs.String(), `"outcome":"written"`)

	progressCalls := 0
	written, err := app.Summarize(context.Background(), SummaryOptions{
		Input:     cfg.Output.File,
		OutputDir: filepath.Join(dir, "reports"),
		CSV:       true,
		Excel:     true,
		HTML:      true,
		Progress:  func() { progressCalls++ },
	})
	require.NoError(t, err)

	// summary json + two csv + xlsx + html
	assert.Len(t, written, 5)
	assert.Equal(t, 3, progressCalls)
	for _, path := range written {
		assert.FileExists(t, path)
	}

	assert.Contains(t, out.String(), "Total findings: 2")
	assert.Contains(t, out.String(), "Highest severity: HIGH")
}

func TestSummarizeSummaryOnly(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "findings.json")
	require.NoError(t, os.WriteFile(input, []byte(apiBody), 0644))

	var out bytes.Buffer
	app := New(config.Default(), &out, &bytes.Buffer{}, slog.LevelInfo)

	written, err := app.Summarize(context.Background(), SummaryOptions{Input: input, OutputDir: dir})
	require.NoError(t, err)
	require.Len(t, written, 1)
	assert.True(t, strings.HasSuffix(written[0], "_summary.json"))
}

func TestSummarizeMissingInput(t *testing.T) {
	app := New(config.Default(), &bytes.Buffer{}, &bytes.Buffer{}, slog.LevelInfo)

	_, err := app.Summarize(context.Background(), SummaryOptions{
		Input:     filepath.Join(t.TempDir(), "missing.json"),
		OutputDir: t.TempDir(),
	})
	assert.Error(t, err)
}

func TestSummarizeCanceled(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "findings.json")
	require.NoError(t, os.WriteFile(input, []byte(apiBody), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	app := New(config.Default(), &bytes.Buffer{}, &bytes.Buffer{}, slog.LevelInfo)
	_, err := app.Summarize(ctx, SummaryOptions{Input: input, OutputDir: dir, CSV: true})
	assert.ErrorIs(t, err, context.Canceled)
}

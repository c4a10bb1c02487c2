package build

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitestager/internal/config"
)

func testConfig(t *testing.T, htmlFiles, assetDirs []string) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{
		Source: filepath.Join(root, "src"),
		Output: config.OutputConfig{Directory: filepath.Join(root, "dist")},
		Site:   config.SiteConfig{HTMLFiles: htmlFiles, AssetDirs: assetDirs},
	}
	require.NoError(t, os.MkdirAll(cfg.Source, 0o755))
	return cfg
}

func writeSource(t *testing.T, cfg *config.Config, rel string, size int) {
	t.Helper()
	path := filepath.Join(cfg.Source, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("x"), size), 0o644))
}

func TestBuildEndToEnd(t *testing.T) {
	cfg := testConfig(t, []string{"index.html"}, []string{"css"})
	writeSource(t, cfg, "index.html", 100)
	writeSource(t, cfg, "css/style.css", 50)

	var summary bytes.Buffer
	b := New(cfg, WithSummaryWriter(&summary))
	status := b.Run(context.Background())

	assert.Equal(t, 0, status)

	report := b.Report()
	require.NotNil(t, report)
	assert.Equal(t, 2, report.FilesProcessed)
	assert.Equal(t, int64(150), report.TotalSize)
	assert.Empty(t, report.Errors)
	assert.Equal(t, OutcomeSuccess, report.Outcome)

	for rel, size := range map[string]int{"index.html": 100, "css/style.css": 50} {
		fi, err := os.Stat(filepath.Join(cfg.Output.Directory, filepath.FromSlash(rel)))
		require.NoError(t, err, rel)
		assert.Equal(t, int64(size), fi.Size(), rel)
	}

	// Report persisted alongside the staged site.
	_, err := os.Stat(filepath.Join(cfg.Output.Directory, "build-report.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(cfg.Output.Directory, "build-report.txt"))
	assert.NoError(t, err)

	assert.Contains(t, summary.String(), "index.html")
	assert.Contains(t, summary.String(), "150 Bytes")
}

func TestBuildZeroFilesFails(t *testing.T) {
	cfg := testConfig(t, []string{"index.html"}, []string{"css", "js"})

	b := New(cfg, WithSummaryWriter(&bytes.Buffer{}))
	status := b.Run(context.Background())

	assert.Equal(t, 1, status)
	report := b.Report()
	assert.Empty(t, report.Errors)
	assert.Equal(t, OutcomeFailed, report.Outcome)
	// One warning per missing HTML file and asset directory.
	assert.Len(t, report.Warnings, 3)
}

func TestBuildRecordedErrorForcesFailure(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}
	cfg := testConfig(t, []string{"index.html"}, []string{"js"})
	writeSource(t, cfg, "index.html", 10)
	writeSource(t, cfg, "js/app.js", 20)
	writeSource(t, cfg, "js/broken.js", 5)
	require.NoError(t, os.Chmod(filepath.Join(cfg.Source, "js", "broken.js"), 0o000))

	b := New(cfg, WithSummaryWriter(&bytes.Buffer{}))
	status := b.Run(context.Background())

	assert.Equal(t, 1, status)
	report := b.Report()
	assert.Equal(t, 2, report.FilesProcessed)
	assert.Len(t, report.Errors, 1)
	assert.Equal(t, OutcomeFailed, report.Outcome)
}

func TestBuildWipesStaleOutput(t *testing.T) {
	cfg := testConfig(t, []string{"index.html"}, nil)
	writeSource(t, cfg, "index.html", 10)
	stale := filepath.Join(cfg.Output.Directory, "stale.html")
	require.NoError(t, os.MkdirAll(cfg.Output.Directory, 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	b := New(cfg, WithSummaryWriter(&bytes.Buffer{}))
	status := b.Run(context.Background())

	assert.Equal(t, 0, status)
	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
}

func TestBuildCleanFailureAborts(t *testing.T) {
	cfg := testConfig(t, []string{"index.html"}, []string{"css"})
	writeSource(t, cfg, "index.html", 10)

	// Point the output root below a regular file so both stat and removal fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	cfg.Output.Directory = filepath.Join(blocker, "dist")

	b := New(cfg, WithSummaryWriter(&bytes.Buffer{}))
	status := b.Run(context.Background())

	assert.Equal(t, 1, status)
	report := b.Report()
	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.NotEmpty(t, report.Errors)
	// Nothing past the aborting stage ran.
	assert.Equal(t, 0, report.FilesProcessed)
	assert.NotContains(t, report.StageDurations, string(StageCopyHTML))
}

func TestBuildCanceledContext(t *testing.T) {
	cfg := testConfig(t, []string{"index.html"}, nil)
	writeSource(t, cfg, "index.html", 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := New(cfg, WithSummaryWriter(&bytes.Buffer{}))
	status := b.Run(ctx)

	assert.Equal(t, 1, status)
	assert.Equal(t, 0, b.Report().FilesProcessed)
}

func TestBuildSummaryEnumeratesProblems(t *testing.T) {
	cfg := testConfig(t, []string{"index.html", "missing.html"}, []string{"fonts"})
	writeSource(t, cfg, "index.html", 10)

	var summary bytes.Buffer
	b := New(cfg, WithSummaryWriter(&summary))
	status := b.Run(context.Background())

	assert.Equal(t, 0, status)
	out := summary.String()
	assert.Contains(t, out, "Warnings:")
	assert.Contains(t, out, "1. ")
	assert.True(t, strings.Contains(out, "missing.html") && strings.Contains(out, "fonts"))
}

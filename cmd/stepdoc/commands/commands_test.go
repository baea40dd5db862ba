package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livetemplate/stepdoc"
	"github.com/livetemplate/stepdoc/pkg/export"
)

// setupProject writes a config using a SQLite database in a temp dir and a sample
// document export.
func setupProject(t *testing.T) (configPath, docPath string) {
	t.Helper()
	dir := t.TempDir()

	configPath = filepath.Join(dir, "stepdoc.yaml")
	configContent := "title: Test\nstorage:\n  driver: sqlite\n  dsn: " + filepath.Join(dir, "docs.db") + "\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	doc := stepdoc.NewDocument("Getting started", "First steps")
	doc, g, err := doc.CreateGroup("g1", "Install")
	require.NoError(t, err)
	code, err := stepdoc.NewStep("s1", stepdoc.StepCode, stepdoc.StepInit{Content: "<script>alert(1)</script>", Language: "html"})
	require.NoError(t, err)
	doc, _, err = doc.AddStep(code, stepdoc.InGroup(g.ID))
	require.NoError(t, err)
	text, err := stepdoc.NewStep("u1", stepdoc.StepText, stepdoc.StepInit{Title: "Wrap up", Content: "All done"})
	require.NoError(t, err)
	doc, _, err = doc.AddStep(text, stepdoc.Ungrouped)
	require.NoError(t, err)

	data, err := export.JSON(doc, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	docPath = filepath.Join(dir, "guide.json")
	require.NoError(t, os.WriteFile(docPath, []byte(data), 0644))
	return configPath, docPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := Root("test")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	cfg, _ := setupProject(t)
	out, err := run(t, "--config", cfg, "version")
	require.NoError(t, err)
	assert.Equal(t, "stepdoc version test\n", out)
}

func TestExportHTML(t *testing.T) {
	cfg, doc := setupProject(t)

	out, err := run(t, "--config", cfg, "export", doc, "--theme", "dark")
	require.NoError(t, err)
	assert.Contains(t, out, "&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.Contains(t, out, export.ThemeDark.Background)
	assert.Contains(t, out, "Wrap up")
}

func TestExportMarkdownToFile(t *testing.T) {
	cfg, doc := setupProject(t)
	target := filepath.Join(t.TempDir(), "guide.md")

	out, err := run(t, "--config", cfg, "export", doc, "--format", "md", "-o", target)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	md := string(data)
	assert.True(t, strings.HasPrefix(md, "# Getting started\n"))
	assert.Contains(t, md, "## Step 1\n")
	assert.Contains(t, md, "## Step 2: Wrap up\n")
}

func TestExportUnknownFormat(t *testing.T) {
	cfg, doc := setupProject(t)
	_, err := run(t, "--config", cfg, "export", doc, "--format", "pdf")
	require.Error(t, err)
	assert.True(t, stepdoc.IsValidation(err))
}

func TestExportWatchNeedsOutput(t *testing.T) {
	cfg, doc := setupProject(t)
	_, err := run(t, "--config", cfg, "export", doc, "--watch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-o")
}

func TestExportRejectsBrokenJSON(t *testing.T) {
	cfg, _ := setupProject(t)
	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"title":"x"}`), 0644))

	_, err := run(t, "--config", cfg, "export", bad)
	require.Error(t, err)
	assert.True(t, stepdoc.IsSerialization(err))
}

func TestImportMarkdown(t *testing.T) {
	cfg, _ := setupProject(t)
	src := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(src, []byte("# Notes\n\nIntro\n\n## Step 1: Build\n\n```go\nfmt.Println(1)\n```\n\n## Step 2\n\nThanks\n"), 0644))

	out, err := run(t, "--config", cfg, "import", src)
	require.NoError(t, err)

	doc, err := export.ImportJSON([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "Notes", doc.Title)
	assert.Equal(t, "Intro", doc.Description)
	require.Len(t, doc.Steps, 2)
	assert.Equal(t, stepdoc.StepCode, doc.Steps[0].Type)
	assert.Equal(t, "Build", doc.Steps[0].Title)
	assert.Equal(t, "go", doc.Steps[0].Language)
	assert.Equal(t, "Thanks", doc.Steps[1].Content)
}

func TestConfigFillsMissingTitleAndDescription(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "stepdoc.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("title: Team runbook\ndescription: Shared steps\nlog:\n  level: error\n"), 0644))

	bare := filepath.Join(dir, "bare.md")
	require.NoError(t, os.WriteFile(bare, []byte("## Step 1\n\nDo it\n"), 0644))

	out, err := run(t, "--config", cfgPath, "import", bare)
	require.NoError(t, err)
	doc, err := export.ImportJSON([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "Team runbook", doc.Title)
	assert.Equal(t, "Shared steps", doc.Description)

	titled := filepath.Join(dir, "titled.md")
	require.NoError(t, os.WriteFile(titled, []byte("# Own title\n\nOwn intro\n\n## Step 1\n\nDo it\n"), 0644))

	out, err = run(t, "--config", cfgPath, "export", titled, "--format", "md")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# Own title\n\nOwn intro\n"), out)
	assert.NotContains(t, out, "Team runbook")

	noConfig := filepath.Join(dir, "missing.yaml")
	out, err = run(t, "--config", noConfig, "export", bare, "--format", "md")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# Untitled document\n"), out)
}

func TestSaveListLoadDelete(t *testing.T) {
	cfg, doc := setupProject(t)

	out, err := run(t, "--config", cfg, "list")
	require.NoError(t, err)
	assert.Equal(t, "no documents stored\n", out)

	out, err = run(t, "--config", cfg, "save", doc)
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	out, err = run(t, "--config", cfg, "list")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "Getting started")

	out, err = run(t, "--config", cfg, "load", id)
	require.NoError(t, err)
	loaded, err := export.ImportJSON([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "u1"}, loaded.StepIDs())

	// Saving under the same id replaces the record
	out, err = run(t, "--config", cfg, "save", doc, "--id", id)
	require.NoError(t, err)
	assert.Equal(t, id, strings.TrimSpace(out))

	out, err = run(t, "--config", cfg, "delete", id)
	require.NoError(t, err)
	assert.Equal(t, "deleted "+id+"\n", out)

	_, err = run(t, "--config", cfg, "load", id)
	require.Error(t, err)
	assert.True(t, stepdoc.IsNotFound(err))
}

func TestSaveUnknownID(t *testing.T) {
	cfg, doc := setupProject(t)
	_, err := run(t, "--config", cfg, "save", doc, "--id", "missing")
	require.Error(t, err)
	assert.True(t, stepdoc.IsNotFound(err))
}

func TestInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stepdoc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("export:\n  theme: neon\n"), 0644))

	_, err := run(t, "--config", path, "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export.theme")
}

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kiln/internal/testutil"
)

const testRules = `
rules: [
	{pattern: "/*.html", steps: [
		{filter: "template"},
		{layout: "/default.html"},
		{write: ""},
	]},
	{pattern: "/**", steps: [{write: ""}]},
]
`

// testSite writes a small site with a kiln.yaml and returns the config path
// and the local deploy root.
func testSite(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	deployRoot := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{
		"content/index.html":   "---\ntitle: Home\n---\nwelcome",
		"content/about.html":   "---\ntitle: About\n---\nabout us",
		"content/style.css":    "body{}",
		"layouts/default.html": "<h1>{{ .item.title }}</h1>{{ .content }}",
		"rules.cue":            testRules,
		"kiln.yaml": "snapshots:\n  backend: badger\n  path: tmp/snapshots\n" +
			"deploy:\n  public:\n    kind: local\n    bucket: site\n    path: www\n    local_root: " + deployRoot + "\n",
	})
	return filepath.Join(root, "kiln.yaml"), deployRoot
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, opts *RootOptions, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand(opts)
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func staticOpts() *RootOptions {
	return &RootOptions{RunIDs: testutil.NewStaticRunID("run-1")}
}

// ============================================================================
// compile
// ============================================================================

func TestCompile_Text(t *testing.T) {
	cfgPath, _ := testSite(t)

	out, _, err := execute(t, staticOpts(), "--config", cfgPath, "compile")
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled 3 of 3 rep(s), wrote 3 file(s) (run run-1)")
	assert.Contains(t, out, "/about/index.html")
	assert.Contains(t, out, "/style.css")

	html := testutil.ReadFile(t, filepath.Join(filepath.Dir(cfgPath), "output"), "about/index.html")
	assert.Equal(t, "<h1>About</h1>about us", html)
}

func TestCompile_JSON(t *testing.T) {
	cfgPath, _ := testSite(t)

	out, _, err := execute(t, staticOpts(), "--format", "json", "--config", cfgPath, "compile")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			RunID    string   `json:"run_id"`
			Reps     int      `json:"reps"`
			Written  []string `json:"written"`
			Compiled []struct {
				Item string `json:"item"`
			} `json:"compiled"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "run-1", resp.Data.RunID)
	assert.Equal(t, 3, resp.Data.Reps)
	assert.Len(t, resp.Data.Compiled, 3)
	assert.ElementsMatch(t, []string{"/index.html", "/about/index.html", "/style.css"}, resp.Data.Written)
}

func TestCompile_Timing(t *testing.T) {
	cfgPath, _ := testSite(t)

	out, _, err := execute(t, staticOpts(), "--config", cfgPath, "compile", "--timing")
	require.NoError(t, err)
	assert.Contains(t, out, "stage")
	assert.Contains(t, out, "filter")
	assert.Contains(t, out, "template")
}

func TestCompile_SecondRunCompilesNothing(t *testing.T) {
	cfgPath, _ := testSite(t)

	_, _, err := execute(t, &RootOptions{}, "--config", cfgPath, "compile")
	require.NoError(t, err)

	out, _, err := execute(t, &RootOptions{}, "--config", cfgPath, "compile")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Compiled 0 of 3 rep(s), wrote 0 file(s)")
}

func TestCompile_MissingConfig(t *testing.T) {
	_, stderr, err := execute(t, &RootOptions{}, "--config", filepath.Join(t.TempDir(), "kiln.yaml"), "compile")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, "Error ["+ErrCodeConfig+"]")
}

func TestCompile_FailureExitCode(t *testing.T) {
	cfgPath, _ := testSite(t)
	testutil.WriteFiles(t, filepath.Dir(cfgPath), map[string]string{
		"content/index.html": "{{ compiled \"/missing.html\" }}",
	})

	out, _, err := execute(t, &RootOptions{Format: "json"}, "--format", "json", "--config", cfgPath, "compile")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeCompile, resp.Error.Code)
}

// ============================================================================
// outdated
// ============================================================================

func TestOutdated(t *testing.T) {
	cfgPath, _ := testSite(t)

	out, _, err := execute(t, &RootOptions{}, "--config", cfgPath, "outdated")
	require.NoError(t, err)
	assert.Contains(t, out, "3 outdated rep(s)")
	assert.Contains(t, out, "NotEnoughData")

	_, _, err = execute(t, &RootOptions{}, "--config", cfgPath, "compile")
	require.NoError(t, err)

	out, _, err = execute(t, &RootOptions{}, "--config", cfgPath, "outdated")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Nothing to compile")

	testutil.WriteFiles(t, filepath.Dir(cfgPath), map[string]string{"content/style.css": "body{color:red}"})
	out, _, err = execute(t, &RootOptions{}, "--format", "json", "--config", cfgPath, "outdated")
	require.NoError(t, err)

	var resp struct {
		Data []OutdatedRep `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "ContentModified", string(resp.Data[0].Reason))
}

// ============================================================================
// check
// ============================================================================

func TestCheck_Clean(t *testing.T) {
	cfgPath, _ := testSite(t)

	out, _, err := execute(t, &RootOptions{}, "--config", cfgPath, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ No issues found")
}

func TestCheck_ReportsIssues(t *testing.T) {
	cfgPath, _ := testSite(t)
	testutil.WriteFiles(t, filepath.Dir(cfgPath), map[string]string{
		"output/orphan.txt": "left behind",
	})

	out, _, err := execute(t, &RootOptions{}, "--config", cfgPath, "check")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ 1 issue(s) found")
	assert.Contains(t, out, "stale_output: /orphan.txt")
}

// ============================================================================
// deploy
// ============================================================================

func TestDeploy_LocalTarget(t *testing.T) {
	cfgPath, deployRoot := testSite(t)

	_, _, err := execute(t, &RootOptions{}, "--config", cfgPath, "compile")
	require.NoError(t, err)

	out, _, err := execute(t, &RootOptions{}, "--config", cfgPath, "deploy", "public", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Would deploy to public: 3 upload(s), 0 delete(s)")
	assert.Contains(t, out, "upload www/about/index.html")
	_, statErr := os.Stat(filepath.Join(deployRoot, "site", "www", "index.html"))
	assert.True(t, os.IsNotExist(statErr), "dry run must not upload")

	out, _, err = execute(t, &RootOptions{}, "--config", cfgPath, "deploy", "public")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Deployed to public: 3 upload(s), 0 delete(s)")
	assert.Equal(t, "<h1>Home</h1>welcome", testutil.ReadFile(t, filepath.Join(deployRoot, "site"), "www/index.html"))
}

func TestDeploy_UnknownTarget(t *testing.T) {
	cfgPath, _ := testSite(t)

	_, stderr, err := execute(t, &RootOptions{}, "--config", cfgPath, "deploy", "nowhere")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, "no deploy target \"nowhere\" (have public)")
}

// ============================================================================
// runs
// ============================================================================

func TestRuns(t *testing.T) {
	cfgPath, _ := testSite(t)

	out, _, err := execute(t, &RootOptions{}, "--config", cfgPath, "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded")

	_, _, err = execute(t, staticOpts(), "--config", cfgPath, "compile")
	require.NoError(t, err)

	out, _, err = execute(t, &RootOptions{}, "--config", cfgPath, "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "3/3 compiled, 3 written")
}

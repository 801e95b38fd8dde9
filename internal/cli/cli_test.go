package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/zkbench/internal/config"
	"github.com/wesleyorama2/zkbench/internal/orchestrator"
	"github.com/wesleyorama2/zkbench/internal/remote"
	"github.com/wesleyorama2/zkbench/internal/remote/remotetest"
)

const experimentYAML = `
registry:
  nodes: {1: zk1, 2: zk2}
  user: bench
  passwordLess: true
  cwd-prefix: /tmp/zkbench/registry
server-containers:
  nodes: {1: sic1}
  user: bench
  passwordLess: true
  cwd-prefix: /tmp/zkbench/sic
client-containers:
  nodes: {1: cic1}
  user: bench
  passwordLess: true
  cwd-prefix: /tmp/zkbench/cic
load-manager:
  host: lm1
  user: bench
  passwordLess: true
  cwd: /tmp/zkbench/lm
artifacts:
  fat-jar: %[1]s/zk-it.jar
  log4j: %[1]s/log4j.properties
experiment:
  resultsDir: %[1]s/results
  stagingDir: %[1]s/staging
  stepDuration: 10s
  headDelay: 30s
  samples: [50, 40]
  matrix:
    mode: nodigest
    requestSizes: [1024]
`

type harness struct {
	dir    string
	config string
	dialer *remotetest.Dialer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "zk-it.jar"), []byte("jar"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "log4j.properties"), []byte("log4j"), 0o644))
	file := filepath.Join(dir, "experiment.yml")
	require.NoError(t, os.WriteFile(file, []byte(fmt.Sprintf(experimentYAML, dir)), 0o644))

	h := &harness{dir: dir, config: file, dialer: remotetest.NewDialer()}

	prevDialer, prevOpts := newDialer, extraOptions
	newDialer = func(config.SSHConfig) remote.Dialer { return h.dialer }
	extraOptions = []orchestrator.Option{
		orchestrator.WithSleeper(func(ctx context.Context, d time.Duration) error { return ctx.Err() }),
	}
	t.Cleanup(func() {
		newDialer, extraOptions = prevDialer, prevOpts
	})
	return h
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--log-file", "", "--no-color"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestRootCmd_Commands(t *testing.T) {
	root := NewRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"run", "cleanup", "profile", "quorum", "validate", "report"} {
		assert.Contains(t, names, want)
	}

	flag := root.PersistentFlags().Lookup("log-file")
	require.NotNil(t, flag)
	assert.Equal(t, "app.log", flag.DefValue)
}

func TestValidateCmd(t *testing.T) {
	h := newHarness(t)

	out, err := execute(t, "validate", "-c", h.config)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")

	bad := filepath.Join(h.dir, "bad.yml")
	require.NoError(t, os.WriteFile(bad, []byte("registry: {unknown: 1}\n"), 0o644))
	_, err = execute(t, "validate", "-c", bad)
	assert.Error(t, err)
}

func TestValidateCmd_RequiresConfig(t *testing.T) {
	_, err := execute(t, "validate")
	assert.Error(t, err)
}

func TestQuorumCmd(t *testing.T) {
	h := newHarness(t)

	out, err := execute(t, "quorum", "-c", h.config)
	require.NoError(t, err)
	assert.Contains(t, out, "server.1=zk1:2888:3888\n")
	assert.Contains(t, out, "server.2=zk2:2888:3888\n")
	assert.Contains(t, out, "clientPort=2181\n")
	assert.Empty(t, h.dialer.Calls())
}

func TestProfileCmd(t *testing.T) {
	h := newHarness(t)

	out, err := execute(t, "profile", "-c", h.config, "--label", "SHA_PD-True_2048KiB")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "sleep 30\nsave /tmp/zkbench/lm/bench.SHA_PD-True_2048KiB\npercentage 50\nsleep 10\n"), out)
	assert.Contains(t, out, "# duration 50s")
	assert.Empty(t, h.dialer.Calls())
}

func TestRunCmd(t *testing.T) {
	h := newHarness(t)
	reportPath := filepath.Join(h.dir, "report.html")

	out, err := execute(t, "run", "-c", h.config, "--report", reportPath)
	require.NoError(t, err)
	assert.Contains(t, out, "NA_1024KiB")
	assert.Contains(t, out, "1 of 1 variants collected")

	_, err = os.Stat(orchestrator.ManifestPath(filepath.Join(h.dir, "results")))
	assert.NoError(t, err)
	html, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "NA_1024KiB")

	assert.NotEmpty(t, h.dialer.CommandsMatching("generateLoad"))
	for _, host := range []string{"zk1", "zk2", "sic1", "cic1", "lm1"} {
		assert.Zero(t, h.dialer.Open(host), host)
	}
}

func TestRunCmd_MatrixOverride(t *testing.T) {
	h := newHarness(t)

	_, err := execute(t, "run", "-c", h.config, "--matrix", "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matrix")
	assert.Empty(t, h.dialer.Calls())
}

func TestRunCmd_ResumeSkipsCollected(t *testing.T) {
	h := newHarness(t)

	_, err := execute(t, "run", "-c", h.config)
	require.NoError(t, err)
	launches := len(h.dialer.CommandsMatching("sic-1"))
	require.NotZero(t, launches)

	out, err := execute(t, "run", "-c", h.config, "--resume")
	require.NoError(t, err)
	assert.Contains(t, out, "already collected")
	assert.Len(t, h.dialer.CommandsMatching("sic-1"), launches, "no server is launched again")
}

func TestCleanupCmd(t *testing.T) {
	h := newHarness(t)

	_, err := execute(t, "cleanup", "-c", h.config)
	require.NoError(t, err)
	assert.NotEmpty(t, h.dialer.CommandsMatching("rm -rf /tmp/zkbench/registry"))
	assert.NotEmpty(t, h.dialer.CommandsMatching("rm -rf /tmp/zkbench/lm"))
}

func TestReportCmd(t *testing.T) {
	h := newHarness(t)
	results := filepath.Join(h.dir, "results")

	_, err := execute(t, "report", "--results", results)
	assert.Error(t, err, "no manifest yet")

	_, err = execute(t, "run", "-c", h.config)
	require.NoError(t, err)

	out := filepath.Join(h.dir, "summary.html")
	_, err = execute(t, "report", "--results", results, "-o", out)
	require.NoError(t, err)
	_, err = os.Stat(out)
	assert.NoError(t, err)
}

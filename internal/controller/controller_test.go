package controller

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/zkbench/internal/config"
	"github.com/wesleyorama2/zkbench/internal/remote"
	"github.com/wesleyorama2/zkbench/internal/remote/remotetest"
)

var fixedNow = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func newController(t *testing.T) (*Controller, *remotetest.Dialer, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	jar := filepath.Join(dir, "zk-it.jar")
	log4j := filepath.Join(dir, "log4j.properties")
	require.NoError(t, os.WriteFile(jar, []byte("jar"), 0o644))
	require.NoError(t, os.WriteFile(log4j, []byte("log4j"), 0o644))

	cfg := &config.Config{
		LoadManager: config.LoadManagerConfig{
			Host:        "lm",
			Credentials: config.Credentials{User: "bench", PasswordLess: true},
			Cwd:         "/tmp/lm",
		},
		Artifacts: config.ArtifactsConfig{FatJar: jar, Log4j: log4j},
	}
	config.ApplyDefaults(cfg)
	cfg.Experiment.StagingDir = filepath.Join(dir, "staging")
	cfg.Experiment.ResultsDir = filepath.Join(dir, "results")

	d := remotetest.NewDialer()
	c := New(cfg, "zk1:2181", remote.NewPool(d), WithClock(func() time.Time { return fixedNow }))
	return c, d, cfg
}

func TestController_Lifecycle(t *testing.T) {
	c, d, cfg := newController(t)
	assert.Equal(t, StateIdle, c.State())

	require.NoError(t, c.Provision())
	assert.Equal(t, StateProvisioned, c.State())
	assert.Equal(t, []string{"mkdir -p /tmp/lm"}, d.Commands("lm"))
	_, ok := d.Uploaded("lm", "/tmp/lm/zk-it.jar")
	assert.True(t, ok)

	dur, err := c.GenerateProfile(10*time.Second, "CRC-32_PD-True_1024KiB", []int{50, 40, 30})
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, dur)

	uploaded, ok := d.Uploaded("lm", "/tmp/lm/load.dat")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(uploaded, "sleep 30\nsave /tmp/lm/bench.CRC-32_PD-True_1024KiB\npercentage 50\n"))
	staged, err := os.ReadFile(filepath.Join(cfg.Experiment.StagingDir, "load.dat"))
	require.NoError(t, err)
	assert.Equal(t, uploaded, string(staged))

	require.NoError(t, c.Start([]string{"-Dzookeeper.digest.enabled=false"}, 3, 9, 1024))
	assert.Equal(t, StateRunning, c.State())

	local, err := c.Collect("NA_1024KiB")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.Experiment.ResultsDir, "20240309140507.NA_1024KiB"), local)
	assert.FileExists(t, local)
	assert.Equal(t, StateCollected, c.State())

	require.NoError(t, c.Stop())
	assert.Equal(t, StateStopped, c.State())

	// re-entry for the next variant
	_, err = c.GenerateProfile(10*time.Second, "next", []int{10})
	require.NoError(t, err)
	require.NoError(t, c.Start(nil, 3, 9, 2048))
	assert.Equal(t, StateRunning, c.State())

	require.NoError(t, c.Destroy())
	assert.Equal(t, StateIdle, c.State())

	cmds := d.Commands("lm")
	assert.Contains(t, cmds[len(cmds)-1], "rm -rf /tmp/lm")
}

func TestController_StartCommand(t *testing.T) {
	c, _, _ := newController(t)

	l := c.Launch([]string{"-Dzookeeper.digest.enabled=false"}, 3, 9, 1024)
	assert.Equal(t, []string{
		"java", "-Dzookeeper.digest.enabled=false",
		"-jar", "/tmp/lm/zk-it.jar",
		"generateLoad", "zk1:2181", "/generateLoad", "3", "9", "1024",
	}, l.Argv())

	cmd := l.Command()
	assert.Contains(t, cmd, " < /tmp/lm/load.dat")
	assert.True(t, strings.HasSuffix(cmd, " &"))
}

func TestController_StopTargetsGenerator(t *testing.T) {
	c, d, _ := newController(t)
	require.NoError(t, c.Stop())

	cmds := d.Commands("lm")
	require.Len(t, cmds, 1)
	assert.Contains(t, cmds[0], "zk-it.jar generateLoad")
	assert.NotContains(t, cmds[0], "sic-")
	assert.Equal(t, StateIdle, c.State())
}

func TestController_InvalidTransitions(t *testing.T) {
	c, _, _ := newController(t)

	_, err := c.GenerateProfile(time.Second, "x", []int{10})
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	err = c.Start(nil, 1, 1, 1)
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	_, err = c.Collect("x")
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	require.NoError(t, c.Provision())
	err = c.Provision()
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	_, err = c.Collect("x")
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestController_CollectMissingArtifact(t *testing.T) {
	c, d, _ := newController(t)
	d.MissingRemote["/tmp/lm/bench.lost"] = true

	require.NoError(t, c.Provision())
	_, err := c.GenerateProfile(time.Second, "lost", []int{10})
	require.NoError(t, err)
	require.NoError(t, c.Start(nil, 1, 1, 1))

	_, err = c.Collect("lost")
	require.Error(t, err)
	assert.True(t, remote.IsTransferError(err))
	assert.Equal(t, StateRunning, c.State())
}

func TestController_StartCommandFailureStillRuns(t *testing.T) {
	c, d, _ := newController(t)
	d.ExitCodes["generateLoad.out"] = 127
	d.MissingRemote["/tmp/lm/bench.v"] = true

	require.NoError(t, c.Provision())
	_, err := c.GenerateProfile(time.Second, "v", []int{10})
	require.NoError(t, err)

	err = c.Start(nil, 1, 1, 1)
	require.Error(t, err)
	assert.True(t, remote.IsCommandError(err))
	assert.Equal(t, StateRunning, c.State())

	_, err = c.Collect("v")
	assert.True(t, remote.IsTransferError(err))
}

func TestController_StartConnectionFailureKeepsState(t *testing.T) {
	c, d, _ := newController(t)
	require.NoError(t, c.Provision())
	_, err := c.GenerateProfile(time.Second, "v", []int{10})
	require.NoError(t, err)

	d.DialErr["lm"] = errors.New("unreachable")
	err = c.Start(nil, 1, 1, 1)
	require.Error(t, err)
	assert.True(t, remote.IsConnectionError(err))
	assert.Equal(t, StateProvisioned, c.State())
}

func TestController_GenerateProfileRejectsBadSamples(t *testing.T) {
	c, d, _ := newController(t)
	require.NoError(t, c.Provision())

	_, err := c.GenerateProfile(time.Second, "x", []int{120})
	require.Error(t, err)
	_, ok := d.Uploaded("lm", "/tmp/lm/load.dat")
	assert.False(t, ok)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "collected", StateCollected.String())
	assert.Equal(t, "unknown", State(42).String())
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cred := Credentials{User: "bench", PasswordLess: true}
	cfg := &Config{
		Registry: RegistryConfig{
			Nodes:       Nodes{1: "zk1", 2: "zk2", 3: "zk3"},
			Credentials: cred,
			CwdPrefix:   "/tmp/zkbench/registry",
		},
		Servers: ServerConfig{
			Nodes:       Nodes{1: "sic1"},
			Credentials: cred,
			CwdPrefix:   "/tmp/zkbench/sic",
		},
		Clients: ClientConfig{
			Nodes:       Nodes{1: "cic1"},
			Credentials: cred,
			CwdPrefix:   "/tmp/zkbench/cic",
		},
		LoadManager: LoadManagerConfig{
			Host:        "lm1",
			Credentials: cred,
			Cwd:         "/tmp/zkbench/lm",
		},
		Artifacts: ArtifactsConfig{FatJar: "a.jar", Log4j: "log4j.properties"},
	}
	ApplyDefaults(cfg)
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"no registry nodes", func(c *Config) { c.Registry.Nodes = nil }, "registry.nodes"},
		{"zero node id", func(c *Config) { c.Servers.Nodes[0] = "x" }, "server-containers.nodes.0"},
		{"empty hostname", func(c *Config) { c.Clients.Nodes[2] = " " }, "client-containers.nodes.2"},
		{"missing user", func(c *Config) { c.Registry.User = "" }, "registry.user"},
		{"missing password", func(c *Config) { c.LoadManager.PasswordLess = false }, "load-manager.passwd"},
		{"root cwd", func(c *Config) { c.Clients.CwdPrefix = "/" }, "client-containers.cwd-prefix"},
		{"glob cwd", func(c *Config) { c.Servers.CwdPrefix = "/tmp/*" }, "server-containers.cwd-prefix"},
		{"shared cwd", func(c *Config) { c.LoadManager.Cwd = "/tmp/zkbench/registry/" }, "load-manager.cwd"},
		{"data dir is cwd", func(c *Config) { c.Registry.DataDir = "." }, "registry.dataDir"},
		{"bad port", func(c *Config) { c.Registry.ClientPort = 70000 }, "registry.clientPort"},
		{"missing host", func(c *Config) { c.LoadManager.Host = "" }, "load-manager.host"},
		{"load file path", func(c *Config) { c.LoadManager.LoadFile = "a/load.dat" }, "load-manager.loadFile"},
		{"missing jar", func(c *Config) { c.Artifacts.FatJar = "" }, "artifacts.fat-jar"},
		{"missing log4j", func(c *Config) { c.Artifacts.Log4j = "" }, "artifacts.log4j"},
		{"sample out of range", func(c *Config) { c.Experiment.Samples = []int{10, 101} }, "experiment.samples[1]"},
		{"no samples", func(c *Config) { c.Experiment.Samples = []int{} }, "experiment.samples"},
		{"negative step", func(c *Config) { c.Experiment.StepDuration = Duration(-time.Second) }, "experiment.stepDuration"},
		{"negative head", func(c *Config) { c.Experiment.HeadDelay = Duration(-time.Second) }, "experiment.headDelay"},
		{"unknown mode", func(c *Config) { c.Experiment.Matrix.Mode = "some" }, "experiment.matrix.mode"},
		{"no algorithms", func(c *Config) { c.Experiment.Matrix.Algorithms = nil }, "experiment.matrix.algorithms"},
		{"bad algorithm", func(c *Config) { c.Experiment.Matrix.Algorithms = []string{"SHA 1"} }, "experiment.matrix.algorithms[0]"},
		{"zero size", func(c *Config) { c.Experiment.Matrix.RequestSizes = []int{0} }, "experiment.matrix.requestSizes[0]"},
		{"zero servers", func(c *Config) { c.Experiment.Servers = -1 }, "experiment.servers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			verrs, ok := err.(*ValidationErrors)
			require.True(t, ok)
			assert.Contains(t, verrs.Fields(), tt.field)
		})
	}
}

func TestValidate_NoDigestSkipsAlgorithms(t *testing.T) {
	cfg := validConfig()
	cfg.Experiment.Matrix.Mode = MatrixNoDigest
	cfg.Experiment.Matrix.Algorithms = nil
	cfg.Experiment.Matrix.Predictive = nil
	assert.NoError(t, cfg.Validate())
}

func TestValidationErrors_Error(t *testing.T) {
	errs := &ValidationErrors{}
	assert.Equal(t, "no validation errors", errs.Error())

	errs.Add("a", "first")
	assert.Equal(t, "validation error on field 'a': first", errs.Error())

	errs.Add("", "second")
	assert.Contains(t, errs.Error(), "2 validation errors")
	assert.Contains(t, errs.Error(), "validation error: second")
}

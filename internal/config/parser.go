package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by ApplyDefaults.
const (
	DefaultQuorumPort         = 2888
	DefaultLeaderElectionPort = 3888
	DefaultClientPort         = 2181
	DefaultTickTime           = 2000
	DefaultInitLimit          = 10
	DefaultSyncLimit          = 5
	DefaultDataDir            = "data"
	DefaultLoadFile           = "load.dat"
	DefaultInterpreter        = "java"
	DefaultResultsDir         = "../bench-data"
	DefaultSSHPort            = 22
	DefaultConnectTimeout     = 10 * time.Second
	DefaultHeadDelay          = 30 * time.Second
	DefaultStepDuration       = 24 * time.Second
	DefaultServers            = 3
	DefaultClients            = 9
)

var (
	// DefaultSamples mirrors a 0..100 sweep in steps of 40.
	DefaultSamples = []int{0, 40, 80}

	DefaultAlgorithms   = []string{"CRC-32", "SHA", "SHA-256", "SHA-512", "MD5"}
	DefaultPredictive   = []bool{true, false}
	DefaultRequestSizes = []int{1024, 2048, 4096, 65536}
)

// LoadConfig loads an experiment document from a file.
//
// The document is checked against the embedded JSON schema, parsed, completed with
// defaults and validated. The returned error lists every problem found.
func LoadConfig(file string) (*Config, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := ValidateSchema(data, file); err != nil {
		return nil, err
	}

	config, err := ParseConfig(data, file)
	if err != nil {
		return nil, err
	}

	ApplyDefaults(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ParseConfig parses configuration data.
//
// The format is determined by the file extension in file, or defaults to YAML
// if the path is empty or has an unknown extension.
func ParseConfig(data []byte, file string) (*Config, error) {
	var config Config

	ext := strings.ToLower(filepath.Ext(file))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config (unknown format %s): %w", ext, err)
		}
	}

	return &config, nil
}

// ParseDurationString parses a duration string with support for common formats.
//
// Supported formats:
//   - Standard Go duration: "30s", "2m", "1h30m", "500ms"
//   - Seconds as integer: "30" (treated as 30 seconds)
func ParseDurationString(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(s)
	if err == nil {
		return d, nil
	}

	var seconds int
	var rest string
	if n, _ := fmt.Sscanf(s, "%d%s", &seconds, &rest); n == 1 {
		return time.Duration(seconds) * time.Second, nil
	}

	return 0, fmt.Errorf("invalid duration format: %s", s)
}

// ApplyDefaults fills every unset optional value.
func ApplyDefaults(config *Config) {
	r := &config.Registry
	if r.DataDir == "" {
		r.DataDir = DefaultDataDir
	}
	if r.QuorumPort == 0 {
		r.QuorumPort = DefaultQuorumPort
	}
	if r.LeaderElectionPort == 0 {
		r.LeaderElectionPort = DefaultLeaderElectionPort
	}
	if r.ClientPort == 0 {
		r.ClientPort = DefaultClientPort
	}
	if r.TickTime == 0 {
		r.TickTime = DefaultTickTime
	}
	if r.InitLimit == 0 {
		r.InitLimit = DefaultInitLimit
	}
	if r.SyncLimit == 0 {
		r.SyncLimit = DefaultSyncLimit
	}

	s := &config.Servers
	if s.ICTestDir == "" && s.CwdPrefix != "" {
		s.ICTestDir = path.Join(s.CwdPrefix, "test")
	}
	if s.ICDataDir == "" && s.CwdPrefix != "" {
		s.ICDataDir = path.Join(s.CwdPrefix, "data")
	}
	if s.ICDataLogDir == "" && s.CwdPrefix != "" {
		s.ICDataLogDir = path.Join(s.CwdPrefix, "log")
	}
	s.ICTestDir = strings.TrimSpace(s.ICTestDir)
	s.ICDataDir = strings.TrimSpace(s.ICDataDir)
	s.ICDataLogDir = strings.TrimSpace(s.ICDataLogDir)

	if config.LoadManager.LoadFile == "" {
		config.LoadManager.LoadFile = DefaultLoadFile
	}

	if config.SSH.Port == 0 {
		config.SSH.Port = DefaultSSHPort
	}
	if config.SSH.ConnectTimeout == 0 {
		config.SSH.ConnectTimeout = Duration(DefaultConnectTimeout)
	}

	applyExperimentDefaults(&config.Experiment)
}

func applyExperimentDefaults(e *ExperimentConfig) {
	if e.Interpreter == "" {
		e.Interpreter = DefaultInterpreter
	}
	if e.ResultsDir == "" {
		e.ResultsDir = DefaultResultsDir
	}
	if e.StagingDir == "" {
		e.StagingDir = "."
	}
	if e.HeadDelay == 0 {
		e.HeadDelay = Duration(DefaultHeadDelay)
	}
	if e.StepDuration == 0 {
		e.StepDuration = Duration(DefaultStepDuration)
	}
	if len(e.Samples) == 0 {
		e.Samples = append([]int(nil), DefaultSamples...)
	}
	if e.Servers == 0 {
		e.Servers = DefaultServers
	}
	if e.Clients == 0 {
		e.Clients = DefaultClients
	}

	m := &e.Matrix
	if m.Mode == "" {
		m.Mode = MatrixDigest
	}
	m.Mode = strings.ToLower(m.Mode)
	if len(m.Algorithms) == 0 {
		m.Algorithms = append([]string(nil), DefaultAlgorithms...)
	}
	if len(m.Predictive) == 0 {
		m.Predictive = append([]bool(nil), DefaultPredictive...)
	}
	if len(m.RequestSizes) == 0 {
		m.RequestSizes = append([]int(nil), DefaultRequestSizes...)
	}
}

// Package config loads and validates the benchmark experiment document.
package config

import (
	"path"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root of the experiment document.
//
// Example YAML:
//
//	registry:
//	  nodes: {1: zk1, 2: zk2, 3: zk3}
//	  user: bench
//	  passwordLess: true
//	  cwd-prefix: /tmp/zkbench/registry
//	  dataDir: data
//	  quorumPort: 2888
//	  leaderElectionPort: 3888
//	  clientPort: 2181
//	server-containers:
//	  nodes: {1: sic1}
//	  user: bench
//	  passwordLess: true
//	  cwd-prefix: /tmp/zkbench/sic
//	client-containers:
//	  nodes: {1: cic1}
//	  user: bench
//	  passwordLess: true
//	  cwd-prefix: /tmp/zkbench/cic
//	load-manager:
//	  host: lm1
//	  user: bench
//	  passwordLess: true
//	  cwd: /tmp/zkbench/lm
//	artifacts:
//	  fat-jar: ./zookeeper-it.jar
//	  log4j: ./log4j.properties
type Config struct {
	Registry    RegistryConfig    `json:"registry" yaml:"registry"`
	Servers     ServerConfig      `json:"server-containers" yaml:"server-containers"`
	Clients     ClientConfig      `json:"client-containers" yaml:"client-containers"`
	LoadManager LoadManagerConfig `json:"load-manager" yaml:"load-manager"`
	Artifacts   ArtifactsConfig   `json:"artifacts" yaml:"artifacts"`

	// SSH contains transport settings shared by every host
	SSH SSHConfig `json:"ssh,omitempty" yaml:"ssh,omitempty"`

	// Experiment contains timings and the variant matrix
	Experiment ExperimentConfig `json:"experiment,omitempty" yaml:"experiment,omitempty"`
}

// Credentials are shared by every node of a role.
type Credentials struct {
	User         string `json:"user" yaml:"user"`
	Passwd       string `json:"passwd,omitempty" yaml:"passwd,omitempty"`
	PasswordLess bool   `json:"passwordLess,omitempty" yaml:"passwordLess,omitempty"`
}

// Nodes maps a member identity to its hostname.
type Nodes map[int]string

// IDs returns the member identities in ascending order.
func (n Nodes) IDs() []int {
	ids := make([]int, 0, len(n))
	for id := range n {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// RegistryConfig describes the coordination-service quorum.
type RegistryConfig struct {
	Nodes       Nodes  `json:"nodes" yaml:"nodes"`
	Credentials `json:",inline" yaml:",inline"`
	CwdPrefix   string `json:"cwd-prefix" yaml:"cwd-prefix"`

	// DataDir is resolved under CwdPrefix when relative
	DataDir string `json:"dataDir,omitempty" yaml:"dataDir,omitempty"`

	QuorumPort         int `json:"quorumPort,omitempty" yaml:"quorumPort,omitempty"`
	LeaderElectionPort int `json:"leaderElectionPort,omitempty" yaml:"leaderElectionPort,omitempty"`
	ClientPort         int `json:"clientPort,omitempty" yaml:"clientPort,omitempty"`
	TickTime           int `json:"tickTime,omitempty" yaml:"tickTime,omitempty"`
	InitLimit          int `json:"initLimit,omitempty" yaml:"initLimit,omitempty"`
	SyncLimit          int `json:"syncLimit,omitempty" yaml:"syncLimit,omitempty"`

	// JavaSysProperties are extra interpreter flags, split with shell rules
	JavaSysProperties string `json:"java-sys-properties,omitempty" yaml:"java-sys-properties,omitempty"`
}

// DataPath returns the absolute remote data directory.
func (r RegistryConfig) DataPath() string {
	if path.IsAbs(r.DataDir) {
		return r.DataDir
	}
	return path.Join(r.CwdPrefix, r.DataDir)
}

// ServerConfig describes the server-side load containers.
type ServerConfig struct {
	Nodes        Nodes  `json:"nodes" yaml:"nodes"`
	Credentials  `json:",inline" yaml:",inline"`
	CwdPrefix    string `json:"cwd-prefix" yaml:"cwd-prefix"`
	ICTestDir    string `json:"icTestDir,omitempty" yaml:"icTestDir,omitempty"`
	ICDataDir    string `json:"icDataDir,omitempty" yaml:"icDataDir,omitempty"`
	ICDataLogDir string `json:"icDataLogDir,omitempty" yaml:"icDataLogDir,omitempty"`

	// UseICIP passes each member's hostname as -Dtest.ic.ip
	UseICIP bool `json:"useIcIp,omitempty" yaml:"useIcIp,omitempty"`
}

// ClientConfig describes the client-side load containers.
type ClientConfig struct {
	Nodes       Nodes  `json:"nodes" yaml:"nodes"`
	Credentials `json:",inline" yaml:",inline"`
	CwdPrefix   string `json:"cwd-prefix" yaml:"cwd-prefix"`
}

// LoadManagerConfig describes the single load controller host.
type LoadManagerConfig struct {
	Host        string `json:"host" yaml:"host"`
	Credentials `json:",inline" yaml:",inline"`
	Cwd         string `json:"cwd" yaml:"cwd"`

	// LoadFile is the profile script name, locally and under Cwd (default: load.dat)
	LoadFile string `json:"loadFile,omitempty" yaml:"loadFile,omitempty"`
}

// ArtifactsConfig names the local files pushed to every host.
type ArtifactsConfig struct {
	FatJar string `json:"fat-jar" yaml:"fat-jar"`
	Log4j  string `json:"log4j" yaml:"log4j"`
}

// SSHConfig contains transport settings.
type SSHConfig struct {
	Port           int      `json:"port,omitempty" yaml:"port,omitempty"`
	ConnectTimeout Duration `json:"connectTimeout,omitempty" yaml:"connectTimeout,omitempty"`
	KnownHosts     string   `json:"knownHosts,omitempty" yaml:"knownHosts,omitempty"`
	KeyFiles       []string `json:"keyFiles,omitempty" yaml:"keyFiles,omitempty"`
}

// Matrix modes.
const (
	MatrixDigest   = "digest"
	MatrixNoDigest = "nodigest"
	MatrixAll      = "all"
)

// MatrixConfig declares the configuration variants to run.
type MatrixConfig struct {
	// Mode selects digest variants, the single no-digest variant per size, or both
	Mode         string   `json:"mode,omitempty" yaml:"mode,omitempty"`
	Algorithms   []string `json:"algorithms,omitempty" yaml:"algorithms,omitempty"`
	Predictive   []bool   `json:"predictive,omitempty" yaml:"predictive,omitempty"`
	RequestSizes []int    `json:"requestSizes,omitempty" yaml:"requestSizes,omitempty"`
}

// ExperimentConfig holds the timings and sizing of one experiment.
type ExperimentConfig struct {
	Interpreter string `json:"interpreter,omitempty" yaml:"interpreter,omitempty"`
	ResultsDir  string `json:"resultsDir,omitempty" yaml:"resultsDir,omitempty"`
	StagingDir  string `json:"stagingDir,omitempty" yaml:"stagingDir,omitempty"`

	// HeadDelay is the initial sleep of every load profile
	HeadDelay Duration `json:"headDelay,omitempty" yaml:"headDelay,omitempty"`
	// TailDelay is an optional sleep before the profile exits
	TailDelay Duration `json:"tailDelay,omitempty" yaml:"tailDelay,omitempty"`
	// StepDuration is how long each load percentage is held
	StepDuration Duration `json:"stepDuration,omitempty" yaml:"stepDuration,omitempty"`
	// Samples are the load percentages, applied in order
	Samples []int `json:"samples,omitempty" yaml:"samples,omitempty"`

	// SettleDelay is waited after the registry is provisioned
	SettleDelay Duration `json:"settleDelay,omitempty" yaml:"settleDelay,omitempty"`
	// StartDelay is waited between role starts
	StartDelay Duration `json:"startDelay,omitempty" yaml:"startDelay,omitempty"`

	Servers int `json:"servers,omitempty" yaml:"servers,omitempty"`
	Clients int `json:"clients,omitempty" yaml:"clients,omitempty"`

	Matrix MatrixConfig `json:"matrix,omitempty" yaml:"matrix,omitempty"`
}

// Duration is a time.Duration that can be unmarshaled from YAML/JSON strings or
// bare integers (seconds).
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "null" {
		*d = 0
		return nil
	}
	dur, err := ParseDurationString(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	dur, err := ParseDurationString(value.Value)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// String returns the duration as a string.
func (d Duration) String() string {
	return time.Duration(d).String()
}

package config

import (
	"fmt"
	"path"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Add adds an error to the collection.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are any errors.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// Fields returns the field of every error, in order.
func (e *ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		fields = append(fields, err.Field)
	}
	return fields
}

// Validate validates the entire configuration. Defaults are expected to be applied.
//
// Returns nil if valid, or a *ValidationErrors containing all validation errors.
func (c *Config) Validate() error {
	errs := &ValidationErrors{}

	validateNodes("registry", c.Registry.Nodes, errs)
	validateCredentials("registry", c.Registry.Credentials, errs)
	validateWorkDir("registry.cwd-prefix", c.Registry.CwdPrefix, errs)
	validatePort("registry.quorumPort", c.Registry.QuorumPort, errs)
	validatePort("registry.leaderElectionPort", c.Registry.LeaderElectionPort, errs)
	validatePort("registry.clientPort", c.Registry.ClientPort, errs)
	validatePositive("registry.tickTime", c.Registry.TickTime, errs)
	validatePositive("registry.initLimit", c.Registry.InitLimit, errs)
	validatePositive("registry.syncLimit", c.Registry.SyncLimit, errs)
	if c.Registry.CwdPrefix != "" && path.Clean(c.Registry.DataPath()) == path.Clean(c.Registry.CwdPrefix) {
		errs.Add("registry.dataDir", "data directory must differ from the working directory")
	}

	validateNodes("server-containers", c.Servers.Nodes, errs)
	validateCredentials("server-containers", c.Servers.Credentials, errs)
	validateWorkDir("server-containers.cwd-prefix", c.Servers.CwdPrefix, errs)
	validateWorkDir("server-containers.icTestDir", c.Servers.ICTestDir, errs)
	validateWorkDir("server-containers.icDataDir", c.Servers.ICDataDir, errs)
	validateWorkDir("server-containers.icDataLogDir", c.Servers.ICDataLogDir, errs)

	validateNodes("client-containers", c.Clients.Nodes, errs)
	validateCredentials("client-containers", c.Clients.Credentials, errs)
	validateWorkDir("client-containers.cwd-prefix", c.Clients.CwdPrefix, errs)

	if strings.TrimSpace(c.LoadManager.Host) == "" {
		errs.Add("load-manager.host", "host is required")
	}
	validateCredentials("load-manager", c.LoadManager.Credentials, errs)
	validateWorkDir("load-manager.cwd", c.LoadManager.Cwd, errs)
	if strings.Contains(c.LoadManager.LoadFile, "/") {
		errs.Add("load-manager.loadFile", "must be a plain file name")
	}

	validateDistinctWorkDirs(c, errs)

	if c.Artifacts.FatJar == "" {
		errs.Add("artifacts.fat-jar", "fat-jar is required")
	}
	if c.Artifacts.Log4j == "" {
		errs.Add("artifacts.log4j", "log4j is required")
	}

	validatePort("ssh.port", c.SSH.Port, errs)
	if c.SSH.ConnectTimeout < 0 {
		errs.Add("ssh.connectTimeout", "cannot be negative")
	}

	validateExperiment(&c.Experiment, errs)

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validateNodes(prefix string, nodes Nodes, errs *ValidationErrors) {
	if len(nodes) == 0 {
		errs.Add(prefix+".nodes", "at least one node is required")
		return
	}
	for _, id := range nodes.IDs() {
		if id <= 0 {
			errs.Add(fmt.Sprintf("%s.nodes.%d", prefix, id), "node id must be greater than 0")
		}
		if strings.TrimSpace(nodes[id]) == "" {
			errs.Add(fmt.Sprintf("%s.nodes.%d", prefix, id), "hostname is required")
		}
	}
}

func validateCredentials(prefix string, c Credentials, errs *ValidationErrors) {
	if c.User == "" {
		errs.Add(prefix+".user", "user is required")
	}
	if !c.PasswordLess && c.Passwd == "" {
		errs.Add(prefix+".passwd", "passwd is required unless passwordLess is set")
	}
}

// validateWorkDir rejects directories that would be dangerous to rm -rf.
func validateWorkDir(field, dir string, errs *ValidationErrors) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		errs.Add(field, "directory is required")
		return
	}
	clean := path.Clean(dir)
	if clean == "/" || clean == "." || clean == ".." || clean == "~" {
		errs.Add(field, fmt.Sprintf("refusing to use %q as a working directory", dir))
	}
	if strings.ContainsAny(dir, "*?[") {
		errs.Add(field, "directory must not contain glob characters")
	}
}

// validateDistinctWorkDirs enforces that every role owns its working directory.
func validateDistinctWorkDirs(c *Config, errs *ValidationErrors) {
	dirs := []struct {
		field string
		dir   string
	}{
		{"registry.cwd-prefix", c.Registry.CwdPrefix},
		{"server-containers.cwd-prefix", c.Servers.CwdPrefix},
		{"client-containers.cwd-prefix", c.Clients.CwdPrefix},
		{"load-manager.cwd", c.LoadManager.Cwd},
	}
	seen := make(map[string]string)
	for _, d := range dirs {
		if d.dir == "" {
			continue
		}
		clean := path.Clean(d.dir)
		if other, ok := seen[clean]; ok {
			errs.Add(d.field, fmt.Sprintf("working directory is already used by %s", other))
			continue
		}
		seen[clean] = d.field
	}
}

func validatePort(field string, port int, errs *ValidationErrors) {
	if port <= 0 || port > 65535 {
		errs.Add(field, fmt.Sprintf("port %d out of range", port))
	}
}

func validatePositive(field string, v int, errs *ValidationErrors) {
	if v <= 0 {
		errs.Add(field, "must be greater than 0")
	}
}

func validateExperiment(e *ExperimentConfig, errs *ValidationErrors) {
	if strings.TrimSpace(e.Interpreter) == "" {
		errs.Add("experiment.interpreter", "interpreter is required")
	}
	if e.HeadDelay < 0 {
		errs.Add("experiment.headDelay", "cannot be negative")
	}
	if e.TailDelay < 0 {
		errs.Add("experiment.tailDelay", "cannot be negative")
	}
	if e.StepDuration <= 0 {
		errs.Add("experiment.stepDuration", "must be greater than 0")
	}
	if e.SettleDelay < 0 {
		errs.Add("experiment.settleDelay", "cannot be negative")
	}
	if e.StartDelay < 0 {
		errs.Add("experiment.startDelay", "cannot be negative")
	}
	if len(e.Samples) == 0 {
		errs.Add("experiment.samples", "at least one sample is required")
	}
	for i, s := range e.Samples {
		if s < 0 || s > 100 {
			errs.Add(fmt.Sprintf("experiment.samples[%d]", i), fmt.Sprintf("percentage %d out of range 0-100", s))
		}
	}
	validatePositive("experiment.servers", e.Servers, errs)
	validatePositive("experiment.clients", e.Clients, errs)

	m := &e.Matrix
	switch m.Mode {
	case MatrixDigest, MatrixNoDigest, MatrixAll:
	default:
		errs.Add("experiment.matrix.mode", fmt.Sprintf("unknown matrix mode: %s", m.Mode))
	}
	if m.Mode != MatrixNoDigest {
		if len(m.Algorithms) == 0 {
			errs.Add("experiment.matrix.algorithms", "at least one algorithm is required")
		}
		for i, a := range m.Algorithms {
			if strings.TrimSpace(a) == "" || strings.ContainsAny(a, " \t/") {
				errs.Add(fmt.Sprintf("experiment.matrix.algorithms[%d]", i), fmt.Sprintf("invalid algorithm name %q", a))
			}
		}
		if len(m.Predictive) == 0 {
			errs.Add("experiment.matrix.predictive", "at least one value is required")
		}
	}
	if len(m.RequestSizes) == 0 {
		errs.Add("experiment.matrix.requestSizes", "at least one request size is required")
	}
	for i, sz := range m.RequestSizes {
		if sz <= 0 {
			errs.Add(fmt.Sprintf("experiment.matrix.requestSizes[%d]", i), "must be greater than 0")
		}
	}
}

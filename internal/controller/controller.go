// Package controller drives the single load-generating process of an
// experiment: it renders and uploads the load profile, starts and stops the
// generator and collects its measurements.
package controller

import (
	"os"
	"path"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/wesleyorama2/zkbench/internal/config"
	"github.com/wesleyorama2/zkbench/internal/remote"
	"github.com/wesleyorama2/zkbench/internal/role"
)

// Name is the role name of the load controller.
const Name = "load-manager"

// ArtifactTimeFormat prefixes every collected artifact.
const ArtifactTimeFormat = "20060102150405"

const marker = " generateLoad"

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces time.Now for artifact naming.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// Controller is the load controller role.
type Controller struct {
	group       *role.Group
	node        remote.TargetNode
	cwd         string
	jar         string
	log4j       string
	interpreter string
	loadFile    string
	stagingDir  string
	resultsDir  string
	registry    string
	head        time.Duration
	tail        time.Duration

	now func() time.Time

	mu    sync.Mutex
	state State
}

// New builds the controller; registry is the endpoint the generator targets.
func New(cfg *config.Config, registry string, pool *remote.Pool, opts ...Option) *Controller {
	lm := cfg.LoadManager
	node := remote.NewTargetNode(lm.Host, lm.User, lm.Passwd, lm.PasswordLess)
	c := &Controller{
		group:       &role.Group{Name: Name, Members: map[int]remote.TargetNode{1: node}, Pool: pool},
		node:        node,
		cwd:         lm.Cwd,
		jar:         cfg.Artifacts.FatJar,
		log4j:       cfg.Artifacts.Log4j,
		interpreter: cfg.Experiment.Interpreter,
		loadFile:    lm.LoadFile,
		stagingDir:  cfg.Experiment.StagingDir,
		resultsDir:  cfg.Experiment.ResultsDir,
		registry:    registry,
		head:        cfg.Experiment.HeadDelay.Std(),
		tail:        cfg.Experiment.TailDelay.Std(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the role name.
func (c *Controller) Name() string { return Name }

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) logger() *log.Entry {
	return log.WithFields(log.Fields{"role": Name, "host": c.node.Hostname})
}

// JarRemote returns the remote path of the fat jar.
func (c *Controller) JarRemote() string {
	return path.Join(c.cwd, filepath.Base(c.jar))
}

// ProfileRemote returns the remote path the generator reads its profile from.
func (c *Controller) ProfileRemote() string {
	return path.Join(c.cwd, c.loadFile)
}

// OutputRemote returns the remote measurement file for label.
func (c *Controller) OutputRemote(label string) string {
	return path.Join(c.cwd, "bench."+label)
}

// Provision creates the working directory and uploads the artifacts.
func (c *Controller) Provision() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return transitionError("provision", c.state)
	}

	if err := c.group.RunOnAll(role.MkdirCommand(c.cwd)); err != nil {
		return err
	}
	if err := c.group.PutOnAll(c.jar, c.JarRemote()); err != nil {
		return err
	}
	if err := c.group.PutOnAll(c.log4j, path.Join(c.cwd, "log4j.properties")); err != nil {
		return err
	}
	c.state = StateProvisioned
	return nil
}

// Profile builds the load profile for label without uploading it.
func (c *Controller) Profile(step time.Duration, label string, samples []int) (*Profile, error) {
	return BuildProfile(ProfileSpec{
		Head:     c.head,
		Step:     step,
		Tail:     c.tail,
		SavePath: c.OutputRemote(label),
		Samples:  samples,
	})
}

// GenerateProfile renders the profile into the staging directory, uploads it
// and returns how long the generator will run.
func (c *Controller) GenerateProfile(step time.Duration, label string, samples []int) (time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateProvisioned && c.state != StateStopped {
		return 0, transitionError("generate profile", c.state)
	}

	p, err := c.Profile(step, label, samples)
	if err != nil {
		return 0, err
	}

	local := filepath.Join(c.stagingDir, c.loadFile)
	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return 0, errors.Wrap(err, "create staging directory")
	}
	if err := os.WriteFile(local, []byte(p.Render()), 0o644); err != nil {
		return 0, errors.Wrap(err, "write load profile")
	}
	if err := c.group.PutOnAll(local, c.ProfileRemote()); err != nil {
		return 0, err
	}
	c.logger().WithField("variant", label).Debugf("profile uploaded, duration %s", p.Duration())
	return p.Duration(), nil
}

// Launch returns the generator process.
func (c *Controller) Launch(opts []string, servers, clients, requestSize int) role.Launch {
	return role.Launch{
		Interpreter: c.interpreter,
		Options:     opts,
		Jar:         c.JarRemote(),
		Args: []string{
			"generateLoad", c.registry, "/generateLoad",
			strconv.Itoa(servers), strconv.Itoa(clients), strconv.Itoa(requestSize),
		},
		Stdin:  c.ProfileRemote(),
		Stdout: path.Join(c.cwd, "generateLoad.out"),
	}
}

// Start launches the generator in the background. A launch that exits nonzero
// still moves to Running; Collect then reports whether any output exists.
func (c *Controller) Start(opts []string, servers, clients, requestSize int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateProvisioned && c.state != StateStopped {
		return transitionError("start", c.state)
	}

	cmd := c.Launch(opts, servers, clients, requestSize).Command()
	c.logger().Debugf("exec: %s", cmd)
	_, err := c.group.Pool.Execute(c.node, cmd)
	if err != nil && !remote.IsCommandError(err) {
		return err
	}
	c.state = StateRunning
	return err
}

// Collect downloads the measurements of label into the results directory and
// returns the local path.
func (c *Controller) Collect(label string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRunning {
		return "", transitionError("collect", c.state)
	}

	local := filepath.Join(c.resultsDir, c.now().Format(ArtifactTimeFormat)+"."+label)
	if err := c.group.Pool.Get(c.node, c.OutputRemote(label), local); err != nil {
		return "", err
	}
	c.state = StateCollected
	return local, nil
}

// Stop kills the generator. It is accepted in every state.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.group.RunOnAll(role.TerminateCommand(c.JarRemote() + marker))
	if c.state != StateIdle {
		c.state = StateStopped
	}
	return err
}

// Destroy removes the working directory and returns to idle.
func (c *Controller) Destroy() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.group.RunOnAll(role.RemoveCommand(c.cwd))
	c.state = StateIdle
	return err
}

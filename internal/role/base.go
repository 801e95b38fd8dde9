package role

import (
	"net"
	"path"
	"path/filepath"

	"github.com/hashicorp/go-multierror"

	"github.com/wesleyorama2/zkbench/internal/config"
)

const log4jName = "log4j.properties"

// workspace is the part every role shares: a group, its working directory and
// the artifacts pushed into it.
type workspace struct {
	group       *Group
	cwd         string
	jar         string
	log4j       string
	interpreter string
}

func newWorkspace(group *Group, cwd string, cfg *config.Config) workspace {
	return workspace{
		group:       group,
		cwd:         cwd,
		jar:         cfg.Artifacts.FatJar,
		log4j:       cfg.Artifacts.Log4j,
		interpreter: cfg.Experiment.Interpreter,
	}
}

// Name returns the role name.
func (w *workspace) Name() string { return w.group.Name }

// Group returns the members of the role.
func (w *workspace) Group() *Group { return w.group }

// Cwd returns the remote working directory.
func (w *workspace) Cwd() string { return w.cwd }

// JarRemote returns the remote path of the fat jar.
func (w *workspace) JarRemote() string {
	return path.Join(w.cwd, filepath.Base(w.jar))
}

// Log4jRemote returns the remote path of the log4j configuration.
func (w *workspace) Log4jRemote() string {
	return path.Join(w.cwd, log4jName)
}

// runSteps runs every step, even after one fails, and aggregates the failures.
func runSteps(steps ...func() error) error {
	var result *multierror.Error
	for _, step := range steps {
		if err := step(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// forEachDir runs the command built for every dir on all members.
func (w *workspace) forEachDir(command func(string) string, dirs ...string) error {
	steps := make([]func() error, 0, len(dirs))
	for _, dir := range dirs {
		cmd := command(dir)
		steps = append(steps, func() error { return w.group.RunOnAll(cmd) })
	}
	return runSteps(steps...)
}

func (w *workspace) makeDirs(dirs ...string) error {
	return w.forEachDir(MkdirCommand, dirs...)
}

func (w *workspace) putArtifacts() error {
	return runSteps(
		func() error { return w.group.PutOnAll(w.jar, w.JarRemote()) },
		func() error { return w.group.PutOnAll(w.log4j, w.Log4jRemote()) },
	)
}

// removeAll removes every dir, continuing past failures.
func (w *workspace) removeAll(dirs ...string) error {
	return w.forEachDir(RemoveCommand, dirs...)
}

func (w *workspace) stop(marker string) error {
	return w.group.RunOnAll(TerminateCommand(w.JarRemote() + marker))
}

// commonProperties are the logging flags every launched process carries.
func (w *workspace) commonProperties() []Property {
	return []Property{
		{Name: "zookeeper.log.dir", Value: w.cwd},
		{Name: "log4j.configuration", Value: "file:" + w.Log4jRemote()},
	}
}

// hostOnly strips an SSH port from a member hostname.
func hostOnly(hostname string) string {
	if host, _, err := net.SplitHostPort(hostname); err == nil {
		return host
	}
	return hostname
}

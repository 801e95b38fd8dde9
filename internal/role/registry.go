package role

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/wesleyorama2/zkbench/internal/config"
	"github.com/wesleyorama2/zkbench/internal/remote"
)

// RegistryName is the role name of the coordination-service quorum.
const RegistryName = "registry"

const registryMarker = " server"

// Registry is the coordination-service quorum the containers register with.
type Registry struct {
	workspace
	cfg   config.RegistryConfig
	extra []string
}

// NewRegistry builds the registry role.
func NewRegistry(cfg *config.Config, pool *remote.Pool) (*Registry, error) {
	extra, ok := SplitFlags(cfg.Registry.JavaSysProperties)
	if !ok {
		return nil, errors.Errorf("registry: unbalanced quotes in java-sys-properties %q", cfg.Registry.JavaSysProperties)
	}
	group := NewGroup(RegistryName, cfg.Registry.Nodes, cfg.Registry.Credentials, pool)
	return &Registry{
		workspace: newWorkspace(group, cfg.Registry.CwdPrefix, cfg),
		cfg:       cfg.Registry,
		extra:     extra,
	}, nil
}

// DataDir returns the remote data directory.
func (r *Registry) DataDir() string {
	return r.cfg.DataPath()
}

// ConfigRemote returns the remote path of the quorum document.
func (r *Registry) ConfigRemote() string {
	return path.Join(r.cwd, "zoo.cfg")
}

// QuorumConfig renders the quorum document.
func (r *Registry) QuorumConfig() string {
	var sb strings.Builder
	for _, id := range r.group.IDs() {
		fmt.Fprintf(&sb, "server.%d=%s:%d:%d\n", id, hostOnly(r.group.Members[id].Hostname),
			r.cfg.QuorumPort, r.cfg.LeaderElectionPort)
	}
	fmt.Fprintf(&sb, "dataDir=%s\n", r.DataDir())
	fmt.Fprintf(&sb, "clientPort=%d\n", r.cfg.ClientPort)
	fmt.Fprintf(&sb, "tickTime=%d\n", r.cfg.TickTime)
	fmt.Fprintf(&sb, "initLimit=%d\n", r.cfg.InitLimit)
	fmt.Fprintf(&sb, "syncLimit=%d\n", r.cfg.SyncLimit)
	return sb.String()
}

// Endpoint returns the client address of the lowest-id member.
func (r *Registry) Endpoint() string {
	ids := r.group.IDs()
	if len(ids) == 0 {
		return ""
	}
	return hostOnly(r.group.Members[ids[0]].Hostname) + ":" + strconv.Itoa(r.cfg.ClientPort)
}

// Provision creates the directories, the quorum document and myid files, then
// uploads the artifacts. Every step runs on every member even when an earlier
// one failed; the failures are returned together.
func (r *Registry) Provision() error {
	log.WithField("role", RegistryName).Debugf("quorum config:\n%s", r.QuorumConfig())
	myid := path.Join(r.DataDir(), "myid")
	return runSteps(
		func() error { return r.makeDirs(r.cwd, r.DataDir()) },
		func() error { return r.group.RunOnAll(writeFileCommand(r.QuorumConfig(), r.ConfigRemote())) },
		func() error {
			return r.group.Each(func(id int, node remote.TargetNode) error {
				_, err := r.group.Pool.Execute(node, echoCommand(strconv.Itoa(id), myid))
				return err
			})
		},
		r.putArtifacts,
	)
}

// Launch returns the process started on every member.
func (r *Registry) Launch(opts []string) Launch {
	props := append(r.commonProperties(),
		Property{Name: "snapDir", Value: r.DataDir()},
		Property{Name: "logDir", Value: r.DataDir()},
	)
	return Launch{
		Interpreter: r.interpreter,
		Extra:       r.extra,
		Options:     opts,
		Properties:  props,
		Jar:         r.JarRemote(),
		Args:        []string{"server", r.ConfigRemote()},
		Stdout:      path.Join(r.cwd, "registry.out"),
	}
}

// Start launches a quorum member on every host.
func (r *Registry) Start(opts []string) error {
	return r.group.RunOnAll(r.Launch(opts).Command())
}

// Stop kills the quorum members.
func (r *Registry) Stop() error {
	return r.stop(registryMarker)
}

// PurgeData removes snapshots and transaction logs.
func (r *Registry) PurgeData() error {
	return r.group.RunOnAll(RemoveCommand(path.Join(r.DataDir(), "version-2")))
}

// Destroy removes the data and working directories.
func (r *Registry) Destroy() error {
	return r.removeAll(r.DataDir(), r.cwd)
}

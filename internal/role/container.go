package role

import (
	"path"
	"strconv"

	"github.com/wesleyorama2/zkbench/internal/config"
	"github.com/wesleyorama2/zkbench/internal/remote"
)

// Role names of the load containers.
const (
	ServersName = "server-containers"
	ClientsName = "client-containers"
)

const (
	serverPrefix = "sic-"
	clientPrefix = "cic-"
)

// ServerContainers host the server side of the benchmark.
type ServerContainers struct {
	workspace
	cfg      config.ServerConfig
	registry string
}

// NewServerContainers builds the server container role; registry is the
// endpoint every container registers with.
func NewServerContainers(cfg *config.Config, registry string, pool *remote.Pool) *ServerContainers {
	group := NewGroup(ServersName, cfg.Servers.Nodes, cfg.Servers.Credentials, pool)
	return &ServerContainers{
		workspace: newWorkspace(group, cfg.Servers.CwdPrefix, cfg),
		cfg:       cfg.Servers,
		registry:  registry,
	}
}

// Provision creates the directories and uploads the artifacts.
func (s *ServerContainers) Provision() error {
	return runSteps(
		func() error { return s.makeDirs(s.cwd, s.cfg.ICTestDir, s.cfg.ICDataDir, s.cfg.ICDataLogDir) },
		s.putArtifacts,
	)
}

// Launch returns the process started on member id.
func (s *ServerContainers) Launch(id int, node remote.TargetNode, opts []string) Launch {
	var props []Property
	if s.cfg.UseICIP {
		props = append(props, Property{Name: "test.ic.ip", Value: hostOnly(node.Hostname)})
	}
	props = append(props, Property{Name: "zookeeper.4lw.commands.whitelist", Value: "*"})
	props = append(props, s.commonProperties()...)
	props = append(props,
		Property{Name: "test.data.dir", Value: s.cfg.ICTestDir},
		Property{Name: "snapDir", Value: s.cfg.ICDataDir},
		Property{Name: "logDir", Value: s.cfg.ICDataLogDir},
	)
	name := serverPrefix + strconv.Itoa(id)
	return Launch{
		Interpreter: s.interpreter,
		Options:     opts,
		Properties:  props,
		Jar:         s.JarRemote(),
		Args:        []string{"ic", name, s.registry, "/generateLoad"},
		Stdout:      path.Join(s.cwd, name+".out"),
	}
}

// Start launches one server container per member.
func (s *ServerContainers) Start(opts []string) error {
	return s.group.Each(func(id int, node remote.TargetNode) error {
		_, err := s.group.Pool.Execute(node, s.Launch(id, node, opts).Command())
		return err
	})
}

// Stop kills the server containers.
func (s *ServerContainers) Stop() error {
	return s.stop(" ic " + serverPrefix)
}

// PurgeData empties the log, data and test directories, continuing past failures.
func (s *ServerContainers) PurgeData() error {
	return s.forEachDir(removeContentsCommand, s.cfg.ICDataLogDir, s.cfg.ICDataDir, s.cfg.ICTestDir)
}

// Destroy removes the container directories and the working directory.
func (s *ServerContainers) Destroy() error {
	return s.removeAll(s.cfg.ICDataLogDir, s.cfg.ICDataDir, s.cfg.ICTestDir, s.cwd)
}

// ClientContainers host the client side of the benchmark.
type ClientContainers struct {
	workspace
	registry string
}

// NewClientContainers builds the client container role.
func NewClientContainers(cfg *config.Config, registry string, pool *remote.Pool) *ClientContainers {
	group := NewGroup(ClientsName, cfg.Clients.Nodes, cfg.Clients.Credentials, pool)
	return &ClientContainers{
		workspace: newWorkspace(group, cfg.Clients.CwdPrefix, cfg),
		registry:  registry,
	}
}

// Provision creates the working directory and uploads the artifacts.
func (c *ClientContainers) Provision() error {
	return runSteps(
		func() error { return c.makeDirs(c.cwd) },
		c.putArtifacts,
	)
}

// Launch returns the process started on member id.
func (c *ClientContainers) Launch(id int, opts []string) Launch {
	name := clientPrefix + strconv.Itoa(id)
	return Launch{
		Interpreter: c.interpreter,
		Options:     opts,
		Properties:  c.commonProperties(),
		Jar:         c.JarRemote(),
		Args:        []string{"ic", name, c.registry, "/generateLoad"},
		Stdout:      path.Join(c.cwd, name+".out"),
	}
}

// Start launches one client container per member.
func (c *ClientContainers) Start(opts []string) error {
	return c.group.Each(func(id int, node remote.TargetNode) error {
		_, err := c.group.Pool.Execute(node, c.Launch(id, opts).Command())
		return err
	})
}

// Stop kills the client containers.
func (c *ClientContainers) Stop() error {
	return c.stop(" ic " + clientPrefix)
}

// Destroy removes the working directory.
func (c *ClientContainers) Destroy() error {
	return c.removeAll(c.cwd)
}

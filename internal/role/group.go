// Package role implements the remote roles of a benchmark cluster: the registry
// quorum and the server and client load containers.
//
// Every role is a Group of members addressed through one shared remote.Pool.
// Fan-out is sequential and visits members in ascending id order.
package role

import (
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/wesleyorama2/zkbench/internal/config"
	"github.com/wesleyorama2/zkbench/internal/remote"
)

// Role is the lifecycle every benchmark role supports.
type Role interface {
	Name() string
	Provision() error
	Start(opts []string) error
	Stop() error
	Destroy() error
}

// Purger is a Role whose run data can be wiped between variants.
type Purger interface {
	Role
	PurgeData() error
}

// Group is a set of members sharing credentials and a working directory.
type Group struct {
	Name    string
	Members map[int]remote.TargetNode
	Pool    *remote.Pool
}

// NewGroup builds a group from configured nodes and credentials.
func NewGroup(name string, nodes config.Nodes, cred config.Credentials, pool *remote.Pool) *Group {
	members := make(map[int]remote.TargetNode, len(nodes))
	for id, host := range nodes {
		members[id] = remote.NewTargetNode(host, cred.User, cred.Passwd, cred.PasswordLess)
	}
	return &Group{Name: name, Members: members, Pool: pool}
}

// IDs returns the member ids in ascending order.
func (g *Group) IDs() []int {
	ids := make([]int, 0, len(g.Members))
	for id := range g.Members {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Each applies fn to every member in id order. It never stops early; failures
// are aggregated, each annotated with the role, id and host.
func (g *Group) Each(fn func(id int, node remote.TargetNode) error) error {
	var result *multierror.Error
	for _, id := range g.IDs() {
		node := g.Members[id]
		if err := fn(id, node); err != nil {
			log.WithFields(log.Fields{"role": g.Name, "id": id, "host": node.Hostname}).
				WithError(err).Debug("member operation failed")
			result = multierror.Append(result, errors.Wrapf(err, "%s member %d (%s)", g.Name, id, node.Hostname))
		}
	}
	return result.ErrorOrNil()
}

// RunOnAll executes cmd on every member.
func (g *Group) RunOnAll(cmd string) error {
	return g.Each(func(id int, node remote.TargetNode) error {
		log.WithFields(log.Fields{"role": g.Name, "id": id, "host": node.Hostname}).Debugf("exec: %s", cmd)
		_, err := g.Pool.Execute(node, cmd)
		return err
	})
}

// PutOnAll uploads one local file to the same remote path on every member.
func (g *Group) PutOnAll(localPath, remotePath string) error {
	return g.Each(func(id int, node remote.TargetNode) error {
		log.WithFields(log.Fields{"role": g.Name, "id": id, "host": node.Hostname}).Debugf("put %s -> %s", localPath, remotePath)
		return g.Pool.Put(node, localPath, remotePath)
	})
}

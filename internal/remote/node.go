package remote

import (
	"fmt"
	"net"
	"strconv"
)

// TargetNode describes a remote host and how to authenticate against it.
// Hostname is the node's identity and the session-pool key.
type TargetNode struct {
	Hostname     string
	User         string
	Password     string
	PasswordLess bool
}

// NewTargetNode creates a node. The password is ignored for password-less nodes.
func NewTargetNode(hostname, user, password string, passwordLess bool) TargetNode {
	if passwordLess {
		password = ""
	}
	return TargetNode{
		Hostname:     hostname,
		User:         user,
		Password:     password,
		PasswordLess: passwordLess,
	}
}

// Address returns host:port, using defaultPort unless Hostname carries its own port.
func (n TargetNode) Address(defaultPort int) string {
	if _, _, err := net.SplitHostPort(n.Hostname); err == nil {
		return n.Hostname
	}
	return net.JoinHostPort(n.Hostname, strconv.Itoa(defaultPort))
}

func (n TargetNode) String() string {
	return fmt.Sprintf("%s@%s", n.User, n.Hostname)
}

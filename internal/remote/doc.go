// Package remote manages SSH sessions to benchmark hosts.
//
// A single Pool is created per process and shared by every role and the load
// controller. The pool keeps at most one session per hostname and never probes a
// cached session for liveness: every request for a session closes the cached one
// and dials a fresh connection. A stale session that silently fails halfway through
// a multi-hour benchmark costs far more than a reconnect.
//
// # Basic Usage
//
//	pool := remote.NewPool(remote.NewSSHDialer(remote.SSHConfig{Port: 22}))
//	defer pool.CloseAll()
//
//	node := remote.TargetNode{Hostname: "zk1", User: "bench", PasswordLess: true}
//	res, err := pool.Execute(node, "mkdir -p /tmp/zk")
//	if remote.IsCommandError(err) {
//	    // nonzero exit, res.Stderr holds the reason
//	}
//
// # Errors
//
// Failures are reported with three types:
//   - ConnectionError: dial or authentication failed
//   - RemoteCommandError: the command ran and exited nonzero
//   - TransferError: an SFTP upload or download failed
//
// No operation is retried.
package remote

package remote

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Operation names reported to an Observer.
const (
	OpExecute = "execute"
	OpPut     = "put"
	OpGet     = "get"
)

// Result is the outcome of a remote command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Session is an authenticated connection to one host.
type Session interface {
	// Run executes cmd and blocks until the remote exit status is known.
	// A nonzero exit is reported through Result.ExitCode, not through the error.
	Run(cmd string) (*Result, error)
	Upload(localPath, remotePath string) error
	Download(remotePath, localPath string) error
	Close() error
}

// Dialer opens sessions.
type Dialer interface {
	Dial(node TargetNode) (Session, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(node TargetNode) (Session, error)

// Dial calls f(node).
func (f DialerFunc) Dial(node TargetNode) (Session, error) { return f(node) }

// Observer receives the duration and outcome of every pool operation.
type Observer interface {
	Observe(op, host string, d time.Duration, err error)
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithObserver reports every operation to o.
func WithObserver(o Observer) PoolOption {
	return func(p *Pool) { p.observer = o }
}

// Pool owns at most one session per hostname.
//
// Sessions are replaced on access: there is no liveness probing, every request for a
// host's session closes the cached one (ignoring close errors) and dials anew.
// The pool is safe for concurrent use.
type Pool struct {
	dialer   Dialer
	observer Observer

	mu       sync.Mutex
	sessions map[string]Session
}

// NewPool creates a pool that dials through d.
func NewPool(d Dialer, opts ...PoolOption) *Pool {
	p := &Pool{
		dialer:   d,
		sessions: make(map[string]Session),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// acquire returns a freshly dialed session for node, closing any cached one first.
func (p *Pool) acquire(node TargetNode) (Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if old, ok := p.sessions[node.Hostname]; ok {
		_ = old.Close()
		delete(p.sessions, node.Hostname)
	}

	s, err := p.dialer.Dial(node)
	if err != nil {
		var connErr *ConnectionError
		if errors.As(err, &connErr) {
			return nil, err
		}
		return nil, &ConnectionError{Host: node.Hostname, Err: err}
	}
	log.WithField("host", node.Hostname).Debug("connected")
	p.sessions[node.Hostname] = s
	return s, nil
}

// Execute runs cmd on node. The result is returned alongside a RemoteCommandError
// when the command exits nonzero.
func (p *Pool) Execute(node TargetNode, cmd string) (res *Result, err error) {
	start := time.Now()
	defer func() { p.observe(OpExecute, node.Hostname, start, err) }()

	log.WithField("host", node.Hostname).Infof("execute: %s", cmd)
	s, err := p.acquire(node)
	if err != nil {
		return nil, err
	}

	res, err = s.Run(cmd)
	if err != nil {
		return nil, &ConnectionError{Host: node.Hostname, Err: errors.Wrap(err, "running command")}
	}
	if res.ExitCode != 0 {
		return res, &RemoteCommandError{
			Host:     node.Hostname,
			Command:  cmd,
			ExitCode: res.ExitCode,
			Stderr:   res.Stderr,
		}
	}
	return res, nil
}

// Put uploads localPath to remotePath on node. Uploads always go over a brand-new
// session so they never interleave with a command stuck on the previous one.
func (p *Pool) Put(node TargetNode, localPath, remotePath string) (err error) {
	start := time.Now()
	defer func() { p.observe(OpPut, node.Hostname, start, err) }()

	log.WithField("host", node.Hostname).Infof("copy %s -> %s", localPath, remotePath)
	if err := p.Close(node); err != nil {
		log.WithError(err).WithField("host", node.Hostname).Debug("closing session before upload")
	}
	s, err := p.acquire(node)
	if err != nil {
		return err
	}
	if err := s.Upload(localPath, remotePath); err != nil {
		return &TransferError{Host: node.Hostname, Source: localPath, Dest: remotePath, Err: err}
	}
	return nil
}

// Get downloads remotePath from node into localPath. Callers collecting optional
// artifacts should treat a TransferError as non-fatal.
func (p *Pool) Get(node TargetNode, remotePath, localPath string) (err error) {
	start := time.Now()
	defer func() { p.observe(OpGet, node.Hostname, start, err) }()

	log.WithField("host", node.Hostname).Infof("copy %s:%s -> %s", node.Hostname, remotePath, localPath)
	s, err := p.acquire(node)
	if err != nil {
		return err
	}
	if err := s.Download(remotePath, localPath); err != nil {
		return &TransferError{Host: node.Hostname, Source: remotePath, Dest: localPath, Err: err}
	}
	return nil
}

// Close closes and evicts the cached session for node. Closing a host with no
// cached session is a no-op.
func (p *Pool) Close(node TargetNode) error {
	p.mu.Lock()
	s, ok := p.sessions[node.Hostname]
	delete(p.sessions, node.Hostname)
	p.mu.Unlock()

	if !ok {
		return nil
	}
	log.WithField("host", node.Hostname).Debug("closing connection")
	return s.Close()
}

// CloseAll closes every cached session and returns the first close error.
func (p *Pool) CloseAll() error {
	p.mu.Lock()
	sessions := p.sessions
	p.sessions = make(map[string]Session)
	p.mu.Unlock()

	var first error
	for host, s := range sessions {
		if err := s.Close(); err != nil && first == nil {
			first = errors.Wrapf(err, "closing session to %s", host)
		}
	}
	return first
}

// Sessions returns the number of cached sessions.
func (p *Pool) Sessions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

func (p *Pool) observe(op, host string, start time.Time, err error) {
	if p.observer != nil {
		p.observer.Observe(op, host, time.Since(start), err)
	}
}

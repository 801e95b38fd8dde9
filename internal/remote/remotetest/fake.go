// Package remotetest provides an in-memory Dialer that records every call, for
// testing code built on remote.Pool without a network.
package remotetest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wesleyorama2/zkbench/internal/remote"
)

// Call is one recorded operation.
type Call struct {
	Host   string
	Op     string // "run", "upload", "download"
	Cmd    string
	Source string
	Dest   string
}

// Dialer records sessions and calls. Zero value is not usable; use NewDialer.
type Dialer struct {
	mu sync.Mutex

	calls    []Call
	dials    map[string]int
	open     map[string]int
	uploaded map[string]string

	// DialErr fails dialing the given hosts.
	DialErr map[string]error

	// ExitCodes maps a command substring to the exit code reported for matching commands.
	ExitCodes map[string]int

	// HostExitCodes is ExitCodes restricted to one host.
	HostExitCodes map[string]map[string]int

	// MissingRemote lists remote paths whose download fails.
	MissingRemote map[string]bool

	// Content is written to the local file on a successful download.
	Content string
}

// NewDialer creates an empty recording dialer.
func NewDialer() *Dialer {
	return &Dialer{
		dials:         make(map[string]int),
		open:          make(map[string]int),
		uploaded:      make(map[string]string),
		DialErr:       make(map[string]error),
		ExitCodes:     make(map[string]int),
		HostExitCodes: make(map[string]map[string]int),
		MissingRemote: make(map[string]bool),
		Content:       "bench-output\n",
	}
}

// Dial implements remote.Dialer.
func (d *Dialer) Dial(node remote.TargetNode) (remote.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.DialErr[node.Hostname]; err != nil {
		return nil, err
	}
	d.dials[node.Hostname]++
	d.open[node.Hostname]++
	return &session{dialer: d, host: node.Hostname}, nil
}

// Calls returns every recorded call in order.
func (d *Dialer) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Call, len(d.calls))
	copy(out, d.calls)
	return out
}

// Commands returns the commands run on host, in order. An empty host returns all.
func (d *Dialer) Commands(host string) []string {
	var cmds []string
	for _, c := range d.Calls() {
		if c.Op == "run" && (host == "" || c.Host == host) {
			cmds = append(cmds, c.Cmd)
		}
	}
	return cmds
}

// CommandsMatching returns every command containing substr.
func (d *Dialer) CommandsMatching(substr string) []Call {
	var out []Call
	for _, c := range d.Calls() {
		if c.Op == "run" && strings.Contains(c.Cmd, substr) {
			out = append(out, c)
		}
	}
	return out
}

// Uploads returns every upload call.
func (d *Dialer) Uploads() []Call {
	var out []Call
	for _, c := range d.Calls() {
		if c.Op == "upload" {
			out = append(out, c)
		}
	}
	return out
}

// Uploaded returns the content uploaded to host:remotePath.
func (d *Dialer) Uploaded(host, remotePath string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.uploaded[host+":"+remotePath]
	return c, ok
}

// Dials returns how many sessions were opened for host.
func (d *Dialer) Dials(host string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials[host]
}

// Open returns how many sessions for host are currently not closed.
func (d *Dialer) Open(host string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open[host]
}

func (d *Dialer) record(c Call) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, c)
}

type session struct {
	dialer *Dialer
	host   string
	closed bool
}

func (s *session) isClosed() bool {
	s.dialer.mu.Lock()
	defer s.dialer.mu.Unlock()
	return s.closed
}

func (s *session) Run(cmd string) (*remote.Result, error) {
	if s.isClosed() {
		return nil, fmt.Errorf("session to %s is closed", s.host)
	}
	s.dialer.record(Call{Host: s.host, Op: "run", Cmd: cmd})

	s.dialer.mu.Lock()
	defer s.dialer.mu.Unlock()
	for substr, code := range s.dialer.ExitCodes {
		if strings.Contains(cmd, substr) {
			return &remote.Result{ExitCode: code, Stderr: "failed"}, nil
		}
	}
	for substr, code := range s.dialer.HostExitCodes[s.host] {
		if strings.Contains(cmd, substr) {
			return &remote.Result{ExitCode: code, Stderr: "failed"}, nil
		}
	}
	return &remote.Result{}, nil
}

func (s *session) Upload(localPath, remotePath string) error {
	if s.isClosed() {
		return fmt.Errorf("session to %s is closed", s.host)
	}
	s.dialer.record(Call{Host: s.host, Op: "upload", Source: localPath, Dest: remotePath})

	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	s.dialer.mu.Lock()
	s.dialer.uploaded[s.host+":"+remotePath] = string(data)
	s.dialer.mu.Unlock()
	return nil
}

func (s *session) Download(remotePath, localPath string) error {
	if s.isClosed() {
		return fmt.Errorf("session to %s is closed", s.host)
	}
	s.dialer.record(Call{Host: s.host, Op: "download", Source: remotePath, Dest: localPath})

	s.dialer.mu.Lock()
	missing := s.dialer.MissingRemote[remotePath]
	content := s.dialer.Content
	s.dialer.mu.Unlock()
	if missing {
		return fmt.Errorf("%s: no such file", remotePath)
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(localPath, []byte(content), 0644)
}

func (s *session) Close() error {
	s.dialer.mu.Lock()
	defer s.dialer.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.dialer.open[s.host]--
	return nil
}

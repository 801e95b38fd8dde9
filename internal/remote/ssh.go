package remote

import (
	"bytes"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SSHConfig holds transport settings shared by every host.
type SSHConfig struct {
	// Port used when a hostname carries no port (default: 22)
	Port int

	// ConnectTimeout bounds the TCP dial and handshake (default: 10s)
	ConnectTimeout time.Duration

	// KnownHosts is a known_hosts file. Host keys are accepted unchecked when empty.
	KnownHosts string

	// KeyFiles are private keys tried for password-less nodes. When empty the usual
	// ~/.ssh/id_* files are tried.
	KeyFiles []string
}

var defaultKeyFiles = []string{"id_ed25519", "id_ecdsa", "id_rsa"}

// SSHDialer dials sessions over SSH.
type SSHDialer struct {
	config SSHConfig
}

// NewSSHDialer creates a dialer, applying defaults to zero-valued settings.
func NewSSHDialer(config SSHConfig) *SSHDialer {
	if config.Port == 0 {
		config.Port = 22
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 10 * time.Second
	}
	return &SSHDialer{config: config}
}

// Dial connects and authenticates against node.
func (d *SSHDialer) Dial(node TargetNode) (Session, error) {
	hostKeyCallback, err := d.hostKeyCallback()
	if err != nil {
		return nil, &ConnectionError{Host: node.Hostname, Err: err}
	}

	auth, err := d.authMethods(node)
	if err != nil {
		return nil, &ConnectionError{Host: node.Hostname, Err: err}
	}

	clientConfig := &ssh.ClientConfig{
		User:            node.User,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         d.config.ConnectTimeout,
	}

	client, err := ssh.Dial("tcp", node.Address(d.config.Port), clientConfig)
	if err != nil {
		return nil, &ConnectionError{Host: node.Hostname, Err: err}
	}
	return &sshSession{client: client}, nil
}

func (d *SSHDialer) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if d.config.KnownHosts == "" {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	cb, err := knownhosts.New(d.config.KnownHosts)
	if err != nil {
		return nil, errors.Wrapf(err, "loading known hosts %s", d.config.KnownHosts)
	}
	return cb, nil
}

func (d *SSHDialer) authMethods(node TargetNode) ([]ssh.AuthMethod, error) {
	if !node.PasswordLess {
		return []ssh.AuthMethod{ssh.Password(node.Password)}, nil
	}

	var methods []ssh.AuthMethod
	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if conn, err := net.Dial("unix", sock); err == nil {
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		} else {
			log.WithError(err).Debug("ssh agent unavailable")
		}
	}

	var signers []ssh.Signer
	for _, path := range d.keyFiles() {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		signer, err := ssh.ParsePrivateKey(data)
		if err != nil {
			log.WithError(err).WithField("key", path).Warn("skipping unreadable private key")
			continue
		}
		signers = append(signers, signer)
	}
	if len(signers) > 0 {
		methods = append(methods, ssh.PublicKeys(signers...))
	}

	if len(methods) == 0 {
		return nil, errors.New("no ssh agent or private key available for password-less login")
	}
	return methods, nil
}

func (d *SSHDialer) keyFiles() []string {
	if len(d.config.KeyFiles) > 0 {
		return d.config.KeyFiles
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	files := make([]string, 0, len(defaultKeyFiles))
	for _, name := range defaultKeyFiles {
		files = append(files, filepath.Join(home, ".ssh", name))
	}
	return files
}

type sshSession struct {
	client *ssh.Client
}

func (s *sshSession) Run(cmd string) (*Result, error) {
	session, err := s.client.NewSession()
	if err != nil {
		return nil, errors.Wrap(err, "opening session channel")
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	res := &Result{}
	if err := session.Run(cmd); err != nil {
		var exitErr *ssh.ExitError
		if !errors.As(err, &exitErr) {
			return nil, err
		}
		res.ExitCode = exitErr.ExitStatus()
	}
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	return res, nil
}

func (s *sshSession) Upload(localPath, remotePath string) error {
	client, err := sftp.NewClient(s.client)
	if err != nil {
		return errors.Wrap(err, "opening sftp channel")
	}
	defer client.Close()

	src, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := client.Create(remotePath)
	if err != nil {
		return errors.Wrapf(err, "creating %s", remotePath)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return errors.Wrapf(err, "writing %s", remotePath)
	}
	return dst.Close()
}

func (s *sshSession) Download(remotePath, localPath string) error {
	client, err := sftp.NewClient(s.client)
	if err != nil {
		return errors.Wrap(err, "opening sftp channel")
	}
	defer client.Close()

	src, err := client.Open(remotePath)
	if err != nil {
		return errors.Wrapf(err, "opening %s", remotePath)
	}
	defer src.Close()

	if dir := filepath.Dir(localPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	dst, err := os.Create(localPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return errors.Wrapf(err, "reading %s", remotePath)
	}
	return dst.Close()
}

func (s *sshSession) Close() error {
	return s.client.Close()
}

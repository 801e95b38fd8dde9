package remote

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// ConnectionError reports a failure to dial or authenticate against a host.
type ConnectionError struct {
	Host string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to %s failed: %v", e.Host, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// RemoteCommandError reports a command that ran but exited with a nonzero status.
type RemoteCommandError struct {
	Host     string
	Command  string
	ExitCode int
	Stderr   string
}

func (e *RemoteCommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("command on %s exited with status %d: %s", e.Host, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("command on %s exited with status %d", e.Host, e.ExitCode)
}

// TransferError reports a failed upload or download.
type TransferError struct {
	Host   string
	Source string
	Dest   string
	Err    error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer %s -> %s on %s failed: %v", e.Source, e.Dest, e.Host, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// IsConnectionError reports whether err wraps a ConnectionError.
func IsConnectionError(err error) bool {
	var target *ConnectionError
	return errors.As(err, &target)
}

// IsCommandError reports whether err wraps a RemoteCommandError.
func IsCommandError(err error) bool {
	var target *RemoteCommandError
	return errors.As(err, &target)
}

// IsTransferError reports whether err wraps a TransferError.
func IsTransferError(err error) bool {
	var target *TransferError
	return errors.As(err, &target)
}

// IgnoreCommandErrors drops RemoteCommandErrors from err. Aggregated errors are
// filtered member by member; nil is returned when nothing else remains.
func IgnoreCommandErrors(err error) error {
	if err == nil {
		return nil
	}
	var merr *multierror.Error
	if errors.As(err, &merr) {
		var kept *multierror.Error
		for _, e := range merr.Errors {
			if !IsCommandError(e) {
				kept = multierror.Append(kept, e)
			}
		}
		return kept.ErrorOrNil()
	}
	if IsCommandError(err) {
		return nil
	}
	return err
}

package remote

import (
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIgnoreCommandErrors(t *testing.T) {
	cmdErr := &RemoteCommandError{Host: "h1", ExitCode: 1}
	connErr := &ConnectionError{Host: "h2", Err: errors.New("refused")}

	tests := []struct {
		name    string
		err     error
		wantNil bool
	}{
		{name: "nil", err: nil, wantNil: true},
		{name: "command error", err: cmdErr, wantNil: true},
		{name: "wrapped command error", err: errors.Wrap(cmdErr, "stop"), wantNil: true},
		{name: "connection error", err: connErr, wantNil: false},
		{name: "only command errors", err: multierror.Append(nil, cmdErr, cmdErr), wantNil: true},
		{name: "mixed", err: multierror.Append(nil, cmdErr, connErr), wantNil: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IgnoreCommandErrors(tt.err)
			if tt.wantNil {
				assert.NoError(t, got)
			} else {
				assert.Error(t, got)
				assert.True(t, IsConnectionError(got))
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "command on h1 exited with status 2: boom",
		(&RemoteCommandError{Host: "h1", ExitCode: 2, Stderr: "boom"}).Error())
	assert.Equal(t, "command on h1 exited with status 2",
		(&RemoteCommandError{Host: "h1", ExitCode: 2}).Error())
	assert.Equal(t, "connection to h1 failed: refused",
		(&ConnectionError{Host: "h1", Err: errors.New("refused")}).Error())

	terr := &TransferError{Host: "h1", Source: "a", Dest: "b", Err: errors.New("eof")}
	assert.Equal(t, "transfer a -> b on h1 failed: eof", terr.Error())
	assert.True(t, IsTransferError(errors.Wrap(terr, "collect")))
}

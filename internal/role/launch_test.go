package role

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLaunch_Command(t *testing.T) {
	l := Launch{
		Interpreter: "java",
		Options:     []string{"-Dzookeeper.digest.enabled=false"},
		Properties:  []Property{{Name: "snapDir", Value: "/tmp/data"}},
		Jar:         "/tmp/zk.jar",
		Args:        []string{"generateLoad", "h1:2181"},
		Stdin:       "/tmp/load.dat",
		Stdout:      "/tmp/lm.out",
	}

	cmd := l.Command()
	assert.True(t, strings.HasPrefix(cmd, "java -Dzookeeper.digest.enabled=false -DsnapDir=/tmp/data -jar /tmp/zk.jar generateLoad"))
	assert.Contains(t, cmd, " < /tmp/load.dat")
	assert.True(t, strings.HasSuffix(cmd, " > /tmp/lm.out 2>&1 &"))
}

func TestLaunch_CommandQuotesArguments(t *testing.T) {
	l := Launch{
		Interpreter: "java",
		Properties:  []Property{{Name: "whitelist", Value: "*"}},
		Jar:         "/tmp/my dir/zk.jar",
	}
	cmd := l.Command()
	assert.NotContains(t, cmd, " -Dwhitelist=* ")
	assert.NotContains(t, cmd, " /tmp/my dir/zk.jar ")
	assert.True(t, strings.HasSuffix(cmd, " > /dev/null 2>&1 &"))
}

func TestTerminateCommand(t *testing.T) {
	cmd := TerminateCommand("/tmp/reg/zk.jar server", "extra")
	assert.True(t, strings.HasPrefix(cmd, "ps aux | grep -v grep | grep -F "))
	assert.Contains(t, cmd, "zk.jar server")
	assert.Contains(t, cmd, "| grep -F extra |")
	assert.True(t, strings.HasSuffix(cmd, "| awk '{print $2}' | xargs kill -9"))
	assert.Equal(t, 3, strings.Count(cmd, "| grep"))
}

func TestSplitFlags(t *testing.T) {
	tests := []struct {
		in   string
		want []string
		ok   bool
	}{
		{"", nil, true},
		{"   ", nil, true},
		{"-Xmx1g -Da=b", []string{"-Xmx1g", "-Da=b"}, true},
		{`-Da="x y"`, []string{"-Da=x y"}, true},
		{`-Da="x`, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := SplitFlags(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wesleyorama2/zkbench/internal/events"
	"github.com/wesleyorama2/zkbench/internal/metrics"
	"github.com/wesleyorama2/zkbench/internal/orchestrator"
)

func TestConsole_Render(t *testing.T) {
	tests := []struct {
		name  string
		event events.Event
		want  string
	}{
		{"phase finished", events.NewPhaseFinishedEvent("setup", "registry", nil), "✓ setup registry\n"},
		{"phase tolerated", events.NewPhaseFinishedEvent("stop", "client-containers", errors.New("exit 123\nmore")), "⚠ stop client-containers exit 123\n"},
		{"phase failed", events.NewPhaseFailedEvent("setup", "registry", errors.New("refused")), "✗ setup registry refused\n"},
		{"teardown", events.NewPhaseFinishedEvent("teardown", "", nil), "✓ teardown\n"},
		{"skipped", events.NewVariantSkippedEvent("NA_1024KiB"), "ℹ NA_1024KiB already collected\n"},
		{"collected", events.NewArtifactCollectedEvent("v", "/r/1.v"), "  collected /r/1.v\n"},
		{"finished", events.NewVariantFinishedEvent("v", 90*time.Second, nil), "✓ v finished in 1m30s\n"},
		{"phase started is silent", events.NewPhaseStartedEvent("setup", "registry"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewConsole(&buf, true).Render(tt.event)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestConsole_Follow(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, true)

	bus := events.NewBus()
	done := c.Follow(bus.Subscribe())
	bus.Publish(events.NewVariantStartedEvent("NA_1024KiB", 1, 2))
	bus.Close()
	<-done

	assert.Contains(t, buf.String(), "ℹ [1/2] NA_1024KiB")
}

func TestConsole_PrintSummary(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, true)

	m := &orchestrator.Manifest{
		Runs: []orchestrator.RunRecord{
			{Label: "NA_1024KiB", Collected: true, Artifact: "/r/1.NA_1024KiB", Duration: 2 * time.Minute},
			{Label: "NA_2048KiB", Error: "transfer failed"},
		},
		Metrics: &metrics.Snapshot{Operations: []metrics.LatencyStats{
			{Operation: "execute", Count: 10, Mean: 5 * time.Millisecond},
		}},
	}
	c.PrintSummary(m)

	out := buf.String()
	assert.Contains(t, out, "1 of 2 variants collected")
	assert.Contains(t, out, "/r/1.NA_1024KiB")
	assert.Contains(t, out, "transfer failed")
	assert.Contains(t, out, "execute")
	assert.Contains(t, out, "5.0ms")
	assert.False(t, strings.Contains(out, "\x1b["))
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{500 * time.Microsecond, "500µs"},
		{1500 * time.Microsecond, "1.5ms"},
		{2500 * time.Millisecond, "2.50s"},
		{61 * time.Second, "1m1s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.in))
	}
}

func TestNoColorScheme(t *testing.T) {
	s := NoColorScheme()
	assert.Equal(t, "x", s.Error.Sprint("x"))
	assert.Equal(t, "✓", SuccessIcon(true))
}

func TestIsTerminal(t *testing.T) {
	t.Setenv("FORCE_COLOR", "")
	t.Setenv("NO_COLOR", "")
	assert.False(t, IsTerminal(&bytes.Buffer{}))
	assert.False(t, UseColor(&bytes.Buffer{}, false))
	assert.False(t, UseColor(&bytes.Buffer{}, true))
}

// Package output renders experiment progress and summaries on the console.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/wesleyorama2/zkbench/internal/events"
	"github.com/wesleyorama2/zkbench/internal/metrics"
	"github.com/wesleyorama2/zkbench/internal/orchestrator"
)

const ruleWidth = 56

// Console prints lifecycle events as they happen.
type Console struct {
	mu      sync.Mutex
	w       io.Writer
	scheme  *ColorScheme
	noColor bool
}

// NewConsole creates a console writing to w (default: os.Stdout). Colors are
// used only on terminals unless disabled.
func NewConsole(w io.Writer, noColor bool) *Console {
	if w == nil {
		w = os.Stdout
	}
	c := &Console{w: w}
	if UseColor(w, noColor) {
		c.scheme = DefaultColorScheme()
		for _, col := range []*color.Color{
			c.scheme.Phase, c.scheme.Role, c.scheme.Variant, c.scheme.Path,
			c.scheme.Success, c.scheme.Warn, c.scheme.Error, c.scheme.Dim, c.scheme.Highlight,
		} {
			col.EnableColor()
		}
	} else {
		c.scheme = NoColorScheme()
		c.noColor = true
	}
	return c
}

func (c *Console) writeln(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, s)
}

// Follow renders events from ch until it is closed. The returned channel is
// closed once every event has been written.
func (c *Console) Follow(ch <-chan events.Event) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range ch {
			c.Render(e)
		}
	}()
	return done
}

// Render prints one event. Phase starts are not printed.
func (c *Console) Render(e events.Event) {
	s := c.scheme
	switch e.Type {
	case events.EventPhaseFinished:
		if e.Role == "" {
			c.writeln(fmt.Sprintf("%s %s", SuccessIcon(c.noColor), s.Phase.Sprint(e.Phase)))
			return
		}
		if e.Data.Error != "" {
			c.writeln(fmt.Sprintf("%s %s %s %s", WarningIcon(c.noColor), s.Phase.Sprint(e.Phase),
				s.Role.Sprint(e.Role), s.Warn.Sprint(firstLine(e.Data.Error))))
			return
		}
		c.writeln(fmt.Sprintf("%s %s %s", SuccessIcon(c.noColor), s.Phase.Sprint(e.Phase), s.Role.Sprint(e.Role)))
	case events.EventPhaseFailed:
		c.writeln(fmt.Sprintf("%s %s %s %s", ErrorIcon(c.noColor), s.Phase.Sprint(e.Phase),
			s.Role.Sprint(e.Role), s.Error.Sprint(firstLine(e.Data.Error))))
	case events.EventVariantStarted:
		c.writeln(s.Dim.Sprint(strings.Repeat("━", ruleWidth)))
		c.writeln(fmt.Sprintf("%s [%d/%d] %s", InfoIcon(c.noColor), e.Data.Index, e.Data.Total, s.Variant.Sprint(e.Variant)))
	case events.EventVariantFinished:
		if e.Data.Error != "" {
			c.writeln(fmt.Sprintf("%s %s failed after %s: %s", ErrorIcon(c.noColor), s.Variant.Sprint(e.Variant),
				formatDuration(e.Data.Duration), s.Error.Sprint(firstLine(e.Data.Error))))
			return
		}
		c.writeln(fmt.Sprintf("%s %s finished in %s", SuccessIcon(c.noColor), s.Variant.Sprint(e.Variant),
			formatDuration(e.Data.Duration)))
	case events.EventVariantSkipped:
		c.writeln(fmt.Sprintf("%s %s %s", InfoIcon(c.noColor), s.Variant.Sprint(e.Variant), s.Dim.Sprint("already collected")))
	case events.EventArtifactCollected:
		c.writeln(fmt.Sprintf("  collected %s", s.Path.Sprint(e.Data.Path)))
	case events.EventArtifactMissing:
		c.writeln(fmt.Sprintf("%s %s %s", WarningIcon(c.noColor), s.Warn.Sprint("bench data missing:"), firstLine(e.Data.Error)))
	}
}

// PrintSummary prints the outcome of every run and the remote latency table.
func (c *Console) PrintSummary(m *orchestrator.Manifest) {
	s := c.scheme
	c.writeln(s.Dim.Sprint(strings.Repeat("━", ruleWidth)))
	c.writeln(s.Highlight.Sprint("Summary"))
	for _, r := range m.Runs {
		icon := SuccessIcon(c.noColor)
		detail := s.Path.Sprint(r.Artifact)
		if !r.Collected {
			icon = ErrorIcon(c.noColor)
			detail = s.Error.Sprint(firstLine(r.Error))
		}
		c.writeln(fmt.Sprintf("  %s %-28s %8s  %s", icon, r.Label, formatDuration(r.Duration), detail))
	}
	c.writeln(fmt.Sprintf("  %d of %d variants collected", m.Collected(), len(m.Runs)))

	if m.Metrics != nil && len(m.Metrics.Operations) > 0 {
		c.PrintLatency(m.Metrics)
	}
}

// PrintLatency prints per-operation remote call statistics.
func (c *Console) PrintLatency(snap *metrics.Snapshot) {
	c.writeln("")
	c.writeln(fmt.Sprintf("  %-8s %6s %6s %10s %10s %10s %10s", "op", "count", "fail", "mean", "p50", "p95", "max"))
	for _, op := range snap.Operations {
		c.writeln(fmt.Sprintf("  %-8s %6d %6d %10s %10s %10s %10s", op.Operation, op.Count, op.Failures,
			formatDuration(op.Mean), formatDuration(op.P50), formatDuration(op.P95), formatDuration(op.Max)))
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// formatDuration formats a duration with a precision suited to its size.
func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "0s"
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	default:
		return d.Round(time.Second).String()
	}
}

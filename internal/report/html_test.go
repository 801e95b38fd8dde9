package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/zkbench/internal/metrics"
	"github.com/wesleyorama2/zkbench/internal/orchestrator"
)

func sampleManifest() *orchestrator.Manifest {
	started := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return &orchestrator.Manifest{
		Started:  started,
		Finished: started.Add(time.Hour),
		Runs: []orchestrator.RunRecord{
			{
				Label:     "SHA_PD-True_2048KiB",
				Variant:   orchestrator.Variant{Digest: true, Algorithm: "SHA", Predictive: true, RequestSize: 2048},
				Collected: true,
				Artifact:  "/r/20240102030405.SHA_PD-True_2048KiB",
				Duration:  2 * time.Minute,
			},
			{
				Label:    "NA_1024KiB",
				Variant:  orchestrator.Variant{RequestSize: 1024},
				Error:    "transfer <failed>",
				Duration: 90 * time.Second,
			},
		},
		Metrics: &metrics.Snapshot{Operations: []metrics.LatencyStats{
			{Operation: "execute", Count: 3, P95: 12 * time.Millisecond},
		}},
	}
}

func TestGenerateHTMLString(t *testing.T) {
	html, err := GenerateHTMLString(sampleManifest(), "digest sweep")
	require.NoError(t, err)

	assert.Contains(t, html, "<title>digest sweep - Benchmark Report</title>")
	assert.Contains(t, html, "SHA_PD-True_2048KiB")
	assert.Contains(t, html, "1024 KiB requests")
	assert.Contains(t, html, "transfer &lt;failed&gt;")
	assert.Contains(t, html, "12.0ms")
	assert.Contains(t, html, `"label":"NA_1024KiB"`)

	// groups are ordered by request size
	assert.Less(t, strings.Index(html, "1024 KiB requests"), strings.Index(html, "2048 KiB requests"))
}

func TestGenerateHTMLString_Nil(t *testing.T) {
	_, err := GenerateHTMLString(nil, "x")
	assert.Error(t, err)
}

func TestGenerateHTML_WritesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, GenerateHTML(&orchestrator.Manifest{}, "empty", out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<h1>empty</h1>")
	assert.Contains(t, string(data), "const runs = [];")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "500ms", formatDuration(500*time.Millisecond))
	assert.Equal(t, "1m 30s", formatDuration(90*time.Second))
	assert.Equal(t, "2h", formatDuration(2*time.Hour))
	assert.Equal(t, "0", formatLatency(0))
	assert.Equal(t, "250µs", formatLatency(250*time.Microsecond))
	assert.Equal(t, "1.50ms", formatLatency(1500*time.Microsecond))
	assert.Equal(t, "-", formatTime(time.Time{}))
	assert.Equal(t, "none", algorithm(orchestrator.Variant{}))
}

// Package report renders the HTML summary of an experiment's manifest.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"sort"
	"time"

	"github.com/wesleyorama2/zkbench/internal/orchestrator"
)

// ReportData contains all data needed to render the HTML report.
type ReportData struct {
	*orchestrator.Manifest
	Title     string
	Generated time.Time
	Groups    []SizeGroup
	RunsJSON  template.JS
}

// SizeGroup is the runs of one request size, in run order.
type SizeGroup struct {
	RequestSize int
	Runs        []orchestrator.RunRecord
}

// chartPoint is one bar of the duration chart.
type chartPoint struct {
	Label     string  `json:"label"`
	Seconds   float64 `json:"seconds"`
	Collected bool    `json:"collected"`
}

// GenerateHTML renders the manifest and writes it to outputPath.
func GenerateHTML(m *orchestrator.Manifest, title, outputPath string) error {
	html, err := GenerateHTMLString(m, title)
	if err != nil {
		return fmt.Errorf("failed to generate HTML: %w", err)
	}

	if err := os.WriteFile(outputPath, []byte(html), 0644); err != nil {
		return fmt.Errorf("failed to write HTML file: %w", err)
	}

	return nil
}

// GenerateHTMLString renders the manifest and returns it as a string.
func GenerateHTMLString(m *orchestrator.Manifest, title string) (string, error) {
	if m == nil {
		return "", fmt.Errorf("manifest cannot be nil")
	}

	tmpl, err := template.New("report").Funcs(templateFuncs()).Parse(htmlTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	runsJSON, err := convertRunsJSON(m.Runs)
	if err != nil {
		return "", fmt.Errorf("failed to convert runs: %w", err)
	}

	data := ReportData{
		Manifest:  m,
		Title:     title,
		Generated: time.Now(),
		Groups:    groupBySize(m.Runs),
		RunsJSON:  template.JS(runsJSON),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

func groupBySize(runs []orchestrator.RunRecord) []SizeGroup {
	index := map[int]int{}
	var groups []SizeGroup
	for _, r := range runs {
		i, ok := index[r.Variant.RequestSize]
		if !ok {
			i = len(groups)
			index[r.Variant.RequestSize] = i
			groups = append(groups, SizeGroup{RequestSize: r.Variant.RequestSize})
		}
		groups[i].Runs = append(groups[i].Runs, r)
	}
	sort.SliceStable(groups, func(a, b int) bool { return groups[a].RequestSize < groups[b].RequestSize })
	return groups
}

func convertRunsJSON(runs []orchestrator.RunRecord) (string, error) {
	points := make([]chartPoint, len(runs))
	for i, r := range runs {
		points[i] = chartPoint{Label: r.Label, Seconds: r.Duration.Seconds(), Collected: r.Collected}
	}
	b, err := json.Marshal(points)
	if err != nil {
		return "[]", err
	}
	return string(b), nil
}

// templateFuncs returns the template helper functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatDuration": formatDuration,
		"formatLatency":  formatLatency,
		"formatTime":     formatTime,
		"algorithm":      algorithm,
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		secs := int(d.Seconds()) % 60
		if secs == 0 {
			return fmt.Sprintf("%dm", mins)
		}
		return fmt.Sprintf("%dm %ds", mins, secs)
	}
	hours := int(d.Hours())
	mins := int(d.Minutes()) % 60
	if mins == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, mins)
}

// formatLatency formats a latency duration in a human-readable way.
func formatLatency(d time.Duration) string {
	if d == 0 {
		return "0"
	}
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		ms := float64(d.Microseconds()) / 1000.0
		if ms < 10 {
			return fmt.Sprintf("%.2fms", ms)
		}
		return fmt.Sprintf("%.1fms", ms)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func algorithm(v orchestrator.Variant) string {
	if !v.Digest {
		return "none"
	}
	return v.Algorithm
}

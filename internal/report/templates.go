package report

// htmlTemplate is the main HTML template for the report
const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}} - Benchmark Report</title>
    <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
    <style>
        :root {
            --bg-secondary: #f8fafc;
            --bg-card: #ffffff;
            --text-primary: #1e293b;
            --text-secondary: #64748b;
            --border-color: #e2e8f0;
            --accent-success: #22c55e;
            --accent-error: #ef4444;
            --shadow: 0 1px 3px rgba(0, 0, 0, 0.1);
        }
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background-color: var(--bg-secondary);
            color: var(--text-primary);
            line-height: 1.6;
        }
        .container { max-width: 1400px; margin: 0 auto; padding: 2rem; }
        .card {
            background: var(--bg-card);
            border: 1px solid var(--border-color);
            border-radius: 0.5rem;
            box-shadow: var(--shadow);
            padding: 1.5rem;
            margin-bottom: 1.5rem;
        }
        .stats { display: grid; grid-template-columns: repeat(auto-fit, minmax(180px, 1fr)); gap: 1rem; }
        .stat-label { color: var(--text-secondary); font-size: 0.85rem; }
        .stat-value { font-size: 1.5rem; font-weight: 600; }
        table { width: 100%; border-collapse: collapse; }
        th, td { text-align: left; padding: 0.5rem; border-bottom: 1px solid var(--border-color); }
        th { color: var(--text-secondary); font-weight: 500; }
        .ok { color: var(--accent-success); }
        .failed { color: var(--accent-error); }
        .mono { font-family: ui-monospace, SFMono-Regular, Menlo, monospace; font-size: 0.85rem; }
    </style>
</head>
<body>
<div class="container">
    <div class="card">
        <h1>{{.Title}}</h1>
        <div class="stats">
            <div><div class="stat-label">Started</div><div class="stat-value">{{formatTime .Started}}</div></div>
            <div><div class="stat-label">Finished</div><div class="stat-value">{{formatTime .Finished}}</div></div>
            <div><div class="stat-label">Variants</div><div class="stat-value">{{len .Runs}}</div></div>
            <div><div class="stat-label">Collected</div><div class="stat-value">{{.Collected}}</div></div>
        </div>
    </div>

    <div class="card">
        <h2>Run durations</h2>
        <canvas id="durations" height="90"></canvas>
    </div>

    {{range .Groups}}
    <div class="card">
        <h2>{{.RequestSize}} KiB requests</h2>
        <table>
            <thead><tr><th>Variant</th><th>Algorithm</th><th>Predictive</th><th>Started</th><th>Duration</th><th>Artifact</th></tr></thead>
            <tbody>
            {{range .Runs}}
            <tr>
                <td class="mono">{{.Label}}</td>
                <td>{{algorithm .Variant}}</td>
                <td>{{if .Variant.Digest}}{{.Variant.Predictive}}{{else}}-{{end}}</td>
                <td>{{formatTime .Started}}</td>
                <td>{{formatDuration .Duration}}</td>
                <td>{{if .Collected}}<span class="ok mono">{{.Artifact}}</span>{{else}}<span class="failed">{{.Error}}</span>{{end}}</td>
            </tr>
            {{end}}
            </tbody>
        </table>
    </div>
    {{end}}

    {{if .Metrics}}
    <div class="card">
        <h2>Remote operations</h2>
        <table>
            <thead><tr><th>Operation</th><th>Count</th><th>Failures</th><th>Mean</th><th>P50</th><th>P95</th><th>P99</th><th>Max</th></tr></thead>
            <tbody>
            {{range .Metrics.Operations}}
            <tr>
                <td>{{.Operation}}</td>
                <td>{{.Count}}</td>
                <td>{{.Failures}}</td>
                <td>{{formatLatency .Mean}}</td>
                <td>{{formatLatency .P50}}</td>
                <td>{{formatLatency .P95}}</td>
                <td>{{formatLatency .P99}}</td>
                <td>{{formatLatency .Max}}</td>
            </tr>
            {{end}}
            </tbody>
        </table>
    </div>
    {{end}}

    <p class="stat-label">Generated {{formatTime .Generated}}</p>
</div>
<script>
    const runs = {{.RunsJSON}};
    new Chart(document.getElementById('durations'), {
        type: 'bar',
        data: {
            labels: runs.map(r => r.label),
            datasets: [{
                label: 'seconds',
                data: runs.map(r => r.seconds),
                backgroundColor: runs.map(r => r.collected ? '#3b82f6' : '#ef4444')
            }]
        },
        options: { plugins: { legend: { display: false } } }
    });
</script>
</body>
</html>
`

package health

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
)

var dashboardTmpl = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"deref": func(p *int64) int64 { return *p },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>StableBricks · API Status</title>
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <meta http-equiv="refresh" content="30">
  <style>
    :root { --brick: #B5472F; --ink: #1F2933; --ok: #1E8E5A; --bad: #C0392B; --bg: #F6F4F1; --muted: #6B7280; }
    body { background: var(--bg); color: var(--ink); font-family: system-ui, sans-serif; margin: 0; padding: 40px 16px; }
    main { max-width: 880px; margin: 0 auto; }
    h1 { font-size: 28px; margin: 0 0 4px; }
    h1 span { color: var(--brick); }
    .status { display: inline-block; padding: 4px 12px; border-radius: 999px; font-weight: 700; color: #fff; }
    .status.ok { background: var(--ok); }
    .status.issue { background: var(--bad); }
    .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(180px, 1fr)); gap: 12px; margin: 24px 0; }
    .card { background: #fff; border-radius: 12px; padding: 16px; box-shadow: 0 1px 3px rgba(0,0,0,.08); }
    .label { color: var(--muted); font-size: 12px; text-transform: uppercase; letter-spacing: .05em; }
    .value { font-size: 22px; font-weight: 700; margin-top: 4px; }
    table { width: 100%; border-collapse: collapse; background: #fff; border-radius: 12px; overflow: hidden; }
    td, th { text-align: left; padding: 10px 14px; border-bottom: 1px solid #eee; }
    .connected, .reachable { color: var(--ok); font-weight: 600; }
    .error, .disconnected, .unreachable { color: var(--bad); font-weight: 600; }
    footer { color: var(--muted); font-size: 12px; margin-top: 24px; }
  </style>
</head>
<body>
<main>
  <h1>Stable<span>Bricks</span> API</h1>
  <p><span class="status {{.Status}}">{{if eq .Status "ok"}}All systems operational{{else}}Degraded{{end}}</span></p>

  <div class="grid">
    <div class="card"><div class="label">Uptime</div><div class="value">{{.Uptime}}</div></div>
    <div class="card"><div class="label">Requests</div><div class="value">{{.Traffic.TotalRequests}}</div></div>
    <div class="card"><div class="label">Success rate</div><div class="value">{{.Traffic.SuccessRate}}%</div></div>
    <div class="card"><div class="label">Avg response</div><div class="value">{{.Traffic.AvgResponseTime}} ms</div></div>
    <div class="card"><div class="label">Heap</div><div class="value">{{.Runtime.Memory.HeapUsed}} MB</div></div>
    <div class="card"><div class="label">Goroutines</div><div class="value">{{.Runtime.Goroutines}}</div></div>
  </div>

  <table>
    <tr><th>Dependency</th><th>Status</th><th>Ping</th></tr>
    {{range .Deps}}
    <tr><td>{{.Name}}</td><td class="{{.Status}}">{{.Status}}</td><td>{{if .PingMs}}{{deref .PingMs}} ms{{else}}-{{end}}</td></tr>
    {{end}}
  </table>

  {{with .Traffic.LastRequest}}
  <footer>Last request: {{index . "method"}} {{index . "path"}} from {{index . "ip"}}</footer>
  {{end}}
  <footer>{{.Runtime.Platform}} · {{.Runtime.GoVersion}}</footer>
</main>
</body>
</html>
`))

type depRow struct {
	Name string
	DepStatus
}

// RenderDashboard renders the HTML status page for GET /.
func RenderDashboard(res Result) ([]byte, error) {
	deps := make([]depRow, 0, len(res.Dependencies))
	for name, d := range res.Dependencies {
		deps = append(deps, depRow{Name: name, DepStatus: d})
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })

	var buf bytes.Buffer
	err := dashboardTmpl.Execute(&buf, struct {
		Result
		Uptime string
		Deps   []depRow
	}{res, formatUptime(res.Runtime.UptimeSeconds), deps})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatUptime(sec int64) string {
	d := sec / 86400
	h := (sec % 86400) / 3600
	m := (sec % 3600) / 60
	switch {
	case d > 0:
		return fmt.Sprintf("%dd %dh", d, h)
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	default:
		return fmt.Sprintf("%dm %ds", m, sec%60)
	}
}

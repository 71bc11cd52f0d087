package health

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DBPinger is satisfied by *sql.DB.
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// Result is the payload of /health/json and the dashboard.
type Result struct {
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Traffic      TrafficInfo          `json:"traffic"`
	Dependencies map[string]DepStatus `json:"dependencies"`
}

type RuntimeInfo struct {
	UptimeSeconds int64      `json:"uptimeSeconds"`
	Memory        MemoryInfo `json:"memory"`
	Goroutines    int        `json:"goroutines"`
	Platform      string     `json:"platform"`
	GoVersion     string     `json:"goVersion"`
}

// MemoryInfo is in megabytes.
type MemoryInfo struct {
	Alloc    uint64 `json:"alloc"`
	HeapUsed uint64 `json:"heapUsed"`
	Sys      uint64 `json:"sys"`
}

type TrafficInfo struct {
	TotalRequests   int                    `json:"totalRequests"`
	SuccessCount    int                    `json:"successCount"`
	FailedCount     int                    `json:"failedCount"`
	SuccessRate     string                 `json:"successRate"`
	AvgResponseTime string                 `json:"avgResponseTime"`
	LastRequest     map[string]interface{} `json:"lastRequest"`
}

type DepStatus struct {
	Status string `json:"status"`
	PingMs *int64 `json:"pingMs"`
}

// Collector gathers health data. Targets are external URLs probed with GET, keyed by dependency name.
type Collector struct {
	Rdb     *redis.Client
	DB      DBPinger
	Targets map[string]string
	Client  *http.Client
}

const pingTimeout = 3 * time.Second

// Collect reports "ok" when the database and Redis both answer, "issue" otherwise.
// Unreachable external targets are reported but do not change the status.
func (c *Collector) Collect(ctx context.Context) Result {
	res := Result{Dependencies: make(map[string]DepStatus, 2+len(c.Targets))}

	res.Dependencies["database"] = c.pingDB(ctx)
	redisDep, traffic, startedAt := c.readTraffic(ctx)
	res.Dependencies["redis"] = redisDep
	res.Traffic = traffic

	names := make([]string, 0, len(c.Targets))
	for name := range c.Targets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		res.Dependencies[name] = c.pingHTTP(ctx, c.Targets[name])
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptime := int64(time.Since(startedAt).Seconds())
	if uptime < 0 {
		uptime = 0
	}
	res.Runtime = RuntimeInfo{
		UptimeSeconds: uptime,
		Memory: MemoryInfo{
			Alloc:    m.Alloc >> 20,
			HeapUsed: m.HeapInuse >> 20,
			Sys:      m.Sys >> 20,
		},
		Goroutines: runtime.NumGoroutine(),
		Platform:   runtime.GOOS + " (" + runtime.GOARCH + ")",
		GoVersion:  runtime.Version(),
	}

	res.Status = "issue"
	if res.Dependencies["database"].Status == "connected" && redisDep.Status == "connected" {
		res.Status = "ok"
	}
	return res
}

func (c *Collector) pingDB(ctx context.Context) DepStatus {
	if c.DB == nil {
		return DepStatus{Status: "disconnected"}
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	start := time.Now()
	if err := c.DB.PingContext(ctx); err != nil {
		return DepStatus{Status: "error"}
	}
	ms := time.Since(start).Milliseconds()
	return DepStatus{Status: "connected", PingMs: &ms}
}

func (c *Collector) readTraffic(ctx context.Context) (DepStatus, TrafficInfo, time.Time) {
	traffic := TrafficInfo{SuccessRate: "100", AvgResponseTime: "0"}
	startedAt := time.Now()
	if c.Rdb == nil {
		return DepStatus{Status: "disconnected"}, traffic, startedAt
	}
	start := time.Now()
	if err := c.Rdb.Ping(ctx).Err(); err != nil {
		return DepStatus{Status: "error"}, traffic, startedAt
	}
	ms := time.Since(start).Milliseconds()

	vals, err := c.Rdb.MGet(ctx, KeyReqTotal, KeyReqErrors, KeyResTime, KeyResCount, KeyStartTime, KeyLastReq).Result()
	if err != nil {
		return DepStatus{Status: "error"}, traffic, startedAt
	}
	str := func(i int) string {
		s, _ := vals[i].(string)
		return s
	}

	if t, err := strconv.ParseInt(str(4), 10, 64); err == nil {
		startedAt = time.UnixMilli(t)
	} else {
		c.Rdb.SetNX(ctx, KeyStartTime, startedAt.UnixMilli(), 0)
	}

	traffic.TotalRequests, _ = strconv.Atoi(str(0))
	traffic.FailedCount, _ = strconv.Atoi(str(1))
	traffic.SuccessCount = traffic.TotalRequests - traffic.FailedCount
	if traffic.TotalRequests > 0 {
		rate := float64(traffic.SuccessCount) / float64(traffic.TotalRequests) * 100
		traffic.SuccessRate = strconv.FormatFloat(rate, 'f', 1, 64)
	}
	timeSum, _ := strconv.ParseFloat(str(2), 64)
	if count, _ := strconv.Atoi(str(3)); count > 0 {
		traffic.AvgResponseTime = strconv.FormatFloat(timeSum/float64(count), 'f', 2, 64)
	}
	if last := str(5); last != "" {
		_ = json.Unmarshal([]byte(last), &traffic.LastRequest)
	}
	return DepStatus{Status: "connected", PingMs: &ms}, traffic, startedAt
}

func (c *Collector) pingHTTP(ctx context.Context, url string) DepStatus {
	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: pingTimeout}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return DepStatus{Status: "unreachable"}
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return DepStatus{Status: "unreachable"}
	}
	resp.Body.Close()
	ms := time.Since(start).Milliseconds()
	return DepStatus{Status: "reachable", PingMs: &ms}
}

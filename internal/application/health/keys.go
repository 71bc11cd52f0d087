package health

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keys shared by the request counter middleware and the health endpoints.
const (
	KeyReqTotal  = "health:global:req_total"
	KeyReqErrors = "health:global:req_errors"
	KeyResTime   = "health:global:res_time_total"
	KeyResCount  = "health:global:res_count"
	KeyStartTime = "health:global:start_time"
	KeyLastReq   = "health:global:last_request"
	KeyErrorLog  = "health:global:error_log"
)

// ErrorLogSize caps the server error log.
const ErrorLogSize = 50

// AllKeys lists every key cleared by a stats reset.
var AllKeys = []string{KeyReqTotal, KeyReqErrors, KeyResTime, KeyResCount, KeyStartTime, KeyLastReq, KeyErrorLog}

// ErrorEntry is one server error recorded in the error log.
type ErrorEntry struct {
	Time    time.Time `json:"time"`
	Method  string    `json:"method"`
	Path    string    `json:"path"`
	Status  int       `json:"status"`
	TraceID string    `json:"traceId,omitempty"`
	Message string    `json:"message,omitempty"`
}

// RecordError pushes e onto the error log, newest first, keeping ErrorLogSize entries.
func RecordError(ctx context.Context, rdb *redis.Client, e ErrorEntry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, KeyErrorLog, b)
		pipe.LTrim(ctx, KeyErrorLog, 0, ErrorLogSize-1)
		return nil
	})
	return err
}

// RecentErrors returns the logged errors, newest first. Malformed entries are skipped.
func RecentErrors(ctx context.Context, rdb *redis.Client) ([]ErrorEntry, error) {
	raw, err := rdb.LRange(ctx, KeyErrorLog, 0, ErrorLogSize-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]ErrorEntry, 0, len(raw))
	for _, s := range raw {
		var e ErrorEntry
		if json.Unmarshal([]byte(s), &e) == nil {
			out = append(out, e)
		}
	}
	return out, nil
}

// Reset clears the counters and restarts the uptime clock at now.
func Reset(ctx context.Context, rdb *redis.Client, now time.Time) error {
	if err := rdb.Del(ctx, AllKeys...).Err(); err != nil {
		return err
	}
	return rdb.Set(ctx, KeyStartTime, now.UnixMilli(), 0).Err()
}

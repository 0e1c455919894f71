package logger

import "strings"

const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

var levelNames = map[string]string{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
}

// Status and outcome vocabularies shared by every component.
var (
	statusNames = map[string]string{
		"ok":           "ok",
		"fail":         "fail",
		"failed":       "fail",
		"skip":         "skip",
		"retry":        "retry",
		"rate_limited": "rate_limited",
		"cancelled":    "cancelled",
		"canceled":     "cancelled",
		"too_large":    "too_large",
		"expired":      "expired",
	}
	outcomeNames = map[string]string{
		"ok":           "ok",
		"fail":         "fail",
		"cancelled":    "cancelled",
		"rate_limited": "rate_limited",
		"too_large":    "too_large",
		"sent":         "sent",
	}
)

func normalizeLevel(level string) string {
	if level == "" {
		return LevelInfo
	}
	if mapped, ok := levelNames[strings.ToLower(level)]; ok {
		return mapped
	}
	return strings.ToUpper(level)
}

func normalizeStatus(status string) (string, bool) {
	return lookup(statusNames, status)
}

func normalizeOutcome(outcome string) (string, bool) {
	return lookup(outcomeNames, outcome)
}

func lookup(names map[string]string, v string) (string, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return "", false
	}
	mapped, ok := names[v]
	return mapped, ok
}

var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"handler",
	"cb_key",
	"state",
	"from_state",
	"to_state",
	"lang",
	"job_id",
	"quality",
	"provider",
	"video_id",
	"url",
	"path",
	"size_bytes",
	"size",
	"limit_bytes",
	"outcome",
	"duration_ms",
	"mode",
	"listen",
	"public_url",
	"method",
	"http_code",
	"removed",
	"sessions",
	"err",
	"cause",
	"attempts",
	"backoff_ms",
	"rate_limited",
}

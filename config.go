package main

import (
	"net/url"
	"os"
	"strings"
	"time"
)

// defaultBaseURL is the local simulation service. A missing or malformed
// LIFTLOGIC_BASE_URL falls back here silently; configuration problems
// never abort startup.
const defaultBaseURL = "http://127.0.0.1:8000"

const defaultLogPath = "console.log"

type Config struct {
	BaseURL         string
	WSURL           string
	JournalPath     string
	LogPath         string
	DialTimeout     time.Duration
	CommandTimeout  time.Duration
	HistoryCapacity int
	SparkWindow     int
}

func loadConfig() Config {
	base := normalizeBaseURL(os.Getenv("LIFTLOGIC_BASE_URL"))
	cfg := Config{
		BaseURL:         base,
		WSURL:           wsURL(base),
		JournalPath:     os.Getenv("LIFTLOGIC_JOURNAL"),
		LogPath:         defaultLogPath,
		DialTimeout:     5 * time.Second,
		CommandTimeout:  10 * time.Second,
		HistoryCapacity: 300,
		SparkWindow:     200,
	}
	if path := os.Getenv("LIFTLOGIC_LOG"); path != "" {
		cfg.LogPath = path
	}
	return cfg
}

// normalizeBaseURL accepts an absolute http(s) URL and strips any
// trailing slash. Anything else yields the default.
func normalizeBaseURL(raw string) string {
	if raw == "" {
		return defaultBaseURL
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return defaultBaseURL
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return defaultBaseURL
	}
	return strings.TrimRight(raw, "/")
}

// wsURL derives the stream endpoint by substituting the transport
// scheme: http becomes ws, https becomes wss.
func wsURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/ws/stream"
}

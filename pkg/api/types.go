package api

import (
	"time"

	"github.com/rubiojr/estatedesk/pkg/nav"
	"github.com/rubiojr/estatedesk/pkg/render"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type SearchResponse struct {
	Query      string                   `json:"query"`
	Limit      int                      `json:"limit"`
	Results    map[string][]render.Item `json:"results"`
	Counts     map[string]int           `json:"counts"`
	TotalCount int                      `json:"total_count"`
}

type CacheStatsResponse struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
	TTL  string   `json:"ttl"`
}

type CacheSweepResponse struct {
	Removed int `json:"removed"`
	Size    int `json:"size"`
}

type NavigationResponse struct {
	Items []nav.Item `json:"items"`
}

type MeResponse struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name,omitempty"`
	Email       string   `json:"email,omitempty"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions"`
	// Source is "profile" or "config" (static override).
	Source     string   `json:"source"`
	Searchable []string `json:"searchable"`
}

type NotificationStatsResponse struct {
	Total  int `json:"total"`
	Unread int `json:"unread"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// Websocket messages. Every message carries a "type" discriminator.

// WSClientMessage is sent by the browser: "query" with Q, "submit",
// "clear" or "ping".
type WSClientMessage struct {
	Type string `json:"type"`
	Q    string `json:"q,omitempty"`
}

type WSInitMessage struct {
	Type       string   `json:"type"`
	Session    string   `json:"session"`
	Limit      int      `json:"limit"`
	DebounceMS int64    `json:"debounce_ms"`
	Searchable []string `json:"searchable"`
}

type WSResultsMessage struct {
	Type       string                   `json:"type"`
	Seq        uint64                   `json:"seq"`
	Query      string                   `json:"query"`
	Results    map[string][]render.Item `json:"results"`
	TotalCount int                      `json:"total_count"`
}

type WSClearedMessage struct {
	Type string `json:"type"`
	Seq  uint64 `json:"seq"`
}

type WSNotificationsMessage struct {
	Type   string `json:"type"`
	Unread int    `json:"unread"`
	Total  int    `json:"total"`
}

type WSErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type WSPongMessage struct {
	Type string    `json:"type"`
	Time time.Time `json:"time"`
}

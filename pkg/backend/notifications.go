package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Notification is one entry of the account's notification feed.
type Notification struct {
	ID        any       `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Link      string    `json:"link,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationStats summarizes the feed.
type NotificationStats struct {
	Total  int `json:"total"`
	Unread int `json:"unread"`
}

// Notifications returns up to limit recent notifications.
func (c *Client) Notifications(ctx context.Context, limit int) ([]Notification, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var payload struct {
		Notifications []Notification `json:"notifications"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/notifications", query, &payload); err != nil {
		return nil, err
	}
	if payload.Notifications == nil {
		return []Notification{}, nil
	}
	return payload.Notifications, nil
}

// NotificationStats returns total and unread counts. Backends answer either
// {"stats": {...}} or the bare object, with "unread" or "unread_count".
func (c *Client) NotificationStats(ctx context.Context) (NotificationStats, error) {
	var payload map[string]json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/notifications/stats", nil, &payload); err != nil {
		return NotificationStats{}, err
	}
	if inner, ok := payload["stats"]; ok {
		var nested map[string]json.RawMessage
		if err := json.Unmarshal(inner, &nested); err == nil {
			payload = nested
		}
	}

	var stats NotificationStats
	stats.Total = intField(payload, "total", "total_count")
	stats.Unread = intField(payload, "unread", "unread_count")
	return stats, nil
}

func intField(payload map[string]json.RawMessage, keys ...string) int {
	for _, key := range keys {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		var n int
		if err := json.Unmarshal(raw, &n); err == nil {
			return n
		}
	}
	return 0
}

// MarkNotificationRead flags one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("notification id is required")
	}
	return c.do(ctx, http.MethodPut, "/api/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

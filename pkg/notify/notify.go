// Package notify builds the notification menu shown in the header and keeps
// the unread counter current by polling the backend.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rubiojr/estatedesk/pkg/backend"
	"github.com/rubiojr/estatedesk/pkg/core"
	"github.com/rubiojr/estatedesk/pkg/log"
)

// Source is the slice of the backend client the menu needs.
type Source interface {
	Notifications(ctx context.Context, limit int) ([]backend.Notification, error)
	NotificationStats(ctx context.Context) (backend.NotificationStats, error)
	MarkNotificationRead(ctx context.Context, id string) error
}

// Item is a notification prepared for display.
type Item struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type"`
	Link    string `json:"link,omitempty"`
	Read    bool   `json:"read"`
	Age     string `json:"age"`
	// CreatedAt is zero when the backend omits it.
	CreatedAt time.Time `json:"created_at"`
}

// Menu is the header dropdown content.
type Menu struct {
	Items  []Item `json:"items"`
	Unread int    `json:"unread"`
	Total  int    `json:"total"`
}

type Service struct {
	source Source
	logger *log.Logger
}

func NewService(source Source) *Service {
	return &Service{source: source, logger: log.ForService("notify")}
}

// Menu returns up to limit recent notifications with the unread count.
// When the stats endpoint fails the counts are derived from the items.
func (s *Service) Menu(ctx context.Context, limit int) (Menu, error) {
	list, err := s.source.Notifications(ctx, limit)
	if err != nil {
		return Menu{}, fmt.Errorf("loading notifications: %w", err)
	}

	menu := Menu{Items: make([]Item, 0, len(list))}
	for _, n := range list {
		menu.Items = append(menu.Items, toItem(n))
	}

	stats, err := s.source.NotificationStats(ctx)
	if err != nil {
		s.logger.Warnf("notification stats unavailable, counting menu items: %v", err)
		menu.Total = len(list)
		for _, n := range list {
			if !n.Read {
				menu.Unread++
			}
		}
		return menu, nil
	}
	menu.Unread = stats.Unread
	menu.Total = stats.Total
	return menu, nil
}

// Stats returns the backend counters.
func (s *Service) Stats(ctx context.Context) (backend.NotificationStats, error) {
	return s.source.NotificationStats(ctx)
}

// MarkRead flags one notification as read.
func (s *Service) MarkRead(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("notification id is required")
	}
	if err := s.source.MarkNotificationRead(ctx, id); err != nil {
		return fmt.Errorf("marking notification %s read: %w", id, err)
	}
	return nil
}

func toItem(n backend.Notification) Item {
	title := strings.TrimSpace(n.Title)
	if title == "" {
		title = strings.TrimSpace(n.Message)
	}
	return Item{
		ID:        core.Record{"id": n.ID}.ID(),
		Title:     title,
		Message:   n.Message,
		Type:      n.Type,
		Link:      n.Link,
		Read:      n.Read,
		Age:       Age(n.CreatedAt, time.Now()),
		CreatedAt: n.CreatedAt,
	}
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rubiojr/estatedesk/pkg/notify"
	"github.com/urfave/cli/v3"
)

// NotificationsCommand creates the notifications command
func NotificationsCommand() *cli.Command {
	return &cli.Command{
		Name:  "notifications",
		Usage: "List notifications or mark them read",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Show the notification menu",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of notifications (defaults to notifications.menu_limit)",
					},
					&cli.BoolFlag{
						Name:  "unread",
						Usage: "Only show unread notifications",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return listNotifications(ctx, c.String("config"), c.Int("limit"), c.Bool("unread"))
				},
			},
			{
				Name:      "read",
				Usage:     "Mark a notification as read",
				ArgsUsage: "<id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					return markNotificationRead(ctx, c.String("config"), c.Args().First())
				},
			},
		},
	}
}

func listNotifications(ctx context.Context, configPath string, limit int, unreadOnly bool) error {
	svc, err := loadServices(configPath)
	if err != nil {
		return err
	}
	if limit <= 0 {
		limit = svc.cfg.Notifications.MenuLimit
	}

	menu, err := svc.notifications.Menu(ctx, limit)
	if err != nil {
		return err
	}
	fmt.Print(formatNotifications(menu, unreadOnly, time.Now()))
	return nil
}

func markNotificationRead(ctx context.Context, configPath, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("a notification id is required")
	}
	svc, err := loadServices(configPath)
	if err != nil {
		return err
	}
	if err := svc.notifications.MarkRead(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Notification %s marked as read\n", id)
	return nil
}

// formatNotifications renders the menu. Ages are recomputed against now so
// the output matches the moment it is printed.
func formatNotifications(menu notify.Menu, unreadOnly bool, now time.Time) string {
	var output strings.Builder

	output.WriteString(titleStyle.Render(fmt.Sprintf("Notifications: %d unread of %d", menu.Unread, menu.Total)))
	output.WriteString("\n")

	shown := 0
	for _, item := range menu.Items {
		if unreadOnly && item.Read {
			continue
		}
		shown++

		marker := "  "
		if !item.Read {
			marker = unreadStyle.Render("● ")
		}
		output.WriteString(marker + itemStyle.Render(item.Title))
		if age := notify.Age(item.CreatedAt, now); age != "" {
			output.WriteString(" " + metaStyle.Render(age))
		}
		output.WriteString("\n")
		if item.Message != "" && item.Message != item.Title {
			output.WriteString("    " + item.Message + "\n")
		}
		meta := "ID: " + item.ID
		if item.Type != "" {
			meta += " | Type: " + item.Type
		}
		output.WriteString("    " + metaStyle.Render(meta) + "\n")
		if item.Link != "" {
			output.WriteString("    " + urlStyle.Render(item.Link) + "\n")
		}
	}

	if shown == 0 {
		output.WriteString(noDataStyle.Render("No notifications."))
		output.WriteString("\n")
	}
	return output.String()
}

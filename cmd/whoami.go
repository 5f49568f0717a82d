package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/rubiojr/estatedesk/pkg/nav"
	"github.com/rubiojr/estatedesk/pkg/permission"
	"github.com/urfave/cli/v3"
)

// WhoamiCommand creates the whoami command
func WhoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the account, its permissions and the navigation it sees",
		Action: func(ctx context.Context, c *cli.Command) error {
			return whoami(ctx, c.String("config"))
		},
	}
}

type identity struct {
	Name   string
	Email  string
	Role   string
	Source string
}

func whoami(ctx context.Context, configPath string) error {
	svc, err := loadServices(configPath)
	if err != nil {
		return err
	}

	id := identity{Source: "config"}
	set, static := svc.accounts.Static()
	if !static {
		profile, err := svc.accounts.Profile(ctx)
		if err != nil {
			return err
		}
		id = identity{
			Name:   profile.Name,
			Email:  profile.Email,
			Role:   profile.Role,
			Source: "profile",
		}
		set = profile.Permissions.Set()
	}

	items := nav.Filter(nav.Tree(svc.entities), set)
	fmt.Print(formatWhoami(id, set, items))
	return nil
}

func formatWhoami(id identity, set permission.Set, items []nav.Item) string {
	var output strings.Builder

	name := id.Name
	if name == "" {
		name = id.Email
	}
	if name == "" {
		name = "(static permissions)"
	}
	output.WriteString(titleStyle.Render(name))
	output.WriteString("\n")
	if id.Email != "" && id.Email != name {
		output.WriteString("Email: " + id.Email + "\n")
	}
	if id.Role != "" {
		output.WriteString("Role:  " + id.Role + "\n")
	}
	output.WriteString(metaStyle.Render("Permissions from " + id.Source))
	output.WriteString("\n")

	output.WriteString(headerStyle.Render(fmt.Sprintf("Permissions (%d)", set.Len())))
	output.WriteString("\n")
	if set.Len() == 0 {
		output.WriteString(noDataStyle.Render("  none"))
		output.WriteString("\n")
	}
	for _, p := range set.Names() {
		output.WriteString("  " + p + "\n")
	}

	output.WriteString(headerStyle.Render("Navigation"))
	output.WriteString("\n")
	writeNav(&output, items, 1)
	return output.String()
}

func writeNav(b *strings.Builder, items []nav.Item, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, item := range items {
		line := indent + heading(item.Label)
		if item.Path != "" {
			line += " " + metaStyle.Render(item.Path)
		}
		b.WriteString(line + "\n")
		writeNav(b, item.Children, depth+1)
	}
}

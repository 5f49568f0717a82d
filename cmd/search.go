package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rubiojr/estatedesk/pkg/core"
	"github.com/rubiojr/estatedesk/pkg/search"
	"github.com/urfave/cli/v3"
)

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search every entity type the account may see",
		ArgsUsage: "[query]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "query",
				Usage: "Search query (the first argument is used when omitted)",
			},
			&cli.StringSliceFlag{
				Name:  "entity",
				Usage: "Restrict to entity type(s). Can be used multiple times",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum results per entity type (defaults to search.limit from the config)",
			},
			&cli.BoolFlag{
				Name:  "no-pager",
				Usage: "Disable pager and output directly to terminal",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			query := c.String("query")
			if query == "" {
				query = strings.Join(c.Args().Slice(), " ")
			}
			return searchData(ctx, c.String("config"), query, c.StringSlice("entity"), c.Int("limit"), c.Bool("no-pager"))
		},
	}
}

// searchData runs one aggregated search and prints it.
func searchData(ctx context.Context, configPath, query string, entityNames []string, limit int, noPager bool) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return errors.New("a search query is required")
	}

	entities, err := parseEntityNames(entityNames)
	if err != nil {
		return err
	}

	svc, err := loadServices(configPath)
	if err != nil {
		return err
	}
	if limit <= 0 {
		limit = svc.cfg.Search.Limit
	}

	set, err := svc.accounts.Permissions(ctx)
	if err != nil {
		return fmt.Errorf("resolving permissions: %w", err)
	}
	perms := search.PermissionsFor(svc.entities, set).Restrict(entities)
	if !perms.Any() {
		return errors.New("the account may not search any of the requested entity types")
	}

	results := svc.search.Search(ctx, query, limit, perms)
	return printOutput(formatSearchOutput(query, svc.entities, results), noPager)
}

func parseEntityNames(names []string) ([]core.EntityType, error) {
	var out []core.EntityType
	for _, raw := range names {
		for _, name := range strings.Split(raw, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			t, err := core.ParseEntityType(name)
			if err != nil {
				return nil, err
			}
			out = append(out, t)
		}
	}
	return out, nil
}

// formatSearchOutput renders non-empty slots in registry order.
func formatSearchOutput(query string, registry *core.Registry, results core.ResultSet) string {
	var output strings.Builder

	output.WriteString(titleStyle.Render(fmt.Sprintf("Search: %s", query)))
	output.WriteString("\n")

	if results.Empty() {
		output.WriteString(noDataStyle.Render("No results found."))
		output.WriteString("\n")
		return output.String()
	}

	shown := 0
	for _, e := range registry.All() {
		records := results.Get(e.Type)
		if len(records) == 0 {
			continue
		}
		shown++

		label := e.Label
		if label == "" {
			label = string(e.Type)
		}
		output.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d)", heading(label), len(records))))
		output.WriteString("\n")

		for i, record := range records {
			output.WriteString(formatRecord(e, record, i+1))
		}
	}

	output.WriteString(summaryStyle.Render(fmt.Sprintf("Total: %d results across %d entity types", results.Total(), shown)))
	output.WriteString("\n")
	return output.String()
}

func formatRecord(e core.Entity, record core.Record, index int) string {
	var content strings.Builder

	content.WriteString(fmt.Sprintf("  %d. %s", index, itemStyle.Render(record.DisplayName())))
	if sub := record.Subtitle(); sub != "" {
		content.WriteString(" " + metaStyle.Render(sub))
	}
	content.WriteString("\n")
	if u := e.RecordURL(record.ID()); u != "" {
		content.WriteString("     " + urlStyle.Render(u) + "\n")
	}
	return content.String()
}

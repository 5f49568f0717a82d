package main

import (
	"context"
	"os"

	"github.com/rubiojr/estatedesk/cmd"
	"github.com/rubiojr/estatedesk/pkg/config"
	"github.com/rubiojr/estatedesk/pkg/log"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := log.ForService("main")

	app := &cli.Command{
		Name:  "estatedesk",
		Usage: "Back office search, navigation and notifications for the property backend",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
				Value: false,
			},
			&cli.StringFlag{
				Name:    "debug-components",
				Usage:   "Comma separated components to debug (e.g. search,backend)",
				Sources: cli.EnvVars("ESTATEDESK_DEBUG"),
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration file path",
				Value: getDefaultConfigPathOrExit(logger),
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			log.SetGlobalDebug(c.Bool("debug"))
			if list := c.String("debug-components"); list != "" {
				log.EnableDebugForList(list)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmd.InitCommand(),
			cmd.WebCommand(),
			cmd.SearchCommand(),
			cmd.NotificationsCommand(),
			cmd.WhoamiCommand(),
			cmd.VersionCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func getDefaultConfigPathOrExit(logger *log.Logger) string {
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		logger.Errorf("Failed to get default config path: %v", err)
		os.Exit(1)
	}
	return path
}

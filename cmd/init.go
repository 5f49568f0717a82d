package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rubiojr/estatedesk/pkg/config"
	"github.com/urfave/cli/v3"
)

// InitCommand creates the init command
func InitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a commented configuration file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "Backend base URL to put in the generated file",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing configuration file",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return initConfig(c.String("config"), c.String("base-url"), c.Bool("force"))
		},
	}
}

// initConfig writes the configuration template to configPath.
func initConfig(configPath, baseURL string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration already exists at %s (use --force to overwrite)", configPath)
	}

	cfg := config.GetDefaultConfig()
	if baseURL != "" {
		cfg.Backend.BaseURL = baseURL
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if err := cfg.SaveTemplateConfig(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("Configuration initialized at %s\n", configPath)
	return nil
}

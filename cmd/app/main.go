package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/skulls/internal"
	pkgconfig "github.com/starford/skulls/pkg/config"
)

// loadConfig reads the optional YAML file, then applies environment
// overrides and validates the result.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	found, err := pkgconfig.LoadOptional(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !found && cmd.IsSet("config") {
		return nil, fmt.Errorf("config file %s not found", configPath)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}
	if err := pkgconfig.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func withConfig(run func(ctx context.Context, cmd *cli.Command, opts []internal.Option) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return run(ctx, cmd, []internal.Option{internal.WithConfig(cfg)})
	}
}

func serve(ctx context.Context, _ *cli.Command, opts []internal.Option) error {
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runBackend(ctx context.Context, _ *cli.Command, opts []internal.Option) error {
	if err := internal.RunBackend(ctx, opts...); err != nil {
		return fmt.Errorf("backend run error: %w", err)
	}
	return nil
}

func runBrowse(ctx context.Context, cmd *cli.Command, opts []internal.Option) error {
	return internal.RunBrowse(ctx, cmd.String("url"), opts...)
}

func runMCP(ctx context.Context, _ *cli.Command, opts []internal.Option) error {
	return internal.RunMCP(ctx, opts...)
}

func main() {
	cmd := &cli.Command{
		Name:    "skulls",
		Usage:   "AI-generated user interfaces for hypermedia (HAL / HAL-FORMS) APIs",
		Version: internal.Version,
		Action:  withConfig(serve),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the frontend server (generation endpoint and browser client)",
				Action: withConfig(serve),
			},
			{
				Name:   "backend",
				Usage:  "Run the demo HAL-FORMS change-request backend",
				Action: withConfig(runBackend),
			},
			{
				Name:   "browse",
				Usage:  "Browse the backend interactively in the terminal",
				Action: withConfig(runBrowse),
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "url",
						Usage: "Open this URL instead of the API root",
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve the headless navigator as MCP tools over stdio",
				Action: withConfig(runMCP),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

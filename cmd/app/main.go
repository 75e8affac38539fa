package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/folio/internal"
	"github.com/starford/folio/internal/apperr"
	pkgconfig "github.com/starford/folio/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	root := cmd.Root()

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(root.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if u := root.String("api-url"); u != "" {
		cfg.API.BaseURL = u
	}
	if root.Bool("verbose") {
		cfg.App.LogLevel = slog.LevelDebug
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func openWorkspace(ctx context.Context, cmd *cli.Command) (*internal.Workspace, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := internal.NewLogger(cfg.App.LogLevel)
	slog.SetDefault(logger)

	return internal.Open(ctx,
		internal.WithConfig(cfg),
		internal.WithLogger(logger),
		internal.WithOffline(cmd.Root().Bool("offline")),
	)
}

// withWorkspace opens a workspace for the duration of fn.
func withWorkspace(fn func(ctx context.Context, cmd *cli.Command, ws *internal.Workspace) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		ws, err := openWorkspace(ctx, cmd)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := ws.Close(); cerr != nil {
				slog.Warn("workspace close", slog.String("error", cerr.Error()))
			}
		}()
		return fn(ctx, cmd, ws)
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "folio",
		Usage:   "Edit a portfolio site through its admin API",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "Portfolio API base URL (overrides api.base_url)",
				Sources: cli.EnvVars("FOLIO_API_URL"),
			},
			&cli.BoolFlag{
				Name:    "offline",
				Usage:   "Edit the bundled sample portfolio in memory instead of calling the API",
				Sources: cli.EnvVars("FOLIO_OFFLINE"),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Debug logging on stderr",
			},
		},
		Commands: []*cli.Command{
			loginCommand(),
			logoutCommand(),
			verifyCommand(),
			showCommand(),
			setCommand(),
			addCommand(),
			editCommand(),
			removeCommand(),
			uploadCommand(),
			downloadCommand(),
			mcpCommand(),
			devserverCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", apperr.UserMessage(err))
		if errors.Is(err, apperr.ErrUnauthenticated) {
			fmt.Fprintln(os.Stderr, "run `folio login` to start a new session")
		}
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

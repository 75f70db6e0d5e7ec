package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "burnwatch",
		Usage: "Solana LP burn monitoring service CLI",
		Description: `A command-line tool for operating and debugging the burnwatch service.

Use this CLI to replay webhook deliveries, classify captured transactions,
manage the Helius webhook registration and follow the live burn stream.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Commands: []*cli.Command{
			// Server utility commands
			{
				Name:  "server",
				Usage: "Server utility commands",
				Subcommands: []*cli.Command{
					healthCommand(),
					infoCommand(),
					versionCommand(),
				},
			},
			// Offline classification
			classifyCommand(),
			// Webhook delivery commands
			{
				Name:  "webhook",
				Usage: "Webhook delivery commands",
				Subcommands: []*cli.Command{
					sendWebhookCommand(),
				},
			},
			// Helius webhook registration commands
			{
				Name:  "helius",
				Usage: "Helius webhook registration commands",
				Subcommands: []*cli.Command{
					registerWebhookCommand(),
					listWebhooksCommand(),
				},
			},
			// Burn streaming commands
			streamCommand(),
			{
				Name:  "nats",
				Usage: "NATS JetStream inspection commands",
				Subcommands: []*cli.Command{
					inspectStreamCommand(),
				},
			},
		},
		// Global flags available to all commands
		Flags: globalFlags(),
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server-url",
			Usage:   "burnwatch server URL",
			EnvVars: []string{"SERVER_URL"},
			Value:   "http://localhost:10000",
		},
		&cli.StringFlag{
			Name:    "helius-api-key",
			Usage:   "Helius API key",
			EnvVars: []string{"HELIUS_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "helius-api-url",
			Usage:   "Helius API base URL",
			EnvVars: []string{"HELIUS_API_URL"},
			Value:   "https://api.helius.xyz",
		},
		&cli.StringFlag{
			Name:    "nats-url",
			Usage:   "NATS server URL",
			EnvVars: []string{"NATS_URL"},
			Value:   "nats://localhost:4222",
		},
		&cli.BoolFlag{
			Name:    "json",
			Aliases: []string{"j"},
			Usage:   "Output in JSON format",
		},
	}
}

// cliLogger only surfaces errors; command output goes to the app writer.
func cliLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

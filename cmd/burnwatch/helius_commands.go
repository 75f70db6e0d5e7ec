package main

import (
	"fmt"
	"time"

	"github.com/brojonat/burnwatch/service/helius"
	"github.com/brojonat/burnwatch/service/solana"
	"github.com/urfave/cli/v2"
)

func heliusClient(c *cli.Context) (*helius.Client, error) {
	apiKey := c.String("helius-api-key")
	if apiKey == "" {
		return nil, fmt.Errorf("helius-api-key is required (set HELIUS_API_KEY env var or use --helius-api-key)")
	}
	return helius.NewClient(c.String("helius-api-url"), apiKey,
		helius.WithTimeout(c.Duration("timeout")),
		helius.WithLogger(cliLogger()),
	), nil
}

func registerWebhookCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Ensure a webhook delivers the target program's transactions",
		Description: `Register an enhanced webhook for the target program unless one already
points at the given URL.

Example:
  burnwatch helius register --url https://burns.example.com/webhook --auth-token $WEBHOOK_AUTH_TOKEN

The provider sends the auth token in the Authorization header of every
delivery. It does not sign the body, so a server registered this way needs
WEBHOOK_AUTH_TOKEN rather than WEBHOOK_SECRET.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "url",
				Usage:    "Public URL of the server's /webhook endpoint",
				EnvVars:  []string{"PUBLIC_WEBHOOK_URL"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "program",
				Usage:   "Program ID to watch",
				EnvVars: []string{"TARGET_PROGRAM_ID"},
				Value:   solana.DefaultProgramID,
			},
			&cli.StringFlag{
				Name:    "auth-token",
				Usage:   "Token the provider sends as the Authorization header of each delivery",
				EnvVars: []string{"WEBHOOK_AUTH_TOKEN"},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Request timeout",
				Value: 30 * time.Second,
			},
		},
		Action: func(c *cli.Context) error {
			hc, err := heliusClient(c)
			if err != nil {
				return err
			}
			defer hc.Close()

			wh := helius.NewEnhancedWebhook(c.String("url"), c.String("program"), c.String("auth-token"))
			got, created, err := hc.EnsureWebhook(c.Context, wh)
			if err != nil {
				return fmt.Errorf("failed to register webhook: %w", err)
			}

			if c.Bool("json") {
				return printJSON(c, got)
			}
			if created {
				fmt.Fprintf(c.App.Writer, "✓ Webhook created\n")
			} else {
				fmt.Fprintf(c.App.Writer, "✓ Webhook already registered\n")
			}
			printWebhook(c, got)
			return nil
		},
	}
}

func listWebhooksCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List webhooks registered for the API key",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Request timeout",
				Value: 30 * time.Second,
			},
		},
		Action: func(c *cli.Context) error {
			hc, err := heliusClient(c)
			if err != nil {
				return err
			}
			defer hc.Close()

			webhooks, err := hc.ListWebhooks(c.Context)
			if err != nil {
				return fmt.Errorf("failed to list webhooks: %w", err)
			}

			if c.Bool("json") {
				return printJSON(c, webhooks)
			}
			if len(webhooks) == 0 {
				fmt.Fprintf(c.App.Writer, "No webhooks registered\n")
				return nil
			}
			for i := range webhooks {
				printWebhook(c, &webhooks[i])
				fmt.Fprintln(c.App.Writer)
			}
			return nil
		},
	}
}

func printWebhook(c *cli.Context, wh *helius.Webhook) {
	w := c.App.Writer
	fmt.Fprintf(w, "  ID:       %s\n", wh.WebhookID)
	fmt.Fprintf(w, "  URL:      %s\n", wh.WebhookURL)
	fmt.Fprintf(w, "  Type:     %s\n", wh.WebhookType)
	fmt.Fprintf(w, "  Accounts: %v\n", wh.AccountAddresses)
	fmt.Fprintf(w, "  Auth:     %t\n", wh.AuthHeader != "")
}

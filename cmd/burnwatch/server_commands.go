package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/brojonat/burnwatch/client"
	"github.com/urfave/cli/v2"
)

func serverClient(c *cli.Context) (*client.Client, error) {
	serverURL := c.String("server-url")
	if serverURL == "" {
		return nil, fmt.Errorf("server-url is required (set SERVER_URL env var or use --server-url)")
	}
	return client.NewClient(serverURL, &http.Client{Timeout: c.Duration("timeout")}, cliLogger()), nil
}

func healthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check server health",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Request timeout",
				Value: 5 * time.Second,
			},
		},
		Action: func(c *cli.Context) error {
			cl, err := serverClient(c)
			if err != nil {
				return err
			}

			h, err := cl.Health(c.Context)
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			if h.Status != "healthy" {
				return fmt.Errorf("server returned unhealthy status: %s", h.Status)
			}

			if c.Bool("json") {
				return printJSON(c, h)
			}
			fmt.Fprintf(c.App.Writer, "✓ Server is healthy\n")
			fmt.Fprintf(c.App.Writer, "  URL:        %s\n", c.String("server-url"))
			fmt.Fprintf(c.App.Writer, "  Program:    %s\n", h.Program)
			fmt.Fprintf(c.App.Writer, "  Cache size: %d\n", h.CacheSize)
			return nil
		},
	}
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "Show the server's service description",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Request timeout",
				Value: 5 * time.Second,
			},
		},
		Action: func(c *cli.Context) error {
			cl, err := serverClient(c)
			if err != nil {
				return err
			}

			info, err := cl.Info(c.Context)
			if err != nil {
				return fmt.Errorf("failed to get server info: %w", err)
			}

			if c.Bool("json") {
				return printJSON(c, info)
			}
			fmt.Fprintf(c.App.Writer, "%s %s (%s)\n", info.Name, info.Version, info.Status)
			fmt.Fprintf(c.App.Writer, "  Program: %s\n", info.Monitoring.Program)
			for name, path := range info.Endpoints {
				fmt.Fprintf(c.App.Writer, "  %-8s %s\n", name+":", path)
			}
			return nil
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(c *cli.Context) error {
			fmt.Fprintf(c.App.Writer, "burnwatch CLI\n")
			fmt.Fprintf(c.App.Writer, "  Version: %s\n", version)
			fmt.Fprintf(c.App.Writer, "  Commit:  %s\n", commit)
			fmt.Fprintf(c.App.Writer, "  Built:   %s\n", date)
			return nil
		},
	}
}

func printJSON(c *cli.Context, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(c.App.Writer, string(data))
	return nil
}

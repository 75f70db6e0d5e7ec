package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/brojonat/burnwatch/client"
	natspkg "github.com/brojonat/burnwatch/service/nats"
	"github.com/brojonat/burnwatch/service/notify"
	"github.com/urfave/cli/v2"
)

func streamCommand() *cli.Command {
	return &cli.Command{
		Name:  "stream",
		Usage: "Stream burn events via SSE (HTTP)",
		Description: `Follow burn events as the server publishes them.

Examples:
  burnwatch stream
  burnwatch stream --jq '.burned | length > 1' --json`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "program",
				Usage: "Only stream burns for this program ID",
			},
			&cli.StringFlag{
				Name:  "jq",
				Usage: "Only print events for which this jq expression is truthy",
			},
		},
		Action: func(c *cli.Context) error {
			serverURL := c.String("server-url")
			jsonOutput := c.Bool("json")

			var filter *notify.Filter
			if expr := c.String("jq"); expr != "" {
				f, err := notify.NewFilter(expr)
				if err != nil {
					return err
				}
				filter = f
			}

			// Create context that cancels on interrupt
			ctx, cancel := context.WithCancel(c.Context)
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)
			go func() {
				select {
				case <-sigChan:
					cancel()
				case <-ctx.Done():
				}
			}()

			if !jsonOutput {
				fmt.Fprintf(os.Stderr, "Streaming burns from %s... (Ctrl+C to stop)\n\n", serverURL)
			}

			cl := client.NewClient(serverURL, &http.Client{}, cliLogger())
			return cl.StreamBurns(ctx, c.String("program"), func(msg *natspkg.BurnMessage) error {
				if filter != nil {
					ok, err := matchMessage(ctx, filter, msg)
					if err != nil || !ok {
						return nil
					}
				}
				return printBurn(c, msg)
			})
		},
	}
}

// matchMessage runs filter on the message exactly as it was published.
func matchMessage(ctx context.Context, filter *notify.Filter, msg *natspkg.BurnMessage) (bool, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return false, err
	}
	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return false, err
	}
	return filter.MatchValue(ctx, input)
}

func printBurn(c *cli.Context, msg *natspkg.BurnMessage) error {
	w := c.App.Writer
	if c.Bool("json") {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}
		fmt.Fprintln(w, string(data))
		return nil
	}

	fmt.Fprintf(w, "🔥 %s  %s  (rule: %s)\n", msg.Timestamp.Format("2006-01-02 15:04:05"), msg.Signature, msg.Rule)
	for _, b := range msg.Burned {
		fmt.Fprintf(w, "     %s (%s): %s\n", b.Name, b.Symbol, b.Amount)
	}
	fmt.Fprintf(w, "     %s\n", msg.ExplorerURL)
	return nil
}

func inspectStreamCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect-stream",
		Usage: "Inspect the LP_BURNS JetStream stream",
		Description: `Show information about the JetStream stream including:
- Message count
- Consumers
- Storage usage

Example:
  burnwatch nats inspect-stream`,
		Action: func(c *cli.Context) error {
			nc, js, err := natspkg.Connect(c.String("nats-url"), "burnwatch-cli")
			if err != nil {
				return err
			}
			defer nc.Close()

			stream, err := js.Stream(c.Context, natspkg.StreamName)
			if err != nil {
				return fmt.Errorf("failed to get stream: %w", err)
			}

			info, err := stream.Info(c.Context)
			if err != nil {
				return fmt.Errorf("failed to get stream info: %w", err)
			}

			if c.Bool("json") {
				return printJSON(c, info)
			}
			w := c.App.Writer
			fmt.Fprintf(w, "Stream: %s\n", info.Config.Name)
			fmt.Fprintf(w, "─────────────────────────────────────────────────────\n")
			fmt.Fprintf(w, "Subjects:     %v\n", info.Config.Subjects)
			fmt.Fprintf(w, "Messages:     %d\n", info.State.Msgs)
			fmt.Fprintf(w, "Bytes:        %d\n", info.State.Bytes)
			fmt.Fprintf(w, "Consumers:    %d\n", info.State.Consumers)
			fmt.Fprintf(w, "Max Age:      %s\n", info.Config.MaxAge)
			fmt.Fprintf(w, "Storage:      %s\n", info.Config.Storage)
			return nil
		},
	}
}

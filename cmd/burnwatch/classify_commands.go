package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/brojonat/burnwatch/service/burn"
	"github.com/brojonat/burnwatch/service/helius"
	natspkg "github.com/brojonat/burnwatch/service/nats"
	"github.com/brojonat/burnwatch/service/notify"
	"github.com/brojonat/burnwatch/service/solana"
	"github.com/brojonat/burnwatch/service/tokencache"
	"github.com/urfave/cli/v2"
)

func classifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "classify",
		Usage: "Run transactions through the burn classifier offline",
		Description: `Classify captured webhook deliveries or on-chain transactions without
sending notifications.

The input is either a file holding a webhook body (a JSON array) or a single
transaction object, or a signature fetched from a Solana RPC node.

Token metadata is resolved through Helius when an API key is configured.

Examples:
  burnwatch classify --file delivery.json
  burnwatch classify --signature 5h6x... --rpc-url https://api.mainnet-beta.solana.com
  burnwatch classify --file delivery.json --jq '.burned | length > 0' --json`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Path to a webhook body or transaction (- for stdin)",
			},
			&cli.StringFlag{
				Name:  "signature",
				Usage: "Fetch this transaction from the RPC node instead of reading a file",
			},
			&cli.StringFlag{
				Name:    "rpc-url",
				Usage:   "Solana RPC URL used with --signature",
				EnvVars: []string{"SOLANA_RPC_URL"},
				Value:   "https://api.mainnet-beta.solana.com",
			},
			&cli.StringFlag{
				Name:    "program",
				Usage:   "Target AMM program ID",
				EnvVars: []string{"TARGET_PROGRAM_ID"},
				Value:   solana.DefaultProgramID,
			},
			&cli.Int64Flag{
				Name:  "lamport-threshold",
				Usage: "Minimum SOL decrease (in lamports) for the SOL balance rule",
				Value: burn.DefaultLamportThreshold,
			},
			&cli.BoolFlag{
				Name:  "no-account-heuristic",
				Usage: "Disable the account key heuristic rule",
			},
			&cli.StringFlag{
				Name:  "jq",
				Usage: "Only print burns for which this jq expression is truthy",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Timeout for RPC and metadata requests",
				Value: 30 * time.Second,
			},
		},
		Action: func(c *cli.Context) error {
			file := c.String("file")
			signature := c.String("signature")
			if (file == "") == (signature == "") {
				return fmt.Errorf("exactly one of --file or --signature is required")
			}

			var filter *notify.Filter
			if expr := c.String("jq"); expr != "" {
				f, err := notify.NewFilter(expr)
				if err != nil {
					return err
				}
				filter = f
			}

			ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
			defer cancel()

			var txs []*solana.Transaction
			skipped := 0
			if signature != "" {
				rpcURL := c.String("rpc-url")
				sc := solana.NewClient(solana.NewRPCClient(rpcURL), rpcURL, nil, cliLogger())
				tx, err := sc.FetchTransaction(ctx, signature)
				if err != nil {
					return fmt.Errorf("failed to fetch transaction: %w", err)
				}
				txs = []*solana.Transaction{tx}
			} else {
				data, err := readInput(c.App.Reader, file)
				if err != nil {
					return err
				}
				txs, skipped, err = decodeTransactions(data)
				if err != nil {
					return err
				}
			}

			rules := burn.RuleConfig{
				ProgramID:           c.String("program"),
				LamportThreshold:    c.Int64("lamport-threshold"),
				AccountKeyHeuristic: !c.Bool("no-account-heuristic"),
			}

			resolver, closeResolver := newResolver(c)
			defer closeResolver()

			results := classifyAll(ctx, txs, rules, resolver, filter)
			return printClassification(c, results, skipped)
		},
	}
}

// classification is one classified transaction.
type classification struct {
	Signature string               `json:"signature"`
	Burn      bool                 `json:"burn"`
	Rule      string               `json:"rule,omitempty"`
	Event     *natspkg.BurnMessage `json:"event,omitempty"`
}

func classifyAll(ctx context.Context, txs []*solana.Transaction, rules burn.RuleConfig, resolver burn.TokenResolver, filter *notify.Filter) []classification {
	classifier := burn.NewClassifier(rules)
	processor := burn.NewProcessor(resolver, burn.DefaultExplorerTemplate, cliLogger(),
		burn.WithProgramID(rules.ProgramID),
	)

	results := make([]classification, 0, len(txs))
	for _, tx := range txs {
		isBurn, rule := classifier.Classify(tx)
		if !isBurn {
			results = append(results, classification{Signature: tx.Signature})
			continue
		}

		ev := processor.Process(ctx, tx)
		ev.Rule = rule
		if filter != nil {
			ok, err := filter.Match(ctx, ev)
			if err != nil || !ok {
				continue
			}
		}
		results = append(results, classification{
			Signature: tx.Signature,
			Burn:      true,
			Rule:      rule,
			Event:     natspkg.FromEvent(ev),
		})
	}
	return results
}

func printClassification(c *cli.Context, results []classification, skipped int) error {
	w := c.App.Writer

	if c.Bool("json") {
		enc := json.NewEncoder(w)
		for _, r := range results {
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("failed to encode result: %w", err)
			}
		}
		return nil
	}

	burns := 0
	for _, r := range results {
		if !r.Burn {
			fmt.Fprintf(w, "  %s  not a burn\n", r.Signature)
			continue
		}
		burns++
		fmt.Fprintf(w, "🔥 %s  burn (rule: %s)\n", r.Signature, r.Rule)
		for _, b := range r.Event.Burned {
			fmt.Fprintf(w, "     %s (%s): %s\n", b.Name, b.Symbol, b.Amount)
		}
		fmt.Fprintf(w, "     %s\n", r.Event.ExplorerURL)
	}
	fmt.Fprintf(w, "\n%d transaction(s), %d burn(s), %d malformed\n", len(results), burns, skipped)
	return nil
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// decodeTransactions accepts a webhook body or a single transaction object.
// Entries that are not objects or lack a signature are counted and skipped.
func decodeTransactions(data []byte) ([]*solana.Transaction, int, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, 0, errors.New("input is empty")
	}

	var entries []json.RawMessage
	if trimmed[0] == '{' {
		entries = []json.RawMessage{trimmed}
	} else if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, 0, fmt.Errorf("input must be a JSON array or object: %w", err)
	}

	txs := make([]*solana.Transaction, 0, len(entries))
	skipped := 0
	for _, entry := range entries {
		var tx solana.Transaction
		if err := json.Unmarshal(entry, &tx); err != nil || tx.Validate() != nil {
			skipped++
			continue
		}
		txs = append(txs, &tx)
	}
	return txs, skipped, nil
}

type placeholderResolver struct{}

func (placeholderResolver) Get(_ context.Context, mint string) solana.TokenInfo {
	return solana.PlaceholderTokenInfo(mint)
}

func newResolver(c *cli.Context) (burn.TokenResolver, func()) {
	apiKey := c.String("helius-api-key")
	if apiKey == "" {
		return placeholderResolver{}, func() {}
	}
	hc := helius.NewClient(c.String("helius-api-url"), apiKey,
		helius.WithTimeout(c.Duration("timeout")),
		helius.WithLogger(cliLogger()),
	)
	cache := tokencache.New(hc, tokencache.DefaultTTL, tokencache.WithLogger(cliLogger()))
	return cache, func() { hc.Close() }
}

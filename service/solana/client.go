package solana

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brojonat/burnwatch/service/metrics"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// RPCClient is an interface for the Solana RPC operations we need.
// This allows us to mock the RPC layer in tests without hitting real Solana nodes.
type RPCClient interface {
	GetTransaction(
		ctx context.Context,
		signature solanago.Signature,
		opts *rpc.GetTransactionOpts,
	) (*rpc.GetTransactionResult, error)
}

// ErrTransactionNotFound is returned when the node has no record of a signature.
var ErrTransactionNotFound = errors.New("transaction not found")

// Client fetches confirmed transactions and converts them into the same
// record shape the webhook delivers, so they can be replayed through the
// classifier offline.
type Client struct {
	rpc      RPCClient
	logger   *slog.Logger
	metrics  *metrics.Metrics
	endpoint string
}

// NewClient creates a new Solana client.
// The endpoint parameter is used for metrics labeling.
func NewClient(rpcClient RPCClient, endpoint string, m *metrics.Metrics, logger *slog.Logger) *Client {
	return &Client{
		rpc:      rpcClient,
		logger:   logger,
		metrics:  m,
		endpoint: endpoint,
	}
}

// FetchTransaction loads a transaction by signature.
func (c *Client) FetchTransaction(ctx context.Context, signature string) (*Transaction, error) {
	sig, err := solanago.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("invalid signature %q: %w", signature, err)
	}

	opts := &rpc.GetTransactionOpts{
		Encoding:                       solanago.EncodingBase64,
		MaxSupportedTransactionVersion: &[]uint64{0}[0],
	}

	start := time.Now()
	result, err := c.rpc.GetTransaction(ctx, sig, opts)
	status := "success"
	if err != nil {
		status = "error"
	}
	c.metrics.RecordRPCCall("GetTransaction", status, c.endpoint, time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		c.logger.ErrorContext(ctx, "failed to get transaction",
			"signature", signature,
			"error", err,
		)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if result == nil {
		return nil, ErrTransactionNotFound
	}

	record, err := recordFromResult(signature, result)
	if err != nil {
		return nil, err
	}

	c.logger.DebugContext(ctx, "fetched transaction",
		"signature", signature,
		"instructions", len(record.Instructions),
		"account_keys", len(record.AccountKeys),
	)
	return record, nil
}

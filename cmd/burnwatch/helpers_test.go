package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sig1Payload = `[{
	"signature": "SIG1",
	"blockTime": 1700000000,
	"instructions": [{"programId": "RVKd61ztZW9njDq5E7Yh5b2bb4a6JjAwjhH38GZ3oN7", "data": "burn_liquidity"}],
	"accountKeys": ["k1", "k2"],
	"meta": {
		"preTokenBalances": [{"accountIndex": 0, "mint": "MINT1", "uiTokenAmount": {"uiAmount": 1000}}],
		"postTokenBalances": [{"accountIndex": 0, "mint": "MINT1", "uiTokenAmount": {"uiAmount": 0}}]
	}
}, {
	"signature": "SIG2",
	"blockTime": 1700000001,
	"instructions": [{"programId": "Other111", "data": "swap"}],
	"accountKeys": ["k1"]
}]`

// runApp runs the CLI with args and returns what it wrote.
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"burnwatch"}, args...))
	return out.String(), err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

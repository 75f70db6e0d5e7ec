package burn

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/brojonat/burnwatch/service/solana"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	mu      sync.Mutex
	known   map[string]solana.TokenInfo
	lookups []string
}

func (r *fakeResolver) Get(ctx context.Context, mint string) solana.TokenInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups = append(r.lookups, mint)
	if info, ok := r.known[mint]; ok {
		return info
	}
	return solana.PlaceholderTokenInfo(mint)
}

func TestProcess(t *testing.T) {
	resolver := &fakeResolver{known: map[string]solana.TokenInfo{
		"MINT1": {Mint: "MINT1", Name: "Liquidity", Symbol: "LP", Decimals: 6},
	}}
	p := NewProcessor(resolver, DefaultExplorerTemplate, nil, WithProgramID(solana.DefaultProgramID))

	tx := &solana.Transaction{
		Signature: "SIG1",
		BlockTime: 1700000000,
		Meta: &solana.Meta{
			PreTokenBalances: []solana.TokenBalance{
				{AccountIndex: 0, Mint: "MINT1", UITokenAmount: amount(1000)},
				{AccountIndex: 1, Mint: "MINT2", UITokenAmount: amount(5)},
			},
			PostTokenBalances: []solana.TokenBalance{
				{AccountIndex: 0, Mint: "MINT1", UITokenAmount: amount(0)},
				{AccountIndex: 1, Mint: "MINT2", UITokenAmount: amount(7)},
				{AccountIndex: 2, Mint: "MINT3", UITokenAmount: amount(1)},
			},
		},
	}

	ev := p.Process(context.Background(), tx)

	assert.Equal(t, "SIG1", ev.Signature)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), ev.Timestamp)
	assert.Equal(t, solana.DefaultProgramID, ev.ProgramID)
	assert.Equal(t, "https://solscan.io/tx/SIG1", ev.ExplorerURL)
	assert.Equal(t, []string{"MINT1", "MINT2", "MINT3"}, ev.Mints)
	assert.ElementsMatch(t, []string{"MINT1", "MINT2", "MINT3"}, resolver.lookups)

	require.Len(t, ev.BurnAmounts, 1)
	assert.True(t, ev.BurnAmounts["MINT1"].Equal(decimal.NewFromInt(1000)))
	_, touched := ev.BurnAmounts["MINT2"]
	assert.False(t, touched, "increases are not recorded")

	assert.Equal(t, "LP", ev.Tokens["MINT1"].Symbol)
	assert.Equal(t, solana.PlaceholderTokenInfo("MINT3"), ev.Tokens["MINT3"])

	burned := ev.Burned()
	require.Len(t, burned, 1)
	assert.Equal(t, "Liquidity", burned[0].Token.Name)
}

func TestProcess_NoMetaNoTimestamp(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p := NewProcessor(&fakeResolver{}, "https://explorer.example.com/tx", nil,
		WithProcessorClock(func() time.Time { return now }))

	ev := p.Process(context.Background(), &solana.Transaction{Signature: "SIG2"})

	assert.Equal(t, now, ev.Timestamp)
	assert.Empty(t, ev.Mints)
	assert.NotNil(t, ev.Mints)
	assert.Empty(t, ev.BurnAmounts)
	assert.Equal(t, "https://explorer.example.com/tx/SIG2", ev.ExplorerURL)
}

func TestBurnAmounts_LastAccountOfMintWins(t *testing.T) {
	balance := func(idx int, amount string) solana.TokenBalance {
		return solana.TokenBalance{AccountIndex: idx, Mint: "M", UITokenAmount: solana.UITokenAmount{UIAmountString: amount}}
	}

	tests := []struct {
		name     string
		pre      []solana.TokenBalance
		post     []solana.TokenBalance
		expected string
	}{
		{
			name:     "two decreasing accounts",
			pre:      []solana.TokenBalance{balance(0, "100"), balance(1, "50")},
			post:     []solana.TokenBalance{balance(0, "0"), balance(1, "40")},
			expected: "10",
		},
		{
			name:     "later account without decrease is ignored",
			pre:      []solana.TokenBalance{balance(0, "100"), balance(1, "50")},
			post:     []solana.TokenBalance{balance(0, "0"), balance(1, "60")},
			expected: "100",
		},
		{
			name:     "order follows pre balances",
			pre:      []solana.TokenBalance{balance(1, "50"), balance(0, "100")},
			post:     []solana.TokenBalance{balance(0, "0"), balance(1, "40")},
			expected: "100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amounts := BurnAmounts(&solana.Meta{PreTokenBalances: tt.pre, PostTokenBalances: tt.post})
			require.Contains(t, amounts, "M")
			assert.Equal(t, tt.expected, amounts["M"].String())
		})
	}
}

func TestExplorerURL(t *testing.T) {
	tests := []struct {
		name     string
		template string
		expected string
	}{
		{"default", "", "https://solscan.io/tx/abc"},
		{"verb", "https://explorer.solana.com/tx/%s?cluster=devnet", "https://explorer.solana.com/tx/abc?cluster=devnet"},
		{"base url", "https://solana.fm/tx/", "https://solana.fm/tx/abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExplorerURL(tt.template, "abc"))
		})
	}
}

func TestEvent_JSON(t *testing.T) {
	ev := &Event{
		Signature:   "SIG1",
		Timestamp:   time.Unix(1700000000, 0).UTC(),
		Mints:       []string{"MINT1"},
		Tokens:      map[string]solana.TokenInfo{"MINT1": solana.PlaceholderTokenInfo("MINT1")},
		BurnAmounts: map[string]decimal.Decimal{"MINT1": decimal.NewFromInt(1000)},
		ExplorerURL: "https://solscan.io/tx/SIG1",
	}

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "SIG1", decoded["signature"])
	assert.Equal(t, map[string]any{"MINT1": "1000"}, decoded["burn_amounts"])
}

package solana

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }

func TestTransaction_DecodeWebhookEntry(t *testing.T) {
	payload := `{
		"signature": "SIG1",
		"blockTime": 1700000000,
		"instructions": [{"programId": "RVKd61ztZW9njDq5E7Yh5b2bb4a6JjAwjhH38GZ3oN7", "data": "burn_liquidity"}],
		"accountKeys": ["a", "b"],
		"meta": {
			"preBalances": [2000000, 10],
			"postBalances": [1000000, 10],
			"preTokenBalances": [{"accountIndex": 0, "mint": "MINT1", "uiTokenAmount": {"uiAmount": 1000}}],
			"postTokenBalances": [{"accountIndex": 0, "mint": "MINT1", "uiTokenAmount": {"uiAmount": 0}}]
		}
	}`

	var tx Transaction
	require.NoError(t, json.Unmarshal([]byte(payload), &tx))

	assert.Equal(t, "SIG1", tx.Signature)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), tx.Time())
	require.Len(t, tx.Instructions, 1)
	assert.Equal(t, "burn_liquidity", tx.Instructions[0].Data)
	require.NotNil(t, tx.Meta)
	assert.Equal(t, []int64{2000000, 10}, tx.Meta.PreBalances)
	assert.True(t, decimal.NewFromInt(1000).Equal(tx.Meta.PreTokenBalances[0].UITokenAmount.Decimal()))
}

func TestTransaction_Validate(t *testing.T) {
	assert.ErrorIs(t, (&Transaction{}).Validate(), ErrMissingSignature)
	assert.NoError(t, (&Transaction{Signature: "x"}).Validate())
}

func TestTransaction_Time(t *testing.T) {
	t.Run("block time wins", func(t *testing.T) {
		tx := Transaction{BlockTime: 100, Timestamp: 200}
		assert.Equal(t, int64(100), tx.Time().Unix())
	})

	t.Run("falls back to enhanced timestamp", func(t *testing.T) {
		tx := Transaction{Timestamp: 200}
		assert.Equal(t, int64(200), tx.Time().Unix())
	})

	t.Run("zero when absent", func(t *testing.T) {
		tx := Transaction{}
		assert.True(t, tx.Time().IsZero())
	})
}

func TestTransaction_Keys(t *testing.T) {
	tx := Transaction{AccountData: []AccountData{{Account: "k1"}, {Account: "k2"}}}
	assert.Equal(t, []string{"k1", "k2"}, tx.Keys())

	tx.AccountKeys = []string{"direct"}
	assert.Equal(t, []string{"direct"}, tx.Keys())
}

func TestUITokenAmount_Decimal(t *testing.T) {
	tests := []struct {
		name   string
		amount UITokenAmount
		want   string
	}{
		{name: "string preferred", amount: UITokenAmount{UIAmount: floatPtr(0.1), UIAmountString: "0.1000001"}, want: "0.1000001"},
		{name: "float fallback", amount: UITokenAmount{UIAmount: floatPtr(12.5)}, want: "12.5"},
		{name: "null amount is zero", amount: UITokenAmount{}, want: "0"},
		{name: "garbage string falls back to float", amount: UITokenAmount{UIAmount: floatPtr(3), UIAmountString: "abc"}, want: "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.amount.Decimal().String())
		})
	}
}

func TestMeta_TokenBalanceChanges(t *testing.T) {
	meta := &Meta{
		PreTokenBalances: []TokenBalance{
			{AccountIndex: 1, Mint: "A", UITokenAmount: UITokenAmount{UIAmountString: "10"}},
			{AccountIndex: 2, Mint: "B", UITokenAmount: UITokenAmount{UIAmountString: "5"}},
			{AccountIndex: 7, Mint: "C", UITokenAmount: UITokenAmount{UIAmountString: "1"}},
		},
		PostTokenBalances: []TokenBalance{
			{AccountIndex: 2, Mint: "B", UITokenAmount: UITokenAmount{UIAmountString: "6"}},
			{AccountIndex: 1, Mint: "A", UITokenAmount: UITokenAmount{UIAmountString: "4"}},
		},
	}

	changes := meta.TokenBalanceChanges()
	require.Len(t, changes, 2)
	assert.Equal(t, "A", changes[0].Mint)
	assert.Equal(t, "6", changes[0].Decrease().String())
	assert.Equal(t, "B", changes[1].Mint)
	assert.Equal(t, "-1", changes[1].Decrease().String())

	var nilMeta *Meta
	assert.Nil(t, nilMeta.TokenBalanceChanges())
}

func TestMeta_Mints(t *testing.T) {
	meta := &Meta{
		PreTokenBalances:  []TokenBalance{{Mint: "A"}, {Mint: "B"}, {Mint: ""}},
		PostTokenBalances: []TokenBalance{{Mint: "B"}, {Mint: "C"}},
	}
	assert.Equal(t, []string{"A", "B", "C"}, meta.Mints())
}

func TestPlaceholderTokenInfo(t *testing.T) {
	info := PlaceholderTokenInfo("MINT")
	assert.Equal(t, "MINT", info.Mint)
	assert.Equal(t, "Unknown Token", info.Name)
	assert.Equal(t, "UNKNOWN", info.Symbol)
	assert.Equal(t, 9, info.Decimals)
	assert.Empty(t, info.LogoURI)
}

package solana

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one entry of an enhanced webhook delivery.
// It is decoded fresh for every request and never mutated afterwards.
type Transaction struct {
	Signature    string        `json:"signature"`
	BlockTime    int64         `json:"blockTime"`
	Timestamp    int64         `json:"timestamp,omitempty"` // enhanced payloads carry this instead of blockTime
	Instructions []Instruction `json:"instructions"`
	AccountKeys  []string      `json:"accountKeys"`
	AccountData  []AccountData `json:"accountData,omitempty"`
	Meta         *Meta         `json:"meta,omitempty"`
}

// Instruction is a top-level instruction with its opaque data payload.
type Instruction struct {
	ProgramID string   `json:"programId"`
	Data      string   `json:"data"`
	Accounts  []string `json:"accounts,omitempty"`
}

// AccountData is the per-account summary used by enhanced payloads.
type AccountData struct {
	Account             string `json:"account"`
	NativeBalanceChange int64  `json:"nativeBalanceChange"`
}

// Meta holds the balance snapshots taken before and after execution.
// PreBalances and PostBalances are aligned by account index.
type Meta struct {
	PreBalances       []int64        `json:"preBalances"`
	PostBalances      []int64        `json:"postBalances"`
	PreTokenBalances  []TokenBalance `json:"preTokenBalances"`
	PostTokenBalances []TokenBalance `json:"postTokenBalances"`
}

// TokenBalance is an SPL token balance of one account.
type TokenBalance struct {
	AccountIndex  int           `json:"accountIndex"`
	Mint          string        `json:"mint"`
	Owner         string        `json:"owner,omitempty"`
	UITokenAmount UITokenAmount `json:"uiTokenAmount"`
}

// UITokenAmount is the decimal-scaled amount. UIAmount is null for zero
// balances on some RPC versions, so UIAmountString is preferred when present.
type UITokenAmount struct {
	UIAmount       *float64 `json:"uiAmount"`
	UIAmountString string   `json:"uiAmountString,omitempty"`
	Amount         string   `json:"amount,omitempty"`
	Decimals       int      `json:"decimals,omitempty"`
}

// TokenInfo describes a token mint.
type TokenInfo struct {
	Mint     string `json:"mint"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	LogoURI  string `json:"logoURI,omitempty"`
}

// Placeholder values used when metadata cannot be fetched.
const (
	UnknownTokenName   = "Unknown Token"
	UnknownTokenSymbol = "UNKNOWN"
	DefaultDecimals    = 9
)

// PlaceholderTokenInfo returns the stand-in metadata for a mint whose lookup failed.
func PlaceholderTokenInfo(mint string) TokenInfo {
	return TokenInfo{
		Mint:     mint,
		Name:     UnknownTokenName,
		Symbol:   UnknownTokenSymbol,
		Decimals: DefaultDecimals,
	}
}

// ErrMissingSignature is returned by Validate for records without a signature.
var ErrMissingSignature = errors.New("transaction signature is required")

// Validate checks the fields every downstream stage relies on.
func (t *Transaction) Validate() error {
	if t.Signature == "" {
		return ErrMissingSignature
	}
	return nil
}

// Time returns the block time, falling back to the enhanced timestamp.
// The zero time is returned when neither is present.
func (t *Transaction) Time() time.Time {
	switch {
	case t.BlockTime > 0:
		return time.Unix(t.BlockTime, 0).UTC()
	case t.Timestamp > 0:
		return time.Unix(t.Timestamp, 0).UTC()
	default:
		return time.Time{}
	}
}

// Keys returns the account keys, using accountData when accountKeys is absent.
func (t *Transaction) Keys() []string {
	if len(t.AccountKeys) > 0 || len(t.AccountData) == 0 {
		return t.AccountKeys
	}
	keys := make([]string, 0, len(t.AccountData))
	for _, ad := range t.AccountData {
		keys = append(keys, ad.Account)
	}
	return keys
}

// Decimal returns the UI amount as an exact decimal. Missing amounts are zero.
func (u UITokenAmount) Decimal() decimal.Decimal {
	if u.UIAmountString != "" {
		if d, err := decimal.NewFromString(u.UIAmountString); err == nil {
			return d
		}
	}
	if u.UIAmount != nil {
		return decimal.NewFromFloat(*u.UIAmount)
	}
	return decimal.Zero
}

// BalanceChange pairs the pre and post token balance of one account.
type BalanceChange struct {
	AccountIndex int
	Mint         string
	Pre          decimal.Decimal
	Post         decimal.Decimal
}

// Decrease returns pre - post.
func (c BalanceChange) Decrease() decimal.Decimal {
	return c.Pre.Sub(c.Post)
}

// TokenBalanceChanges pairs every account index present in both the pre and
// post token balance lists, in pre-list order. The mint is taken from the
// pre balance.
func (m *Meta) TokenBalanceChanges() []BalanceChange {
	if m == nil || len(m.PreTokenBalances) == 0 || len(m.PostTokenBalances) == 0 {
		return nil
	}

	post := make(map[int]TokenBalance, len(m.PostTokenBalances))
	for _, b := range m.PostTokenBalances {
		post[b.AccountIndex] = b
	}

	changes := make([]BalanceChange, 0, len(m.PreTokenBalances))
	for _, pre := range m.PreTokenBalances {
		p, ok := post[pre.AccountIndex]
		if !ok {
			continue
		}
		changes = append(changes, BalanceChange{
			AccountIndex: pre.AccountIndex,
			Mint:         pre.Mint,
			Pre:          pre.UITokenAmount.Decimal(),
			Post:         p.UITokenAmount.Decimal(),
		})
	}
	return changes
}

// Mints returns the distinct mints found in either token balance list,
// in order of first appearance.
func (m *Meta) Mints() []string {
	if m == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var mints []string
	for _, list := range [][]TokenBalance{m.PreTokenBalances, m.PostTokenBalances} {
		for _, b := range list {
			if b.Mint == "" {
				continue
			}
			if _, ok := seen[b.Mint]; ok {
				continue
			}
			seen[b.Mint] = struct{}{}
			mints = append(mints, b.Mint)
		}
	}
	return mints
}

package burn

import (
	"strings"

	"github.com/brojonat/burnwatch/service/solana"
)

// Rule is one named burn heuristic. Rules only read the transaction.
type Rule interface {
	Name() string
	Match(tx *solana.Transaction) bool
}

// Rule names, also used as metric labels.
const (
	RuleInstruction  = "instruction"
	RuleTokenBalance = "token_balance"
	RuleSOLBalance   = "sol_balance"
	RuleAccountKey   = "account_key"
)

// DefaultLamportThreshold is 0.0001 SOL.
const DefaultLamportThreshold int64 = 100_000

var (
	// Withdraw, remove liquidity and close position opcodes as they appear
	// in hex-rendered instruction data.
	instructionPrefixes = []string{"0x02", "0x09", "0x0a"}
	instructionKeywords = []string{"close", "burn", "withdraw", "remove"}
)

// InstructionRule matches an instruction sent to ProgramID whose data looks
// like a liquidity removal.
type InstructionRule struct {
	ProgramID string
}

func (InstructionRule) Name() string { return RuleInstruction }

func (r InstructionRule) Match(tx *solana.Transaction) bool {
	for _, ix := range tx.Instructions {
		if ix.ProgramID != r.ProgramID || ix.Data == "" {
			continue
		}
		if matchesInstructionData(ix.Data) {
			return true
		}
	}
	return false
}

func matchesInstructionData(data string) bool {
	for _, p := range instructionPrefixes {
		if strings.HasPrefix(data, p) {
			return true
		}
	}
	for _, k := range instructionKeywords {
		if strings.Contains(data, k) {
			return true
		}
	}
	return false
}

// TokenBalanceRule matches any account whose token balance strictly decreased.
type TokenBalanceRule struct{}

func (TokenBalanceRule) Name() string { return RuleTokenBalance }

func (TokenBalanceRule) Match(tx *solana.Transaction) bool {
	for _, c := range tx.Meta.TokenBalanceChanges() {
		if c.Decrease().IsPositive() {
			return true
		}
	}
	return false
}

// SOLBalanceRule matches any account that lost more than Threshold lamports.
// Enhanced payloads without a meta block are checked through accountData.
type SOLBalanceRule struct {
	Threshold int64
}

func (SOLBalanceRule) Name() string { return RuleSOLBalance }

func (r SOLBalanceRule) Match(tx *solana.Transaction) bool {
	if tx.Meta != nil && len(tx.Meta.PreBalances) > 0 {
		pre, post := tx.Meta.PreBalances, tx.Meta.PostBalances
		for i := range pre {
			if i < len(post) && pre[i]-post[i] > r.Threshold {
				return true
			}
		}
		return false
	}
	for _, ad := range tx.AccountData {
		if -ad.NativeBalanceChange > r.Threshold {
			return true
		}
	}
	return false
}

// AccountKeyRule matches any account key containing "pool" or having the
// canonical public key length. Nearly every transaction has such a key.
type AccountKeyRule struct{}

func (AccountKeyRule) Name() string { return RuleAccountKey }

func (AccountKeyRule) Match(tx *solana.Transaction) bool {
	for _, key := range tx.Keys() {
		if strings.Contains(key, "pool") || len(key) == solana.PublicKeyLength {
			return true
		}
	}
	return false
}

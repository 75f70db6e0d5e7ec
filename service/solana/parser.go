package solana

import (
	"fmt"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// recordFromResult converts a GetTransaction result into a webhook-shaped record.
func recordFromResult(signature string, result *rpc.GetTransactionResult) (*Transaction, error) {
	if result.Transaction == nil {
		return nil, fmt.Errorf("transaction %s has no body", signature)
	}

	tx, err := result.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}

	var blockTime int64
	if result.BlockTime != nil {
		blockTime = int64(*result.BlockTime)
	}

	return recordFromParts(signature, blockTime, tx, result.Meta), nil
}

// recordFromParts builds the record from an already-decoded transaction.
func recordFromParts(signature string, blockTime int64, tx *solanago.Transaction, meta *rpc.TransactionMeta) *Transaction {
	record := &Transaction{
		Signature: signature,
		BlockTime: blockTime,
	}

	accountKeys := tx.Message.AccountKeys
	record.AccountKeys = make([]string, len(accountKeys))
	for i, key := range accountKeys {
		record.AccountKeys[i] = key.String()
	}

	for _, ix := range tx.Message.Instructions {
		var programID string
		if int(ix.ProgramIDIndex) < len(accountKeys) {
			programID = accountKeys[ix.ProgramIDIndex].String()
		}
		accounts := make([]string, 0, len(ix.Accounts))
		for _, idx := range ix.Accounts {
			if int(idx) < len(accountKeys) {
				accounts = append(accounts, accountKeys[idx].String())
			}
		}
		record.Instructions = append(record.Instructions, Instruction{
			ProgramID: programID,
			Data:      ix.Data.String(),
			Accounts:  accounts,
		})
	}

	if meta == nil {
		return record
	}

	record.Meta = &Meta{
		PreBalances:       lamportsToInt64(meta.PreBalances),
		PostBalances:      lamportsToInt64(meta.PostBalances),
		PreTokenBalances:  tokenBalances(meta.PreTokenBalances),
		PostTokenBalances: tokenBalances(meta.PostTokenBalances),
	}
	return record
}

func lamportsToInt64(in []uint64) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}

func tokenBalances(in []rpc.TokenBalance) []TokenBalance {
	out := make([]TokenBalance, 0, len(in))
	for _, b := range in {
		tb := TokenBalance{
			AccountIndex: int(b.AccountIndex),
			Mint:         b.Mint.String(),
		}
		if b.Owner != nil {
			tb.Owner = b.Owner.String()
		}
		if b.UiTokenAmount != nil {
			tb.UITokenAmount = UITokenAmount{
				UIAmount:       b.UiTokenAmount.UiAmount,
				UIAmountString: b.UiTokenAmount.UiAmountString,
				Amount:         b.UiTokenAmount.Amount,
				Decimals:       int(b.UiTokenAmount.Decimals),
			}
		}
		out = append(out, tb)
	}
	return out
}

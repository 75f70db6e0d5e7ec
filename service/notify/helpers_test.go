package notify

import (
	"time"

	"github.com/brojonat/burnwatch/service/burn"
	"github.com/brojonat/burnwatch/service/solana"
	"github.com/shopspring/decimal"
)

func testEvent() *burn.Event {
	return &burn.Event{
		Signature: "SIG1",
		Timestamp: time.Unix(1700000000, 0).UTC(),
		ProgramID: solana.DefaultProgramID,
		Mints:     []string{"MINT1", "MINT2"},
		Tokens: map[string]solana.TokenInfo{
			"MINT1": {Mint: "MINT1", Name: "Liquidity <LP>", Symbol: "LP", Decimals: 6, LogoURI: "https://example.com/lp.png"},
			"MINT2": solana.PlaceholderTokenInfo("MINT2"),
		},
		BurnAmounts: map[string]decimal.Decimal{"MINT1": decimal.NewFromInt(1000)},
		ExplorerURL: "https://solscan.io/tx/SIG1",
	}
}

func emptyEvent() *burn.Event {
	ev := testEvent()
	ev.BurnAmounts = map[string]decimal.Decimal{}
	return ev
}

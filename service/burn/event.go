package burn

import (
	"fmt"
	"strings"
	"time"

	"github.com/brojonat/burnwatch/service/solana"
	"github.com/shopspring/decimal"
)

// DefaultExplorerTemplate links a signature on Solscan.
const DefaultExplorerTemplate = "https://solscan.io/tx/%s"

// Event is a classified burn ready for dispatch. It lives for the duration
// of one notification round.
type Event struct {
	Signature   string                      `json:"signature"`
	Timestamp   time.Time                   `json:"timestamp"`
	ProgramID   string                      `json:"program_id,omitempty"`
	Rule        string                      `json:"rule,omitempty"`
	Mints       []string                    `json:"mints"`
	Tokens      map[string]solana.TokenInfo `json:"tokens"`
	BurnAmounts map[string]decimal.Decimal  `json:"burn_amounts"`
	ExplorerURL string                      `json:"explorer_url"`
}

// BurnedToken is one entry of Event.Burned.
type BurnedToken struct {
	Token  solana.TokenInfo
	Amount decimal.Decimal
}

// Burned returns the tokens with a recorded burn amount, in mint order.
func (e *Event) Burned() []BurnedToken {
	out := make([]BurnedToken, 0, len(e.BurnAmounts))
	for _, mint := range e.Mints {
		amount, ok := e.BurnAmounts[mint]
		if !ok {
			continue
		}
		info, ok := e.Tokens[mint]
		if !ok {
			info = solana.PlaceholderTokenInfo(mint)
		}
		out = append(out, BurnedToken{Token: info, Amount: amount})
	}
	return out
}

// ExplorerURL renders template for signature. Templates without a %s verb
// get the signature appended.
func ExplorerURL(template, signature string) string {
	if template == "" {
		template = DefaultExplorerTemplate
	}
	if !strings.Contains(template, "%s") {
		return strings.TrimRight(template, "/") + "/" + signature
	}
	return fmt.Sprintf(template, signature)
}

// BurnAmounts records pre minus post for every account whose balance
// strictly decreased. When several accounts of one mint decrease, the last
// one in pre-balance order wins. Mints without a decrease are absent.
func BurnAmounts(meta *solana.Meta) map[string]decimal.Decimal {
	amounts := make(map[string]decimal.Decimal)
	for _, c := range meta.TokenBalanceChanges() {
		if c.Mint == "" {
			continue
		}
		d := c.Decrease()
		if !d.IsPositive() {
			continue
		}
		amounts[c.Mint] = d
	}
	return amounts
}

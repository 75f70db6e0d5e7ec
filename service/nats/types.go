package nats

import (
	"time"

	"github.com/brojonat/burnwatch/service/burn"
)

// BurnMessage is the wire form of a burn event, published to the subject
// "burns.{program_id}" in JetStream and reused by the Kafka sink and the
// SSE stream.
type BurnMessage struct {
	Signature   string    `json:"signature"`
	ProgramID   string    `json:"program_id"`
	Rule        string    `json:"rule,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Mints       []string  `json:"mints"`
	Burned      []Burned  `json:"burned"`
	ExplorerURL string    `json:"explorer_url"`
	PublishedAt time.Time `json:"published_at"`
}

// Burned is one burned token of a BurnMessage. Amount keeps the exact
// decimal string.
type Burned struct {
	Mint     string `json:"mint"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	Amount   string `json:"amount"`
}

// FromEvent converts a burn event for publishing.
func FromEvent(ev *burn.Event) *BurnMessage {
	msg := &BurnMessage{
		Signature:   ev.Signature,
		ProgramID:   ev.ProgramID,
		Rule:        ev.Rule,
		Timestamp:   ev.Timestamp,
		Mints:       ev.Mints,
		Burned:      make([]Burned, 0, len(ev.BurnAmounts)),
		ExplorerURL: ev.ExplorerURL,
		PublishedAt: time.Now().UTC(),
	}
	for _, b := range ev.Burned() {
		msg.Burned = append(msg.Burned, Burned{
			Mint:     b.Token.Mint,
			Name:     b.Token.Name,
			Symbol:   b.Token.Symbol,
			Decimals: b.Token.Decimals,
			Amount:   b.Amount.String(),
		})
	}
	return msg
}

// Subject returns the JetStream subject for a program.
func Subject(programID string) string {
	if programID == "" {
		programID = "unknown"
	}
	return SubjectPrefix + programID
}

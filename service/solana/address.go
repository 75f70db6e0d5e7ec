package solana

import (
	"fmt"

	solanago "github.com/gagliardetto/solana-go"
)

// DefaultProgramID is the AMM program monitored when none is configured.
const DefaultProgramID = "RVKd61ztZW9njDq5E7Yh5b2bb4a6JjAwjhH38GZ3oN7"

// PublicKeyLength is the canonical base58 length of a 32-byte public key.
const PublicKeyLength = 44

// ValidateAddress reports whether addr decodes to a 32-byte public key.
func ValidateAddress(addr string) error {
	if addr == "" {
		return fmt.Errorf("address is required")
	}
	if _, err := solanago.PublicKeyFromBase58(addr); err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}
	return nil
}

// LamportsToSOL converts lamports to SOL for display.
func LamportsToSOL(lamports int64) float64 {
	return float64(lamports) / float64(solanago.LAMPORTS_PER_SOL)
}

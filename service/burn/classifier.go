// Package burn decides whether a webhook transaction is an LP burn and
// turns positive matches into burn events.
package burn

import "github.com/brojonat/burnwatch/service/solana"

// RuleConfig selects and parameterizes the classifier rules.
type RuleConfig struct {
	ProgramID           string
	LamportThreshold    int64
	AccountKeyHeuristic bool
}

// DefaultRuleConfig returns the rule set used when nothing is configured.
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{
		ProgramID:           solana.DefaultProgramID,
		LamportThreshold:    DefaultLamportThreshold,
		AccountKeyHeuristic: true,
	}
}

// Classifier evaluates its rules in order; the first match wins.
type Classifier struct {
	rules []Rule
}

// NewClassifier builds the instruction, token balance, SOL balance and
// (optionally) account key rules from cfg.
func NewClassifier(cfg RuleConfig) *Classifier {
	rules := []Rule{
		InstructionRule{ProgramID: cfg.ProgramID},
		TokenBalanceRule{},
		SOLBalanceRule{Threshold: cfg.LamportThreshold},
	}
	if cfg.AccountKeyHeuristic {
		rules = append(rules, AccountKeyRule{})
	}
	return &Classifier{rules: rules}
}

// NewClassifierWithRules uses rules as given.
func NewClassifierWithRules(rules ...Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Classify reports whether tx is a burn and the name of the rule that matched.
func (c *Classifier) Classify(tx *solana.Transaction) (bool, string) {
	for _, r := range c.rules {
		if r.Match(tx) {
			return true, r.Name()
		}
	}
	return false, ""
}

// Rules returns the names of the active rules in evaluation order.
func (c *Classifier) Rules() []string {
	names := make([]string, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.Name()
	}
	return names
}

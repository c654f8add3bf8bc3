package mev

import (
	"github.com/ethereum/go-ethereum/common"

	"mevwatcher/config"
)

// ScoreConfig holds the multipliers of the balance-delta suspicion score. The
// values are empirical.
type ScoreConfig struct {
	Spent         int64 // account sent something
	NonZero       int64 // account is not the zero address
	Sender        int64 // account signed the transaction
	Recipient     int64 // account is the top level callee
	SenderSolvent int64 // transaction sender has no negative delta
	Threshold     int64
}

func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		Spent:         config.SCORE_SPENT_MULTIPLIER,
		NonZero:       config.SCORE_NON_ZERO_MULTIPLIER,
		Sender:        config.SCORE_SENDER_MULTIPLIER,
		Recipient:     config.SCORE_RECIPIENT_MULTIPLIER,
		SenderSolvent: config.SCORE_SENDER_SOLVENT_MULTIPLIER,
		Threshold:     config.SCORE_THRESHOLD,
	}
}

// Score rates how likely account is the beneficiary of an arbitrage in the
// transaction recorded by ledger.
func (c ScoreConfig) Score(ledger *Ledger, account, sender common.Address, recipient *common.Address) int64 {
	score := int64(1)
	if ledger.Spent(account) {
		score *= c.Spent
	}
	if account != (common.Address{}) {
		score *= c.NonZero
	}
	if account == sender {
		score *= c.Sender
	}
	if recipient != nil && account == *recipient {
		score *= c.Recipient
	}
	if ledger.NonNegative(sender) {
		score *= c.SenderSolvent
	}
	return score
}

func (c ScoreConfig) Suspicious(score int64) bool {
	return score >= c.Threshold
}

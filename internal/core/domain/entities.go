package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CodeStatus is the lifecycle state of an affiliate code.
// Inactive -> Active happens once and is never reversed.
type CodeStatus string

const (
	CodeStatusInactive CodeStatus = "inactive"
	CodeStatusActive   CodeStatus = "active"
)

// RankingEntry is one row of the public leaderboard.
// It is recomputed on every request and never persisted.
type RankingEntry struct {
	Code        string
	DisplayName string
	SaleCount   int
	Revenue     decimal.Decimal
	IDNumber    string
	NameSource  string
}

// Name sources for ranking entries
const (
	NameFromGeneratedSale = "generated_sale"
	NameFromAccountSale   = "account_sale"
	NameFromAccountEmail  = "account_email"
	NameFromPlaceholder   = "placeholder"
)

// ActivationStep names a step of the activation sequence
type ActivationStep string

const (
	StepResolve   ActivationStep = "resolve"
	StepVerify    ActivationStep = "verify"
	StepProvision ActivationStep = "provision"
	StepLink      ActivationStep = "link"
	StepCommit    ActivationStep = "commit"
	StepPublish   ActivationStep = "publish"
)

// StepOutcome is the result recorded for a step
type StepOutcome string

const (
	OutcomeOK      StepOutcome = "ok"
	OutcomeSkipped StepOutcome = "skipped"
	OutcomeFailed  StepOutcome = "failed"
)

// StepRecord describes what one step did and how far its failure reaches.
// Compensation is "none" for every step today.
type StepRecord struct {
	Step         ActivationStep
	Outcome      StepOutcome
	Detail       string
	Fatal        bool
	Compensation string
	At           time.Time
}

// ActivationTrace is the ordered record of an activation attempt
type ActivationTrace struct {
	Code  string
	Steps []StepRecord
}

// Record appends a step outcome
func (t *ActivationTrace) Record(step ActivationStep, outcome StepOutcome, fatal bool, detail string) {
	t.Steps = append(t.Steps, StepRecord{
		Step:         step,
		Outcome:      outcome,
		Detail:       detail,
		Fatal:        fatal,
		Compensation: "none",
		At:           time.Now(),
	})
}

// Outcome returns the recorded outcome of step, or "" if it never ran
func (t *ActivationTrace) Outcome(step ActivationStep) StepOutcome {
	for _, s := range t.Steps {
		if s.Step == step {
			return s.Outcome
		}
	}
	return ""
}

// ActivationEvent is published once a code becomes active
type ActivationEvent struct {
	Code        string    `json:"code"`
	UserID      string    `json:"user_id,omitempty"`
	Email       string    `json:"email"`
	ActivatedAt time.Time `json:"activated_at"`
}

// Balance is the affiliate wallet as computed by the store
type Balance struct {
	AvailableBalance decimal.Decimal `json:"available_balance"`
	TotalEarnings    decimal.Decimal `json:"total_earnings"`
	TotalWithdrawn   decimal.Decimal `json:"total_withdrawn"`
}

// WithdrawalReceipt is what the store returns for an accepted request
type WithdrawalReceipt struct {
	WithdrawalID string          `json:"withdrawal_id"`
	Amount       decimal.Decimal `json:"amount"`
	Status       string          `json:"status"`
	Message      string          `json:"message,omitempty"`
}

// WithdrawalRequest is a payout request for the caller's balance
type WithdrawalRequest struct {
	Amount decimal.Decimal
	PixKey string
}

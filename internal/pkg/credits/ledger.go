package credits

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/launchkit/launchkit/app/models"
	"gorm.io/gorm"
)

// ErrDuplicatePayment reports that a ledger entry for the payment id already
// exists. Expected under webhook redelivery; callers treat it as benign.
var ErrDuplicatePayment = errors.New("payment id already recorded")

// Repository provides the DB operations used by the ledger.
type Repository interface {
	// InsertEntryAndIncrementBalance atomically inserts the ledger entry and,
	// only when the insert actually created a row, increments the matching
	// balance inside the same transaction. Returns false when the payment id
	// was already recorded.
	InsertEntryAndIncrementBalance(entry *models.CreditLedgerEntry) (bool, error)
	GetBalance(userID uint, creditType string) (int, error)
	GetPlan(planID string) (*models.Plan, error)
}

// Ledger allocates credits with at-most-once semantics per payment id.
type Ledger struct {
	repo Repository
}

// NewLedger creates a credit ledger from an injected repository.
func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

// NewLedgerFromDB creates a credit ledger from a GORM DB handle.
func NewLedgerFromDB(db *gorm.DB) *Ledger {
	return NewLedger(NewRepository(db))
}

// Allocate adds credits to a user's balance, keyed by payment id. The
// existence check and insert happen as one atomic statement; two concurrent
// deliveries of the same webhook cannot both pass. Returns
// ErrDuplicatePayment when the payment id was already recorded.
func (l *Ledger) Allocate(ctx context.Context, userID uint, paymentID string, creditType Type, amount int, reason string, metadata map[string]string) error {
	_ = ctx
	paymentID = strings.TrimSpace(paymentID)
	if userID == 0 || paymentID == "" {
		return errors.New("user_id and payment_id are required")
	}
	if amount <= 0 {
		return errors.New("credit amount must be positive")
	}

	metaJSON := ""
	if len(metadata) > 0 {
		b, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		metaJSON = string(b)
	}

	entry := &models.CreditLedgerEntry{
		PaymentID:    paymentID,
		UserID:       userID,
		CreditType:   string(creditType),
		Amount:       amount,
		Reason:       reason,
		MetadataJSON: metaJSON,
	}
	created, err := l.repo.InsertEntryAndIncrementBalance(entry)
	if err != nil {
		return err
	}
	if !created {
		return ErrDuplicatePayment
	}
	return nil
}

// AllocatePlanCredits grants a plan's included credits for every credit type
// with a non-zero grant. Per-type ledger entries derive their payment ids
// from the base payment id so the unique index still applies per grant.
func (l *Ledger) AllocatePlanCredits(ctx context.Context, userID uint, planID, paymentID, reason string, metadata map[string]string) error {
	plan, err := l.repo.GetPlan(planID)
	if err != nil {
		return err
	}

	grants := map[Type]int{
		TypeImage: plan.IncludedImageCredits,
		TypeVideo: plan.IncludedVideoCredits,
		TypeText:  plan.IncludedTextCredits,
	}
	for _, t := range AllTypes {
		amount := grants[t]
		if amount <= 0 {
			continue
		}
		err := l.Allocate(ctx, userID, paymentID+":"+string(t), t, amount, reason, metadata)
		if err != nil && !errors.Is(err, ErrDuplicatePayment) {
			return err
		}
	}
	return nil
}

// Balance returns the user's current balance for a credit type.
func (l *Ledger) Balance(ctx context.Context, userID uint, creditType Type) (int, error) {
	_ = ctx
	return l.repo.GetBalance(userID, string(creditType))
}

package domain

import (
	"context"
	"errors"
)

var (
	ErrConcurrentReconciliation = errors.New("concurrent_reconciliation")
	ErrStoreUnavailable         = errors.New("store_unavailable")
)

type RecalculateRequest struct {
	PartnerID string
}

type RecalculateResponse struct {
	PartnerID       string `json:"partner_id"`
	PreviousBalance int64  `json:"previous_balance"`
	NewBalance      int64  `json:"new_balance"`
	Changed         bool   `json:"changed"`
}

type FixOpeningBalanceRequest struct {
	PartnerID string
}

type FixOpeningBalanceResponse struct {
	PartnerID       string `json:"partner_id"`
	StoredBalance   int64  `json:"stored_balance"`
	ComputedBalance int64  `json:"computed_balance"`
	Discrepancy     int64  `json:"discrepancy"`
	Applied         bool   `json:"applied"`
	OpeningOrderID  string `json:"opening_order_id,omitempty"`
}

type Service interface {
	// Recalculate replays the partner's full history and overwrites the
	// stored balance snapshot with the replayed sum.
	Recalculate(context.Context, RecalculateRequest) (RecalculateResponse, error)

	// CheckAndFixOpeningBalance compares the stored balance against the
	// replayed history and, when they diverge beyond the configured
	// tolerance, posts a synthetic opening order that absorbs the
	// difference. Within tolerance it is a no-op.
	CheckAndFixOpeningBalance(context.Context, FixOpeningBalanceRequest) (FixOpeningBalanceResponse, error)
}

package domain

import (
	"context"

	partnerdomain "github.com/smallbiznis/debtbook/internal/partner/domain"
)

// SortOrder controls statement presentation. Computation is always
// ascending; descending output is a reversal of the canonical sequence.
type SortOrder string

const (
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

type GetStatementRequest struct {
	PartnerID string
	Filter    StatementFilter
	Sort      SortOrder
}

type GetStatementResponse struct {
	Partner        partnerdomain.Partner `json:"partner"`
	Entries        []LedgerEntry         `json:"entries"`
	ClosingBalance int64                 `json:"closing_balance"`
}

type GetCyclesRequest struct {
	PartnerID string
}

type GetCyclesResponse struct {
	Cycles []DebtCycle `json:"cycles"`
}

type Service interface {
	// GetStatement builds the partner's bank-statement-style ledger with a
	// running balance per row.
	GetStatement(context.Context, GetStatementRequest) (GetStatementResponse, error)

	// GetCycles segments the partner's full history into debt cycles.
	GetCycles(context.Context, GetCyclesRequest) (GetCyclesResponse, error)

	// BuildHistory returns the filtered, date-ascending normalized history
	// for a partner. Running balances are not populated.
	BuildHistory(ctx context.Context, partnerID string, filter StatementFilter) ([]LedgerEntry, error)
}

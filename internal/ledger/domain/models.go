package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// EntrySource identifies which record stream a ledger entry came from.
type EntrySource string

const (
	SourceOrder   EntrySource = "order"
	SourceVoucher EntrySource = "voucher"
)

// LedgerEntry is the uniform signed view of one order or voucher. It is
// derived, never persisted. Amount follows the receivable-positive sign
// convention: sales on credit increase what the partner owes, receipts and
// purchases decrease it. RunningBalance is populated by WithRunningBalance.
type LedgerEntry struct {
	Source         EntrySource  `json:"source"`
	SourceID       snowflake.ID `json:"source_id"`
	Ref            string       `json:"ref"`
	Description    string       `json:"description"`
	Date           time.Time    `json:"date"`
	Amount         int64        `json:"amount"`
	RunningBalance int64        `json:"running_balance"`
}

// CycleStatus marks whether a debt cycle has returned to zero.
type CycleStatus string

const (
	CycleStatusOpen   CycleStatus = "open"
	CycleStatusClosed CycleStatus = "closed"
)

// DebtCycle is a maximal run of history during which the running balance
// stays non-zero. EndDate is nil while the cycle is still open. Sequence is
// 1-based, earliest first.
type DebtCycle struct {
	Sequence  int         `json:"sequence"`
	StartDate time.Time   `json:"start_date"`
	EndDate   *time.Time  `json:"end_date,omitempty"`
	Status    CycleStatus `json:"status"`
	Entries   int         `json:"entries"`
}

// PaymentMethodFilter narrows orders by payment method. Vouchers are always
// cash-equivalent and pass regardless.
type PaymentMethodFilter string

const (
	PaymentMethodAll  PaymentMethodFilter = ""
	PaymentMethodCash PaymentMethodFilter = "cash"
	PaymentMethodDebt PaymentMethodFilter = "debt"
)

// CategoryFilter narrows the history to one record stream.
type CategoryFilter string

const (
	CategoryAll     CategoryFilter = ""
	CategoryOrder   CategoryFilter = "order"
	CategoryVoucher CategoryFilter = "voucher"
)

// CalendarFilter narrows by exact calendar components. Quarter and Month are
// mutually exclusive; a quarter selects its three months.
type CalendarFilter struct {
	Year    int
	Month   time.Month
	Day     int
	Quarter int
}

// StatementFilter is the conjunction of all history narrowings. The zero
// value selects the full unfiltered history.
type StatementFilter struct {
	From           time.Time
	To             time.Time
	Calendar       CalendarFilter
	PaymentMethod  PaymentMethodFilter
	Category       CategoryFilter
	ExcludeSettled bool
}

// IsZero reports whether the filter selects the full history.
func (f StatementFilter) IsZero() bool {
	return f.From.IsZero() && f.To.IsZero() &&
		f.Calendar == (CalendarFilter{}) &&
		f.PaymentMethod == PaymentMethodAll &&
		f.Category == CategoryAll &&
		!f.ExcludeSettled
}

var (
	ErrPartnerNotFound   = errors.New("partner_not_found")
	ErrInvalidRecordKind = errors.New("invalid_record_kind")
	ErrInvalidFilter     = errors.New("invalid_filter")
)

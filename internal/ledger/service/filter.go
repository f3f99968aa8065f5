package service

import (
	"fmt"
	"time"

	ledgerdomain "github.com/smallbiznis/debtbook/internal/ledger/domain"
	orderdomain "github.com/smallbiznis/debtbook/internal/order/domain"
)

func validateFilter(f ledgerdomain.StatementFilter) error {
	c := f.Calendar
	if c.Quarter != 0 && c.Month != 0 {
		return fmt.Errorf("%w: quarter and month are mutually exclusive", ledgerdomain.ErrInvalidFilter)
	}
	if c.Quarter < 0 || c.Quarter > 4 {
		return fmt.Errorf("%w: quarter %d", ledgerdomain.ErrInvalidFilter, c.Quarter)
	}
	if c.Month < 0 || c.Month > 12 {
		return fmt.Errorf("%w: month %d", ledgerdomain.ErrInvalidFilter, c.Month)
	}
	if c.Day < 0 || c.Day > 31 {
		return fmt.Errorf("%w: day %d", ledgerdomain.ErrInvalidFilter, c.Day)
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return fmt.Errorf("%w: date range is inverted", ledgerdomain.ErrInvalidFilter)
	}
	switch f.PaymentMethod {
	case ledgerdomain.PaymentMethodAll, ledgerdomain.PaymentMethodCash, ledgerdomain.PaymentMethodDebt:
	default:
		return fmt.Errorf("%w: payment method %q", ledgerdomain.ErrInvalidFilter, f.PaymentMethod)
	}
	switch f.Category {
	case ledgerdomain.CategoryAll, ledgerdomain.CategoryOrder, ledgerdomain.CategoryVoucher:
	default:
		return fmt.Errorf("%w: category %q", ledgerdomain.ErrInvalidFilter, f.Category)
	}
	return nil
}

// matchDate applies the inclusive date-range bounds.
func matchDate(t time.Time, f ledgerdomain.StatementFilter) bool {
	if !f.From.IsZero() && t.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && t.After(f.To) {
		return false
	}
	return true
}

// matchCalendar applies exact-match calendar narrowing. A quarter selects
// its three-month set.
func matchCalendar(t time.Time, c ledgerdomain.CalendarFilter) bool {
	if c.Year != 0 && t.Year() != c.Year {
		return false
	}
	if c.Month != 0 && t.Month() != c.Month {
		return false
	}
	if c.Day != 0 && t.Day() != c.Day {
		return false
	}
	if c.Quarter != 0 {
		month := int(t.Month())
		if (month-1)/3+1 != c.Quarter {
			return false
		}
	}
	return true
}

func matchPaymentMethod(o orderdomain.Order, filter ledgerdomain.PaymentMethodFilter) bool {
	switch filter {
	case ledgerdomain.PaymentMethodCash:
		return o.PaymentMethod == orderdomain.PaymentMethodCash
	case ledgerdomain.PaymentMethodDebt:
		return o.PaymentMethod == orderdomain.PaymentMethodDebt
	default:
		return true
	}
}

package domain

import (
	"fmt"

	orderdomain "github.com/smallbiznis/debtbook/internal/order/domain"
	voucherdomain "github.com/smallbiznis/debtbook/internal/voucher/domain"
)

// NormalizeOrder maps an order to its signed ledger entry.
//
// Cash orders settle immediately and contribute zero to the debt balance,
// whatever their amount. Credit sales add the full total (the settlement is
// recorded separately as a voucher, which keeps the +goods/-payment symmetry
// and avoids double counting); purchases subtract it.
func NormalizeOrder(o orderdomain.Order) (LedgerEntry, error) {
	entry := LedgerEntry{
		Source:      SourceOrder,
		SourceID:    o.ID,
		Ref:         orderRef(o),
		Description: orderDescription(o),
		Date:        o.Date,
	}

	switch o.Kind {
	case orderdomain.OrderKindSale, orderdomain.OrderKindPurchase:
	default:
		return LedgerEntry{}, fmt.Errorf("%w: order kind %q", ErrInvalidRecordKind, o.Kind)
	}

	switch o.PaymentMethod {
	case orderdomain.PaymentMethodCash:
		entry.Amount = 0
	case orderdomain.PaymentMethodDebt:
		if o.Kind == orderdomain.OrderKindSale {
			entry.Amount = o.TotalAmount
		} else {
			entry.Amount = -o.TotalAmount
		}
	default:
		return LedgerEntry{}, fmt.Errorf("%w: payment method %q", ErrInvalidRecordKind, o.PaymentMethod)
	}

	return entry, nil
}

// NormalizeVoucher maps a voucher to its signed ledger entry. A receipt is
// money in from the partner and reduces the receivable; a payment is money
// out and increases it.
func NormalizeVoucher(v voucherdomain.Voucher) (LedgerEntry, error) {
	entry := LedgerEntry{
		Source:      SourceVoucher,
		SourceID:    v.ID,
		Ref:         voucherRef(v),
		Description: voucherDescription(v),
		Date:        v.Date,
	}

	switch v.Kind {
	case voucherdomain.VoucherKindReceipt:
		entry.Amount = -v.Amount
	case voucherdomain.VoucherKindPayment:
		entry.Amount = v.Amount
	default:
		return LedgerEntry{}, fmt.Errorf("%w: voucher kind %q", ErrInvalidRecordKind, v.Kind)
	}

	return entry, nil
}

func orderRef(o orderdomain.Order) string {
	if o.DisplayID != "" {
		return o.DisplayID
	}
	return o.ID.String()
}

func orderDescription(o orderdomain.Order) string {
	if o.Note != "" {
		return o.Note
	}
	if o.Kind == orderdomain.OrderKindSale {
		return "sale order"
	}
	return "purchase order"
}

func voucherRef(v voucherdomain.Voucher) string {
	if v.Kind == voucherdomain.VoucherKindReceipt {
		return "PT-" + v.ID.String()
	}
	return "PC-" + v.ID.String()
}

func voucherDescription(v voucherdomain.Voucher) string {
	if v.Note != "" {
		return v.Note
	}
	if v.Kind == voucherdomain.VoucherKindReceipt {
		return "cash receipt"
	}
	return "cash payment"
}

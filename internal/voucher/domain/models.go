package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// VoucherKind distinguishes money received from a partner (receipt) from
// money paid out to a partner (payment).
type VoucherKind string

const (
	VoucherKindReceipt VoucherKind = "receipt"
	VoucherKindPayment VoucherKind = "payment"
)

// Voucher is a cash receipt or payment posted against a partner. Amount is
// always non-negative; the direction comes from the kind. LinkedOrderID,
// when set, marks a voucher issued to settle a specific order.
type Voucher struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	PartnerID     snowflake.ID `gorm:"not null;index" json:"partner_id"`
	Kind          VoucherKind  `gorm:"type:text;not null;index" json:"kind"`
	Amount        int64        `gorm:"not null" json:"amount"`
	Date          time.Time    `gorm:"not null;index" json:"date"`
	Note          string       `gorm:"type:text" json:"note,omitempty"`
	LinkedOrderID snowflake.ID `gorm:"index" json:"linked_order_id,omitempty"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Voucher) TableName() string { return "vouchers" }

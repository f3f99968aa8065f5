package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// OrderKind distinguishes sales to customers from purchases from suppliers.
type OrderKind string

const (
	OrderKindSale     OrderKind = "sale"
	OrderKindPurchase OrderKind = "purchase"
)

// PaymentMethod records how an order was paid at posting time. Cash orders
// settle immediately and never touch the debt ledger.
type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodDebt PaymentMethod = "debt"
)

// OpeningDisplayID marks synthetic opening-balance orders inserted by the
// reconciliation service or by partner creation with a starting balance.
const OpeningDisplayID = "#OPENING"

// Order is a sale or purchase posted against a partner. TotalAmount is
// signed; a negative total represents a return or credit note. AmountPaid is
// the non-negative amount settled at posting time.
type Order struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	PartnerID     snowflake.ID  `gorm:"not null;index" json:"partner_id"`
	Kind          OrderKind     `gorm:"type:text;not null;index" json:"kind"`
	PaymentMethod PaymentMethod `gorm:"type:text;not null" json:"payment_method"`
	TotalAmount   int64         `gorm:"not null" json:"total_amount"`
	AmountPaid    int64         `gorm:"not null;default:0" json:"amount_paid"`
	Date          time.Time     `gorm:"not null;index" json:"date"`
	DisplayID     string        `gorm:"type:text" json:"display_id"`
	Note          string        `gorm:"type:text" json:"note,omitempty"`
	CreatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// TableName sets the database table name.
func (Order) TableName() string { return "orders" }

// Settled reports whether the order is fully paid. Derived from immutable
// fields on every read; never cached as a flag.
func (o Order) Settled() bool {
	total := o.TotalAmount
	if total < 0 {
		total = -total
	}
	return o.AmountPaid >= total
}

// OrderItem is a line on an order. The ledger core reads only the aggregate
// order total; lines exist for the surrounding application.
type OrderItem struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	OrderID     snowflake.ID `gorm:"not null;index" json:"order_id"`
	ProductName string       `gorm:"type:text;not null" json:"product_name"`
	Quantity    int64        `gorm:"not null" json:"quantity"`
	UnitPrice   int64        `gorm:"not null" json:"unit_price"`
}

// TableName sets the database table name.
func (OrderItem) TableName() string { return "order_items" }

// NewOpeningBalance builds the synthetic debt order that reconciles a stored
// balance with recorded history. A positive amount is owed to the business
// and posts as a sale; a negative amount posts as a purchase.
func NewOpeningBalance(id, partnerID snowflake.ID, amount int64, date time.Time) Order {
	kind := OrderKindSale
	total := amount
	if amount < 0 {
		kind = OrderKindPurchase
		total = -amount
	}
	return Order{
		ID:            id,
		PartnerID:     partnerID,
		Kind:          kind,
		PaymentMethod: PaymentMethodDebt,
		TotalAmount:   total,
		AmountPaid:    0,
		Date:          date.UTC(),
		DisplayID:     OpeningDisplayID,
		Note:          "opening balance",
		CreatedAt:     time.Now().UTC(),
	}
}

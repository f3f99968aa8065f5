package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Partner is a named counterparty the business trades with on cash or credit
// terms. A partner may be both a customer and a supplier.
//
// DebtBalance is a signed snapshot in the smallest currency denomination:
// positive means the partner owes the business (receivable), negative means
// the business owes the partner (payable). It is written only by order and
// voucher postings and by the reconciliation service, never derived ad hoc
// by display code. BalanceVersion is the optimistic-concurrency token
// guarding balance writes.
type Partner struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	Name           string       `gorm:"not null;index" json:"name"`
	IsCustomer     bool         `gorm:"not null;default:true" json:"is_customer"`
	IsSupplier     bool         `gorm:"not null;default:false" json:"is_supplier"`
	Phone          string       `json:"phone,omitempty"`
	Address        string       `json:"address,omitempty"`
	DebtBalance    int64        `gorm:"not null;default:0" json:"debt_balance"`
	BalanceVersion int64        `gorm:"not null;default:0" json:"-"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Partner) TableName() string { return "partners" }

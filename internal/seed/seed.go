package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	orderdomain "github.com/smallbiznis/debtbook/internal/order/domain"
	partnerdomain "github.com/smallbiznis/debtbook/internal/partner/domain"
	voucherdomain "github.com/smallbiznis/debtbook/internal/voucher/domain"
)

const demoPartnerName = "Quán Cô Ba"

// EnsureDemoData seeds one demo partner with a short debt history so a
// fresh install has something to show. Idempotent by partner name.
func EnsureDemoData(db *gorm.DB, node *snowflake.Node) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if node == nil {
		var err error
		node, err = snowflake.NewNode(1)
		if err != nil {
			return err
		}
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.WithContext(ctx).
			Model(&partnerdomain.Partner{}).
			Where("name = ?", demoPartnerName).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		partner := partnerdomain.Partner{
			ID:         node.Generate(),
			Name:       demoPartnerName,
			IsCustomer: true,
			Phone:      "0901234567",
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.WithContext(ctx).Create(&partner).Error; err != nil {
			return err
		}

		sale := orderdomain.Order{
			ID:            node.Generate(),
			PartnerID:     partner.ID,
			Kind:          orderdomain.OrderKindSale,
			PaymentMethod: orderdomain.PaymentMethodDebt,
			TotalAmount:   250_000,
			Date:          now.AddDate(0, 0, -14),
			DisplayID:     "#1001",
			CreatedAt:     now,
			Items: []orderdomain.OrderItem{
				{
					ID:          node.Generate(),
					ProductName: "Rice 5kg",
					Quantity:    2,
					UnitPrice:   125_000,
				},
			},
		}
		sale.Items[0].OrderID = sale.ID
		if err := tx.WithContext(ctx).Create(&sale).Error; err != nil {
			return err
		}

		receipt := voucherdomain.Voucher{
			ID:        node.Generate(),
			PartnerID: partner.ID,
			Kind:      voucherdomain.VoucherKindReceipt,
			Amount:    100_000,
			Date:      now.AddDate(0, 0, -7),
			Note:      "partial payment",
			CreatedAt: now,
		}
		if err := tx.WithContext(ctx).Create(&receipt).Error; err != nil {
			return err
		}

		return tx.WithContext(ctx).
			Model(&partnerdomain.Partner{}).
			Where("id = ?", partner.ID).
			Update("debt_balance", sale.TotalAmount-receipt.Amount).Error
	})
}
